// Package common - errors.go определяет пользовательские ошибки,
// которые используются во всех модулях сервиса.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// ErrValidation - общий корень ошибок валидации входных данных.
// Все ошибки ниже оборачивают его, чтобы обработчики могли проверить errors.Is(err, ErrValidation).
var ErrValidation = errors.New("некорректный запрос")

// Ошибки репутации (оценка заданий, обмен опыта на минуты)
var (
	// ErrNegativeXP - отрицательное количество опыта в запросе обмена
	ErrNegativeXP = validation("количество опыта не может быть отрицательным")
	// ErrUnknownChild - ребёнок не зарегистрирован
	ErrUnknownChild = validation("ребёнок не найден")
	// ErrEmptyTaskID - не указан идентификатор задания
	ErrEmptyTaskID = validation("не указан идентификатор задания")
	// ErrUnknownDecision - решение не «одобрить» и не «отклонить»
	ErrUnknownDecision = validation("неизвестное решение по заданию")
	// ErrRejectionNotFound - нечего отменять: отклонения по этому заданию нет
	ErrRejectionNotFound = errors.New("отклонение по этому заданию не найдено")
	// ErrNotGuardian - действие доступно только родителю
	ErrNotGuardian = errors.New("это действие доступно только родителям")
)

// Ошибки кошелька экранного времени
var (
	// ErrInsufficientBalance - недостаточно минут на счёте
	ErrInsufficientBalance = errors.New("недостаточно минут на счёте")
	// ErrInvalidAmount - некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = validation("сумма должна быть положительной")
)

// Ошибки админки
var (
	// ErrWrongPassword - неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts - слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired - сессии нет или она истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)

// validationError - ошибка валидации с собственным текстом.
type validationError struct {
	msg string
}

func validation(msg string) error { return &validationError{msg: msg} }

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// IsValidation проверяет, что ошибка вызвана некорректными входными данными.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
