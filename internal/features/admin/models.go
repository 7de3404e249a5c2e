// Package admin реализует админ-панель родителя с парольной аутентификацией.
// Через неё делаются редкие опасные операции: сброс репутации ребёнка
// и ручной прогон затухания штрафов.
// models.go описывает структуры сессий, попыток входа и состояния диалога.
package admin

import "time"

// AdminSession - активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt - попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// AdminState - состояние диалога с админом (конечный автомат).
// Сброс идёт в три шага: выбор ребёнка → подтверждение → сброс.
type AdminState struct {
	State      string      // Текущее состояние
	Candidates []Candidate // Список, из которого выбирают номером
	ChildID    int64       // Выбранный ребёнок
	ChildName  string      // Для текста подтверждения
	ExpiresAt  time.Time   // Когда состояние истекает
}

// Candidate - ребёнок в нумерованном списке выбора.
type Candidate struct {
	ChildID int64
	Name    string
}

// Возможные состояния админ-диалога
const (
	StateNone             = ""                  // Нет активного состояния
	StateAwaitingPassword = "awaiting_password" // Ждём пароль
	StateResetSelect      = "reset_select"      // Ждём номер ребёнка
	StateResetConfirm     = "reset_confirm"     // Ждём «ДА» для сброса репутации
)

// Ограничения админки.
const (
	SessionTTL        = 24 * time.Hour
	StateTTL          = 5 * time.Minute
	MaxFailedAttempts = 3
	AttemptsWindow    = time.Hour
)
