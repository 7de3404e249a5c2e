// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: русская плюрализация, форматирование чисел, работа с временем.
package common

import (
	"time"
)

// pluralForm выбирает форму слова для числа n по правилам русского языка.
//
//   - n%10==1 И n%100!=11 → one (1, 21, 31, 101, ...)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → few (2, 3, 4, 22, ...)
//   - Остальные случаи → many (0, 5-20, 25-30, 100, ...)
func pluralForm(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}

// PluralizeMinutes возвращает правильную форму слова «минута».
//
//	PluralizeMinutes(1)  → "минута"
//	PluralizeMinutes(3)  → "минуты"
//	PluralizeMinutes(11) → "минут"
func PluralizeMinutes(n int64) string {
	return pluralForm(n, "минута", "минуты", "минут")
}

// PluralizePoints возвращает правильную форму слова «очко».
func PluralizePoints(n int) string {
	return pluralForm(int64(n), "очко", "очка", "очков")
}

// PluralizeTasks возвращает правильную форму слова «задание».
func PluralizeTasks(n int) string {
	return pluralForm(int64(n), "задание", "задания", "заданий")
}

// PluralizeDays возвращает правильную форму слова «день».
func PluralizeDays(n int) string {
	return pluralForm(int64(n), "день", "дня", "дней")
}

// LoadLocation загружает часовой пояс, при ошибке - фиксированный UTC+3.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в заданном поясе.
// Используется для отображения истории.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}
