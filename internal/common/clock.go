package common

import "time"

// Clock - источник текущего времени. Бизнес-логика не вызывает time.Now напрямую.
type Clock interface {
	Now() time.Time
}

// SystemClock возвращает реальное время в UTC.
type SystemClock struct{}

// Now возвращает текущее время.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock всегда возвращает одно и то же время. Используется в тестах
// и при ручном прогоне затухания «на дату».
type FixedClock struct {
	T time.Time
}

// Now возвращает зафиксированное время.
func (c *FixedClock) Now() time.Time { return c.T }

// Advance сдвигает часы вперёд.
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
