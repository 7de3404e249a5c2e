package credibility

import "time"

// Штрафы за отклонение.
const (
	BasePenalty    = -10
	StackedPenalty = -15
	// StackingWindow - если прошлое отклонение было не раньше, штраф усиливается.
	StackingWindow = 7 * 24 * time.Hour
)

// PenaltyCalculator определяет размер штрафа за отклонение.
type PenaltyCalculator struct {
	Base    int
	Stacked int
	Window  time.Duration
}

// DefaultPenaltyCalculator возвращает калькулятор с боевыми значениями.
func DefaultPenaltyCalculator() PenaltyCalculator {
	return PenaltyCalculator{Base: BasePenalty, Stacked: StackedPenalty, Window: StackingWindow}
}

// Penalty смотрит на самое позднее прошлое отклонение: если оно не старше окна,
// штраф усиленный, иначе базовый.
func (c PenaltyCalculator) Penalty(log *EventLog, now time.Time) int {
	i, ok := log.LastOfKind(EventRejection)
	if !ok {
		return c.Base
	}
	if now.Sub(log.At(i).Timestamp) <= c.Window {
		return c.Stacked
	}
	return c.Base
}
