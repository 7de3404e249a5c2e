// Package credibility - decay.go возвращает очки за старые отклонения.
//
//	30+ дней: возвращается половина штрафа (один раз, отклонение помечается decayed)
//	60+ дней: возвращается весь штраф, отклонение удаляется из истории
//
// Прогон идемпотентен: повторный запуск в тот же момент ничего не меняет.
package credibility

import "time"

// Сроки затухания штрафов.
const (
	HalfDecayAfter = 30 * 24 * time.Hour
	FullDecayAfter = 60 * 24 * time.Hour
)

// DecayProcessor проходит по отклонениям и прощает старые штрафы.
type DecayProcessor struct {
	HalfAfter time.Duration
	FullAfter time.Duration
}

// DefaultDecayProcessor возвращает процессор с боевыми сроками.
func DefaultDecayProcessor() DecayProcessor {
	return DecayProcessor{HalfAfter: HalfDecayAfter, FullAfter: FullDecayAfter}
}

// Run прощает подходящие штрафы и возвращает сумму возвращённых очков.
// Счёт меняется один раз на всю сумму, в историю пишется одно событие DecayRecovery.
func (p DecayProcessor) Run(s *State, now time.Time) int {
	total := 0
	forgiven := make(map[int]bool)

	for _, i := range s.log.OfKind(EventRejection) {
		ev := s.log.At(i)
		age := now.Sub(ev.Timestamp)
		penalty := abs(ev.Amount)

		switch {
		case age >= p.FullAfter:
			total += penalty
			forgiven[i] = true
		case age >= p.HalfAfter && !ev.Decayed:
			total += penalty / 2
			if s.log.MarkDecayed(i, now) {
				s.dirty = true
			}
		}
	}

	if len(forgiven) > 0 {
		s.log.RemoveWhere(func(i int, _ HistoryEvent) bool { return forgiven[i] })
		s.dirty = true
	}

	if total == 0 {
		return 0
	}

	s.addScore(total)
	s.record(HistoryEvent{
		Kind:      EventDecayRecovery,
		Amount:    total,
		Timestamp: now,
	})
	return total
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
