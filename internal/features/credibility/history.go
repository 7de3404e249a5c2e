// Package credibility - history.go хранит историю событий репутации.
// Лог только дописывается. Изменять можно лишь отклонения: пометить затухание
// (MarkDecayed) или удалить полностью прощённые (RemoveWhere).
package credibility

import (
	"time"
)

// EventLog - упорядоченный журнал событий с доступом по индексу.
// Порядок вставки сохраняется и при удалении записей.
type EventLog struct {
	records []HistoryEvent
}

// NewEventLog создаёт журнал из готовых записей (например, из снимка).
func NewEventLog(events []HistoryEvent) *EventLog {
	records := make([]HistoryEvent, len(events))
	copy(records, events)
	return &EventLog{records: records}
}

// Append добавляет событие в конец и возвращает его индекс.
func (l *EventLog) Append(ev HistoryEvent) int {
	l.records = append(l.records, ev)
	return len(l.records) - 1
}

// Len возвращает число записей.
func (l *EventLog) Len() int {
	return len(l.records)
}

// At возвращает копию записи по индексу.
func (l *EventLog) At(i int) HistoryEvent {
	return l.records[i]
}

// Events возвращает копию всех записей в порядке вставки.
func (l *EventLog) Events() []HistoryEvent {
	out := make([]HistoryEvent, len(l.records))
	copy(out, l.records)
	return out
}

// Recent возвращает последние n записей, новые первыми.
func (l *EventLog) Recent(n int) []HistoryEvent {
	if n <= 0 || n > len(l.records) {
		n = len(l.records)
	}
	out := make([]HistoryEvent, 0, n)
	for i := len(l.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.records[i])
	}
	return out
}

// Since возвращает записи не старше since, в порядке вставки.
func (l *EventLog) Since(since time.Time) []HistoryEvent {
	var out []HistoryEvent
	for _, ev := range l.records {
		if !ev.Timestamp.Before(since) {
			out = append(out, ev)
		}
	}
	return out
}

// OfKind возвращает индексы записей заданного типа в порядке вставки.
func (l *EventLog) OfKind(kind EventKind) []int {
	var idx []int
	for i, ev := range l.records {
		if ev.Kind == kind {
			idx = append(idx, i)
		}
	}
	return idx
}

// LastOfKind находит самую позднюю по времени запись заданного типа.
// При равных временах побеждает вставленная позже.
func (l *EventLog) LastOfKind(kind EventKind) (int, bool) {
	best := -1
	for i, ev := range l.records {
		if ev.Kind != kind {
			continue
		}
		if best == -1 || !ev.Timestamp.Before(l.records[best].Timestamp) {
			best = i
		}
	}
	return best, best >= 0
}

// MarkDecayed помечает отклонение как частично прощённое.
// Возвращает false, если запись не отклонение или уже помечена.
func (l *EventLog) MarkDecayed(i int, at time.Time) bool {
	ev := &l.records[i]
	if ev.Kind != EventRejection || ev.Decayed {
		return false
	}
	ev.Decayed = true
	ev.DecayedAt = &at
	return true
}

// RemoveWhere удаляет отклонения, для которых pred вернул true, и возвращает их число.
// Записи других типов не удаляются никогда.
func (l *EventLog) RemoveWhere(pred func(i int, ev HistoryEvent) bool) int {
	kept := l.records[:0]
	removed := 0
	for i, ev := range l.records {
		if ev.Kind == EventRejection && pred(i, ev) {
			removed++
			continue
		}
		kept = append(kept, ev)
	}
	// Обнуляем хвост, чтобы не держать ссылки на удалённые записи
	for i := len(kept); i < len(l.records); i++ {
		l.records[i] = HistoryEvent{}
	}
	l.records = kept
	return removed
}
