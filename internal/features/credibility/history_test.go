package credibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEventLog_RecentAndSince(t *testing.T) {
	l := NewEventLog(nil)
	for i := 0; i < 5; i++ {
		l.Append(HistoryEvent{ID: string(rune('a' + i)), Kind: EventApproval, Timestamp: t0.Add(time.Duration(i) * time.Hour)})
	}

	recent := l.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "e", recent[0].ID)
	assert.Equal(t, "d", recent[1].ID)
	assert.Len(t, l.Recent(0), 5)
	assert.Len(t, l.Recent(100), 5)

	since := l.Since(t0.Add(3 * time.Hour))
	require.Len(t, since, 2)
	assert.Equal(t, "d", since[0].ID)
}

func TestEventLog_LastOfKind_TieGoesToLaterInsert(t *testing.T) {
	l := NewEventLog(nil)
	l.Append(HistoryEvent{ID: "late", Kind: EventRejection, Timestamp: t0.Add(time.Hour)})
	l.Append(HistoryEvent{ID: "early", Kind: EventRejection, Timestamp: t0})
	l.Append(HistoryEvent{ID: "tie", Kind: EventRejection, Timestamp: t0.Add(time.Hour)})
	l.Append(HistoryEvent{ID: "other", Kind: EventApproval, Timestamp: t0.Add(5 * time.Hour)})

	i, ok := l.LastOfKind(EventRejection)
	require.True(t, ok)
	assert.Equal(t, "tie", l.At(i).ID)

	_, ok = l.LastOfKind(EventStreakBonus)
	assert.False(t, ok)
}

func TestEventLog_MarkDecayedOnlyOnce(t *testing.T) {
	l := NewEventLog(nil)
	rej := l.Append(HistoryEvent{Kind: EventRejection, Amount: -10, Timestamp: t0})
	app := l.Append(HistoryEvent{Kind: EventApproval, Amount: 2, Timestamp: t0})

	assert.True(t, l.MarkDecayed(rej, t0.Add(time.Hour)))
	assert.False(t, l.MarkDecayed(rej, t0.Add(2*time.Hour)))
	assert.False(t, l.MarkDecayed(app, t0))

	ev := l.At(rej)
	assert.True(t, ev.Decayed)
	require.NotNil(t, ev.DecayedAt)
	assert.Equal(t, t0.Add(time.Hour), *ev.DecayedAt)
}

func TestEventLog_RemoveWhereKeepsOrderAndNonRejections(t *testing.T) {
	l := NewEventLog(nil)
	l.Append(HistoryEvent{ID: "r1", Kind: EventRejection})
	l.Append(HistoryEvent{ID: "a1", Kind: EventApproval})
	l.Append(HistoryEvent{ID: "r2", Kind: EventRejection})
	l.Append(HistoryEvent{ID: "a2", Kind: EventApproval})

	removed := l.RemoveWhere(func(int, HistoryEvent) bool { return true })
	assert.Equal(t, 2, removed)

	events := l.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "a1", events[0].ID)
	assert.Equal(t, "a2", events[1].ID)
}

func TestNewEventLog_CopiesInput(t *testing.T) {
	src := []HistoryEvent{{ID: "x", Kind: EventApproval}}
	l := NewEventLog(src)
	src[0].ID = "changed"
	assert.Equal(t, "x", l.At(0).ID)

	out := l.Events()
	out[0].ID = "changed"
	assert.Equal(t, "x", l.At(0).ID)
}
