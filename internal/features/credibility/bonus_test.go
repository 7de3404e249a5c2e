package credibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fortyPointsOfForgiveness - четыре старых отклонения, которые затухание вернёт целиком.
func fortyPointsOfForgiveness() []HistoryEvent {
	return []HistoryEvent{
		oldRejection(-10, 61*day),
		oldRejection(-10, 62*day),
		oldRejection(-10, 63*day),
		oldRejection(-10, 64*day),
	}
}

func activeBonus(s *State, expiry time.Time) {
	s.bonus = RedemptionBonusState{Active: true, Expiry: &expiry}
}

func eventKinds(s *State) []EventKind {
	var kinds []EventKind
	for _, ev := range s.History().Events() {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestRedemptionBonus_LazyExpiry(t *testing.T) {
	s, clock := newTestState(97)
	activeBonus(s, t0.Add(RedemptionDuration))

	assert.True(t, s.BonusActive())
	assert.Equal(t, int64(1560), s.XpToMinutes(1000))
	status := s.Status(0)
	require.NotNil(t, status.BonusExpiry)
	assert.Equal(t, t0.Add(RedemptionDuration), *status.BonusExpiry)

	clock.Advance(RedemptionDuration)
	assert.True(t, s.BonusActive())

	clock.Advance(time.Second)
	assert.False(t, s.BonusActive())
	assert.Equal(t, 1, countKind(s, EventBonusExpired))
	assert.Equal(t, int64(1200), s.XpToMinutes(1000))

	// Повторное чтение не дописывает событие
	assert.False(t, s.BonusActive())
	assert.Equal(t, 1, countKind(s, EventBonusExpired))
}

func TestRedemptionBonus_DecayDoesNotActivate(t *testing.T) {
	s, _ := newTestState(55, fortyPointsOfForgiveness()...)

	assert.Equal(t, 40, s.RunDecay())
	assert.Equal(t, 95, s.Score())
	assert.False(t, s.BonusActive())
	assert.Equal(t, []EventKind{EventDecayRecovery}, eventKinds(s))
	assert.Equal(t, int64(1200), s.XpToMinutes(1000))
}

func TestRedemptionBonus_ApprovalsAloneCannotActivate(t *testing.T) {
	s, _ := newTestState(59)
	for i := 0; i < 30; i++ {
		s.ApplyApproval("task", 11, "")
	}
	assert.Equal(t, 100, s.Score())
	assert.False(t, s.BonusActive())
}

func TestApplyApproval_ActivatesRedemptionBonus(t *testing.T) {
	s, _ := newTestState(57)
	s.rules.Bonus.Threshold = 60
	s.streak = 9

	status := s.ApplyApproval("task-1", 11, "")

	assert.Equal(t, 64, status.Score)
	assert.True(t, status.BonusActive)
	require.NotNil(t, status.BonusExpiry)
	assert.Equal(t, t0.Add(RedemptionDuration), *status.BonusExpiry)
	assert.Equal(t, []EventKind{EventApproval, EventStreakBonus, EventBonusActivated}, eventKinds(s))
	assert.Equal(t, 64, s.History().At(2).ResultingScore)
}

func TestApplyApproval_KeepsActiveBonus(t *testing.T) {
	s, _ := newTestState(57)
	s.rules.Bonus.Threshold = 58
	expiry := t0.Add(2 * day)
	activeBonus(s, expiry)

	status := s.ApplyApproval("task-1", 11, "")

	assert.Equal(t, 59, status.Score)
	require.NotNil(t, status.BonusExpiry)
	assert.Equal(t, expiry, *status.BonusExpiry)
	assert.Equal(t, 0, countKind(s, EventBonusActivated))
}

func TestApplyApproval_NoBonusWhenPreviousScoreHigh(t *testing.T) {
	s, _ := newTestState(60)
	s.rules.Bonus.Threshold = 61

	s.ApplyApproval("task-1", 11, "")
	assert.Equal(t, 62, s.Score())
	assert.False(t, s.BonusActive())
}

func TestRedemptionBonus_DeactivatedByRejectionBelowThreshold(t *testing.T) {
	s, _ := newTestState(95)
	activeBonus(s, t0.Add(RedemptionDuration))

	s.ApplyRejection("task-9", 11, "")
	assert.Equal(t, 85, s.Score())
	assert.False(t, s.BonusActive())
	assert.Equal(t, []EventKind{EventRejection, EventBonusExpired}, eventKinds(s))
}

func TestRedemptionBonus_KeptWhenRejectionStaysAboveThreshold(t *testing.T) {
	s, _ := newTestState(100)
	s.rules.Penalty = PenaltyCalculator{Base: -5, Stacked: -5, Window: 7 * day}
	activeBonus(s, t0.Add(RedemptionDuration))

	s.ApplyRejection("task-9", 11, "")
	assert.Equal(t, 95, s.Score())
	assert.True(t, s.BonusActive())
}

func TestRedemptionBonusController_MaybeActivate(t *testing.T) {
	c := DefaultRedemptionBonusController()
	s, _ := newTestState(96)

	assert.False(t, c.MaybeActivate(s, 60, t0))
	assert.True(t, c.MaybeActivate(s, 59, t0))
	assert.False(t, c.MaybeActivate(s, 10, t0), "already active")
	assert.Equal(t, 1, countKind(s, EventBonusActivated))

	low, _ := newTestState(94)
	assert.False(t, c.MaybeActivate(low, 10, t0))
}

func TestRedemptionBonusController_EffectiveAtDoesNotMutate(t *testing.T) {
	c := DefaultRedemptionBonusController()
	s, _ := newTestState(96)
	expiry := t0.Add(-time.Minute)
	s.bonus = RedemptionBonusState{Active: true, Expiry: &expiry}

	assert.False(t, c.EffectiveAt(s, t0))
	assert.True(t, s.bonus.Active)
	assert.Equal(t, 0, s.History().Len())

	assert.Equal(t, int64(100), c.MultiplierPctFor(false))
	assert.Equal(t, int64(130), c.MultiplierPctFor(true))
}

func TestRedemptionBonus_ActiveWithoutExpiryIsExpired(t *testing.T) {
	s, _ := newTestState(96)
	s.bonus = RedemptionBonusState{Active: true}
	assert.False(t, s.BonusActive())
	assert.Equal(t, 1, countKind(s, EventBonusExpired))
}
