package credibility

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/credibility-bot/internal/common"
)

func newTestState(score int, history ...HistoryEvent) (*State, *common.FixedClock) {
	clock := &common.FixedClock{T: t0}
	return FromSnapshot(1, Snapshot{Score: score, History: history}, clock), clock
}

func oldRejection(amount int, age time.Duration) HistoryEvent {
	return HistoryEvent{ID: "old", Kind: EventRejection, Amount: amount, Timestamp: t0.Add(-age), TaskID: "old-task"}
}

func countKind(s *State, kind EventKind) int {
	return len(s.History().OfKind(kind))
}

func TestNewState_Defaults(t *testing.T) {
	s := NewState(7, &common.FixedClock{T: t0})
	assert.Equal(t, 100, s.Score())
	assert.Equal(t, 0, s.Streak())
	assert.False(t, s.BonusActive())
	assert.Equal(t, 0, s.History().Len())
	assert.False(t, s.Dirty())
}

func TestScenarioA_SingleRejection(t *testing.T) {
	s, _ := newTestState(100)

	status := s.ApplyRejection("task-1", 11, "не убрал комнату")

	assert.Equal(t, 90, status.Score)
	assert.Equal(t, 0, status.Streak)
	require.Equal(t, 1, s.History().Len())
	ev := s.History().At(0)
	assert.Equal(t, EventRejection, ev.Kind)
	assert.Equal(t, -10, ev.Amount)
	assert.Equal(t, 90, ev.ResultingScore)
	assert.Equal(t, "не убрал комнату", ev.Notes)
	assert.True(t, s.Dirty())
}

func TestScenarioB_StackedRejection(t *testing.T) {
	s, clock := newTestState(100)

	s.ApplyRejection("task-1", 11, "")
	assert.Equal(t, 90, s.Score())

	clock.Advance(day)
	s.ApplyRejection("task-2", 11, "")
	assert.Equal(t, 75, s.Score())
	assert.Equal(t, StackedPenalty, s.History().At(1).Amount)
}

func TestScenarioC_ScoreFloorsAtZero(t *testing.T) {
	s, clock := newTestState(100)
	for i := 0; i < 12; i++ {
		s.ApplyRejection("task", 11, "")
		assert.GreaterOrEqual(t, s.Score(), MinScore)
		clock.Advance(time.Hour)
	}
	assert.Equal(t, 0, s.Score())
}

func TestScenarioD_StreakBonusAtTen(t *testing.T) {
	s, clock := newTestState(100)
	for i := 0; i < 10; i++ {
		s.ApplyApproval("task", 11, "")
		assert.Equal(t, 100, s.Score())
		clock.Advance(time.Hour)
	}

	assert.Equal(t, 10, s.Streak())
	bonuses := s.History().OfKind(EventStreakBonus)
	require.Len(t, bonuses, 1)
	ev := s.History().At(bonuses[0])
	require.NotNil(t, ev.StreakCount)
	assert.Equal(t, 10, *ev.StreakCount)
	assert.Equal(t, StreakBonus, ev.Amount)
}

func TestScenarioE_DecayHalfThenFull(t *testing.T) {
	s, clock := newTestState(90, oldRejection(-10, 35*day))

	assert.Equal(t, 5, s.RunDecay())
	assert.Equal(t, 95, s.Score())
	rejections := s.History().OfKind(EventRejection)
	require.Len(t, rejections, 1)
	assert.True(t, s.History().At(rejections[0]).Decayed)
	assert.Equal(t, 1, countKind(s, EventDecayRecovery))

	// Повторный прогон ничего не меняет
	before := s.History().Len()
	assert.Equal(t, 0, s.RunDecay())
	assert.Equal(t, 95, s.Score())
	assert.Equal(t, before, s.History().Len())

	clock.Advance(20 * day)
	assert.Equal(t, 0, s.RunDecay())
	assert.Equal(t, 95, s.Score())

	clock.Advance(5 * day)
	assert.Equal(t, 10, s.RunDecay())
	assert.Equal(t, 100, s.Score())
	assert.Equal(t, 0, countKind(s, EventRejection))
	assert.Equal(t, 2, countKind(s, EventDecayRecovery))
}

func TestScenarioF_Conversion(t *testing.T) {
	s, _ := newTestState(100)
	assert.Equal(t, int64(1200), s.XpToMinutes(1000))
	assert.InDelta(t, 1.2, s.ConversionRate(), 1e-9)

	expiry := t0.Add(3 * day)
	s.bonus = RedemptionBonusState{Active: true, Expiry: &expiry}
	assert.Equal(t, int64(1560), s.XpToMinutes(1000))
	assert.InDelta(t, 1.56, s.ConversionRate(), 1e-9)
}

func TestApplyApproval_RecordsStreakAndScore(t *testing.T) {
	s, _ := newTestState(50)
	status := s.ApplyApproval("task-1", 11, "молодец")

	assert.Equal(t, 52, status.Score)
	assert.Equal(t, 1, status.Streak)
	ev := s.History().At(0)
	assert.Equal(t, EventApproval, ev.Kind)
	assert.Equal(t, ApprovalBonus, ev.Amount)
	assert.Equal(t, 52, ev.ResultingScore)
	require.NotNil(t, ev.StreakCount)
	assert.Equal(t, 1, *ev.StreakCount)
	assert.NotEmpty(t, ev.ID)
}

func TestApplyRejection_ResetsStreak(t *testing.T) {
	s, _ := newTestState(80)
	for i := 0; i < 4; i++ {
		s.ApplyApproval("task", 11, "")
	}
	assert.Equal(t, 4, s.Streak())

	s.ApplyRejection("task", 11, "")
	assert.Equal(t, 0, s.Streak())
	assert.Equal(t, 78, s.Score())
}

func TestUndoRejection(t *testing.T) {
	s, clock := newTestState(100)
	s.ApplyRejection("task-1", 11, "")
	clock.Advance(time.Hour)
	s.ApplyRejection("task-1", 11, "")
	assert.Equal(t, 75, s.Score())

	status, err := s.UndoRejection("task-1", 11)
	require.NoError(t, err)
	assert.Equal(t, 90, status.Score)
	assert.Equal(t, 0, status.Streak)

	last := s.History().At(s.History().Len() - 1)
	assert.Equal(t, EventRejectionUndone, last.Kind)
	assert.Equal(t, 15, last.Amount, "возвращается штраф последнего отклонения")

	// Отклонения остаются в истории
	assert.Equal(t, 2, countKind(s, EventRejection))
	assert.Equal(t, 1, countKind(s, EventRejectionUndone))
}

func TestUndoRejection_RepeatedUndoMatchesSameRejection(t *testing.T) {
	s, _ := newTestState(100)
	s.ApplyRejection("task-1", 11, "")
	s.ApplyRejection("task-2", 11, "")
	assert.Equal(t, 75, s.Score())

	_, err := s.UndoRejection("task-1", 11)
	require.NoError(t, err)
	assert.Equal(t, 85, s.Score())

	status, err := s.UndoRejection("task-1", 11)
	require.NoError(t, err)
	assert.Equal(t, 95, status.Score)
	assert.Equal(t, 2, countKind(s, EventRejectionUndone))
	for _, i := range s.History().OfKind(EventRejectionUndone) {
		assert.Equal(t, 10, s.History().At(i).Amount)
	}
}

func TestUndoRejection_NotFound(t *testing.T) {
	s, _ := newTestState(100)
	s.ApplyApproval("task-1", 11, "")
	before := s.History().Len()

	status, err := s.UndoRejection("task-1", 11)
	assert.ErrorIs(t, err, common.ErrRejectionNotFound)
	assert.Equal(t, 100, status.Score)
	assert.Equal(t, before, s.History().Len())
}

func TestUndoRejection_MatchesTaskAndReviewer(t *testing.T) {
	s, _ := newTestState(100)
	s.ApplyRejection("task-1", 11, "")

	_, err := s.UndoRejection("task-1", 22)
	assert.ErrorIs(t, err, common.ErrRejectionNotFound)
	_, err = s.UndoRejection("task-2", 11)
	assert.ErrorIs(t, err, common.ErrRejectionNotFound)
	assert.Equal(t, 90, s.Score())
}

func TestUndoRejection_ClampsAtMax(t *testing.T) {
	s, _ := newTestState(100)
	s.ApplyRejection("task-1", 11, "")
	s.ApplyApproval("task-2", 11, "")
	s.ApplyApproval("task-3", 11, "")
	s.ApplyApproval("task-4", 11, "")
	assert.Equal(t, 96, s.Score())

	status, err := s.UndoRejection("task-1", 11)
	require.NoError(t, err)
	assert.Equal(t, 100, status.Score)
}

func TestReset(t *testing.T) {
	s, _ := newTestState(40, oldRejection(-10, day))
	s.Reset()
	assert.Equal(t, 100, s.Score())
	assert.Equal(t, 0, s.History().Len())
	assert.True(t, s.Dirty())
}

func TestStatus(t *testing.T) {
	s, _ := newTestState(89)
	for i := 0; i < 3; i++ {
		s.ApplyApproval("task", 11, "")
	}
	status := s.Status(2)

	assert.Equal(t, int64(1), status.ChildID)
	assert.Equal(t, 95, status.Score)
	assert.Equal(t, "Excellent", status.Tier.Name)
	assert.InDelta(t, 1.2, status.Tier.Multiplier, 1e-9)
	assert.Len(t, status.RecentHistory, 2)
	assert.Equal(t, 95, status.RecentHistory[0].ResultingScore)
	assert.Equal(t, "До максимума: 5 очков (3 задания)", status.RecoveryPath)
	assert.Nil(t, status.BonusExpiry)
}

func TestFromSnapshot_SanitizesValues(t *testing.T) {
	clock := &common.FixedClock{T: t0}
	s := FromSnapshot(1, Snapshot{Score: 140, Streak: -3}, clock)
	assert.Equal(t, 100, s.Score())
	assert.Equal(t, 0, s.Streak())

	s = FromSnapshot(1, Snapshot{Score: -20}, clock)
	assert.Equal(t, 0, s.Score())
}

func TestInvariants_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tasks := []string{"t1", "t2", "t3"}

	for run := 0; run < 20; run++ {
		s, clock := newTestState(rng.Intn(101))
		for step := 0; step < 300; step++ {
			before := s.History().Len()
			task := tasks[rng.Intn(len(tasks))]

			switch rng.Intn(5) {
			case 0, 1:
				prevStreak := s.Streak()
				s.ApplyApproval(task, 11, "")
				assert.Equal(t, prevStreak+1, s.Streak())
			case 2:
				s.ApplyRejection(task, 11, "")
				assert.Equal(t, 0, s.Streak())
			case 3:
				_, _ = s.UndoRejection(task, 11)
			case 4:
				s.RunDecay()
				for _, i := range s.History().OfKind(EventRejection) {
					require.Less(t, clock.Now().Sub(s.History().At(i).Timestamp), FullDecayAfter)
				}
			}

			score := s.Score()
			require.GreaterOrEqual(t, score, MinScore)
			require.LessOrEqual(t, score, MaxScore)
			require.GreaterOrEqual(t, s.Streak(), 0)
			if s.History().Len() > before {
				last := s.History().At(s.History().Len() - 1)
				require.Equal(t, score, last.ResultingScore)
			}
			if s.BonusActive() {
				require.NotNil(t, s.bonus.Expiry)
				require.False(t, clock.Now().After(*s.bonus.Expiry))
			}

			clock.Advance(time.Duration(rng.Intn(72)) * time.Hour)
		}
	}
}
