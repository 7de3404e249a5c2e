package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/credibility-bot/internal/features/credibility"
)

type fakeJobs struct {
	decay    []credibility.DecayResult
	decayErr error
	expired  []int64
}

func (f *fakeJobs) RunDecayAll(context.Context) ([]credibility.DecayResult, error) {
	return f.decay, f.decayErr
}

func (f *fakeJobs) ExpireBonuses(context.Context) ([]int64, error) {
	return f.expired, nil
}

type fakeNames struct{}

func (fakeNames) DisplayName(_ context.Context, id int64) string {
	return fmt.Sprintf("@child%d", id)
}

type sent struct {
	chatID int64
	text   string
}

func newTestScheduler(jobs *fakeJobs, opts Options) (*Scheduler, *[]sent) {
	var out []sent
	s := NewScheduler(jobs, fakeNames{}, opts, func(chatID int64, text string) {
		out = append(out, sent{chatID, text})
	})
	return s, &out
}

func TestRunDecay_NotifiesFamilyChat(t *testing.T) {
	jobs := &fakeJobs{
		decay:    []credibility.DecayResult{{ChildID: 1, Recovered: 5, Score: 95}},
		decayErr: errors.New("child_id=2: boom"),
	}
	s, out := newTestScheduler(jobs, Options{NotifyChatID: -100})

	s.RunDecay(context.Background())

	require.Len(t, *out, 1)
	assert.Equal(t, int64(-100), (*out)[0].chatID)
	assert.Contains(t, (*out)[0].text, "@child1: +5 очков, репутация 95")
}

func TestRunDecay_SilentWhenNothingRecovered(t *testing.T) {
	s, out := newTestScheduler(&fakeJobs{}, Options{NotifyChatID: -100})
	s.RunDecay(context.Background())
	assert.Empty(t, *out)
}

func TestSweepBonuses(t *testing.T) {
	s, out := newTestScheduler(&fakeJobs{expired: []int64{3}}, Options{NotifyChatID: -100})
	s.SweepBonuses(context.Background())

	require.Len(t, *out, 1)
	assert.Equal(t, "⌛ Бонус ×1.3 для @child3 закончился", (*out)[0].text)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	s, _ := newTestScheduler(&fakeJobs{}, Options{
		DecaySchedule:      "not a cron",
		BonusSweepSchedule: "0 * * * *",
		DecayEnabled:       true,
	})
	assert.Error(t, s.Start(context.Background()))
}

func TestStart_DecayDisabled(t *testing.T) {
	s, _ := newTestScheduler(&fakeJobs{}, Options{
		DecaySchedule:      "not a cron",
		BonusSweepSchedule: "0 * * * *",
	})
	require.NoError(t, s.Start(context.Background()))
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
