package admin

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/credibility"
)

func hashPassword(password string) string {
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte(password), salt, 1, 8*1024, 1, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, 8*1024, 1, 1,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

type fakeSessions struct {
	failed   int
	attempts []bool
	active   map[int64]*AdminSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{active: make(map[int64]*AdminSession)}
}

func (f *fakeSessions) CreateSession(_ context.Context, s *AdminSession) error {
	f.active[s.UserID] = s
	return nil
}

func (f *fakeSessions) GetActiveSession(_ context.Context, userID int64) (*AdminSession, error) {
	return f.active[userID], nil
}

func (f *fakeSessions) DeactivateSession(_ context.Context, userID int64) error {
	delete(f.active, userID)
	return nil
}

func (f *fakeSessions) UpdateActivity(context.Context, int64) error { return nil }

func (f *fakeSessions) LogAttempt(_ context.Context, _ int64, success bool) error {
	f.attempts = append(f.attempts, success)
	if !success {
		f.failed++
	}
	return nil
}

func (f *fakeSessions) GetRecentAttempts(context.Context, int64, time.Time) (int, error) {
	return f.failed, nil
}

type fakeCredibility struct {
	resets []int64
}

func (f *fakeCredibility) Reset(_ context.Context, childID int64) (credibility.Status, error) {
	f.resets = append(f.resets, childID)
	return credibility.Status{ChildID: childID, Score: credibility.InitialScore}, nil
}

func (f *fakeCredibility) RunDecayAll(context.Context) ([]credibility.DecayResult, error) {
	return []credibility.DecayResult{{ChildID: 5, Recovered: 5, Score: 95}}, nil
}

func newTestService() (*Service, *fakeSessions, *fakeCredibility, *common.FixedClock) {
	sessions := newFakeSessions()
	cred := &fakeCredibility{}
	clock := &common.FixedClock{T: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	return newService(sessions, cred, hashPassword("секрет"), clock), sessions, cred, clock
}

func TestVerifyArgon2id(t *testing.T) {
	hash := hashPassword("секрет")
	assert.True(t, verifyArgon2id("секрет", hash))
	assert.False(t, verifyArgon2id("другой", hash))
	assert.False(t, verifyArgon2id("секрет", "not-a-hash"))
	assert.False(t, verifyArgon2id("секрет", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA"))
}

func TestVerifyPassword_OpensSession(t *testing.T) {
	s, sessions, _, clock := newTestService()
	ctx := context.Background()

	require.NoError(t, s.VerifyPassword(ctx, 11, "секрет"))
	session := sessions.active[11]
	require.NotNil(t, session)
	assert.Equal(t, clock.Now().Add(SessionTTL), session.ExpiresAt)
	assert.NotEmpty(t, session.SessionToken)

	ok, err := s.HasActiveSession(ctx, 11)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_LockoutAfterThreeFailures(t *testing.T) {
	s, sessions, _, _ := newTestService()
	ctx := context.Background()

	for i := 0; i < MaxFailedAttempts; i++ {
		assert.ErrorIs(t, s.VerifyPassword(ctx, 11, "нет"), common.ErrWrongPassword)
	}
	assert.ErrorIs(t, s.VerifyPassword(ctx, 11, "секрет"), common.ErrTooManyAttempts)
	assert.Len(t, sessions.attempts, MaxFailedAttempts)
	assert.Empty(t, sessions.active)
}

func TestResetChild_RequiresSession(t *testing.T) {
	s, _, cred, _ := newTestService()
	ctx := context.Background()

	_, err := s.ResetChild(ctx, 11, 5)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Empty(t, cred.resets)

	require.NoError(t, s.VerifyPassword(ctx, 11, "секрет"))
	status, err := s.ResetChild(ctx, 11, 5)
	require.NoError(t, err)
	assert.Equal(t, 100, status.Score)
	assert.Equal(t, []int64{5}, cred.resets)

	require.NoError(t, s.Logout(ctx, 11))
	_, err = s.RunDecayNow(ctx, 11)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
}

func TestDialogState_Expires(t *testing.T) {
	s, _, _, clock := newTestService()

	s.SetState(11, AdminState{State: StateResetConfirm, ChildID: 5})
	state := s.GetState(11)
	require.NotNil(t, state)
	assert.Equal(t, int64(5), state.ChildID)

	clock.Advance(StateTTL + time.Second)
	assert.Nil(t, s.GetState(11))

	s.SetState(11, AdminState{State: StateAwaitingPassword})
	s.ClearState(11)
	assert.Nil(t, s.GetState(11))
}

func TestPickCandidate(t *testing.T) {
	candidates := []Candidate{{ChildID: 5, Name: "@masha"}, {ChildID: 6, Name: "Петя"}}

	c, ok := PickCandidate(candidates, " 2 ")
	require.True(t, ok)
	assert.Equal(t, int64(6), c.ChildID)

	for _, bad := range []string{"0", "3", "abc", ""} {
		_, ok := PickCandidate(candidates, bad)
		assert.False(t, ok, bad)
	}

	assert.Contains(t, FormatCandidates(candidates), "2. Петя")
}

func TestIsAdminCommand(t *testing.T) {
	assert.True(t, isAdminCommand("Админ"))
	assert.True(t, isAdminCommand(buttonReset))
	assert.False(t, isAdminCommand("!рейтинг"))
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("пароль")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))
	assert.True(t, verifyArgon2id("пароль", hash))
	assert.False(t, verifyArgon2id("другой", hash))

	_, err = HashPassword("")
	assert.True(t, common.IsValidation(err))
}
