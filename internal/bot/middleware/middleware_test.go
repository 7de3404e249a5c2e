package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/credibility-bot/internal/common"
)

func TestRateLimiter_SlidingWindow(t *testing.T) {
	clock := &common.FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(2, time.Minute, clock)
	defer rl.Close()

	assert.True(t, rl.Allow(1))
	clock.Advance(10 * time.Second)
	assert.True(t, rl.Allow(1))
	assert.False(t, rl.Allow(1))
	assert.True(t, rl.Allow(2), "лимит считается на пользователя")

	clock.Advance(51 * time.Second)
	assert.True(t, rl.Allow(1), "первая отметка вышла из окна")
	assert.False(t, rl.Allow(1))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	clock := &common.FixedClock{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(5, time.Minute, clock)
	defer rl.Close()

	rl.Allow(1)
	rl.Allow(2)
	assert.Equal(t, 2, rl.tracked())

	clock.Advance(2 * time.Minute)
	rl.Cleanup()
	assert.Equal(t, 0, rl.tracked())
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute, nil)
	defer rl.Close()
	for i := 0; i < 100; i++ {
		assert.True(t, rl.Allow(1))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "привет", truncate("привет", 10))
	assert.Equal(t, "при...", truncate("привет", 3))
}

func TestRecoverFromPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverFromPanic(42)
		panic("boom")
	})
}
