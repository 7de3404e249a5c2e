// Package credibility - bonus.go управляет бонусом за восстановление.
// Бонус ×1.3 включается одобрением, которое подняло счёт с уровня ниже 60
// до 95 и выше, и действует 7 дней. Снимается по истечении срока или при
// отклонении, после которого счёт ниже 95.
package credibility

import "time"

// Параметры бонуса за восстановление.
const (
	RedemptionThreshold     = 95
	RedemptionRecoveryBelow = 60
	RedemptionDuration      = 7 * 24 * time.Hour
	RedemptionMultiplierPct = 130
)

// RedemptionBonusController включает, снимает и проверяет бонус.
type RedemptionBonusController struct {
	Threshold     int
	RecoveryBelow int
	Duration      time.Duration
	MultiplierPct int64
}

// DefaultRedemptionBonusController возвращает контроллер с боевыми значениями.
func DefaultRedemptionBonusController() RedemptionBonusController {
	return RedemptionBonusController{
		Threshold:     RedemptionThreshold,
		RecoveryBelow: RedemptionRecoveryBelow,
		Duration:      RedemptionDuration,
		MultiplierPct: RedemptionMultiplierPct,
	}
}

// IsActive сначала лениво снимает истёкший бонус, затем возвращает его состояние.
func (c RedemptionBonusController) IsActive(s *State, now time.Time) bool {
	if !s.bonus.Active {
		return false
	}
	if s.bonus.Expiry == nil || now.After(*s.bonus.Expiry) {
		c.expire(s, now)
		return false
	}
	return true
}

// EffectiveAt сообщает, действует ли бонус в момент now, ничего не меняя.
func (c RedemptionBonusController) EffectiveAt(s *State, now time.Time) bool {
	return s.bonus.Active && s.bonus.Expiry != nil && !now.After(*s.bonus.Expiry)
}

// MaybeActivate включает бонус, если счёт поднялся с prev < 60 до 95+.
func (c RedemptionBonusController) MaybeActivate(s *State, prev int, now time.Time) bool {
	if c.IsActive(s, now) {
		return false
	}
	if s.score < c.Threshold || prev >= c.RecoveryBelow {
		return false
	}

	expiry := now.Add(c.Duration)
	s.bonus = RedemptionBonusState{Active: true, Expiry: &expiry}
	s.record(HistoryEvent{
		Kind:      EventBonusActivated,
		Timestamp: now,
	})
	return true
}

// AfterRejection снимает бонус, если после отклонения счёт ниже порога.
// Это единственная проверка на снятие по счёту, кроме ленивого истечения.
func (c RedemptionBonusController) AfterRejection(s *State, now time.Time) {
	if c.IsActive(s, now) && s.score < c.Threshold {
		c.expire(s, now)
	}
}

// MultiplierPctFor возвращает множитель бонуса в сотых.
func (c RedemptionBonusController) MultiplierPctFor(active bool) int64 {
	if active {
		return c.MultiplierPct
	}
	return 100
}

func (c RedemptionBonusController) expire(s *State, now time.Time) {
	s.bonus = RedemptionBonusState{}
	s.record(HistoryEvent{
		Kind:      EventBonusExpired,
		Timestamp: now,
	})
}
