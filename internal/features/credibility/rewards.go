// Package credibility - rewards.go содержит бонусы за одобрения.
//
//	Каждое одобрение:            +2 очка
//	Каждое 10-е подряд:          ещё +5 очков
package credibility

// ApprovalBonus - очки за одобренное задание.
const ApprovalBonus = 2

// Параметры бонуса за серию.
const (
	StreakMilestone = 10
	StreakBonus     = 5
)

// StreakBonusController выдаёт бонус на каждой отметке серии.
type StreakBonusController struct {
	Every int
	Bonus int
}

// DefaultStreakBonusController возвращает контроллер с боевыми значениями.
func DefaultStreakBonusController() StreakBonusController {
	return StreakBonusController{Every: StreakMilestone, Bonus: StreakBonus}
}

// Check возвращает бонус, если серия достигла очередной отметки.
// Параметр streak - серия ПОСЛЕ увеличения.
func (c StreakBonusController) Check(streak int) (int, bool) {
	if c.Every <= 0 || streak <= 0 || streak%c.Every != 0 {
		return 0, false
	}
	return c.Bonus, true
}
