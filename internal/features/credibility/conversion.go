// Package credibility - conversion.go переводит опыт за задания в минуты.
//
//	минуты = round(опыт × множитель уровня × (бонус ? 1.3 : 1.0))
//
// Множители хранятся в сотых, поэтому округление «половина вверх» точное.
package credibility

// MaxConversionXP - верхняя граница опыта в одном запросе обмена.
const MaxConversionXP int64 = 1_000_000_000

// ConversionCalculator считает минуты и курс обмена.
type ConversionCalculator struct {
	Bonus RedemptionBonusController
}

// DefaultConversionCalculator возвращает калькулятор с боевыми значениями.
func DefaultConversionCalculator() ConversionCalculator {
	return ConversionCalculator{Bonus: DefaultRedemptionBonusController()}
}

// XpToMinutes переводит опыт в минуты по текущему счёту и бонусу.
// Состояние не меняется: истёкший бонус просто не учитывается.
func (c ConversionCalculator) XpToMinutes(xp int64, s *State) int64 {
	return MinutesFor(xp, s.score, c.Bonus.MultiplierPctFor(c.Bonus.EffectiveAt(s, s.now())))
}

// GetConversionRate возвращает итоговый множитель для предпросмотра.
func (c ConversionCalculator) GetConversionRate(s *State) float64 {
	return RateFor(s.score, c.Bonus.MultiplierPctFor(c.Bonus.EffectiveAt(s, s.now())))
}

// MinutesFor - чистая формула обмена. bonusPct - множитель бонуса в сотых (100 без бонуса).
func MinutesFor(xp int64, score int, bonusPct int64) int64 {
	if xp <= 0 {
		return 0
	}
	pct := GetTier(score).MultiplierPct * bonusPct
	return (xp*pct + 5000) / 10000
}

// RateFor возвращает произведение множителей уровня и бонуса.
func RateFor(score int, bonusPct int64) float64 {
	return float64(GetTier(score).MultiplierPct*bonusPct) / 10000
}
