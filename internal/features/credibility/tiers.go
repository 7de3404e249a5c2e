// Package credibility - tiers.go содержит таблицу уровней репутации.
// Пять уровней покрывают 0..100 без пропусков и пересечений.
package credibility

import (
	"fmt"

	"serotonyl.ru/credibility-bot/internal/common"
)

// Tier - уровень репутации. Множитель хранится в сотых, чтобы расчёт минут был целочисленным.
type Tier struct {
	Name          string
	Min           int // Включительно
	Max           int // Включительно
	MultiplierPct int64
	Color         string
	Description   string
}

// Multiplier возвращает множитель обмена в виде дроби.
func (t Tier) Multiplier() float64 {
	return float64(t.MultiplierPct) / 100
}

// Contains проверяет, попадает ли счёт в диапазон уровня.
func (t Tier) Contains(score int) bool {
	return score >= t.Min && score <= t.Max
}

// Info возвращает представление уровня для статуса.
func (t Tier) Info() TierInfo {
	return TierInfo{
		Name:        t.Name,
		Multiplier:  t.Multiplier(),
		Color:       t.Color,
		Description: t.Description,
	}
}

// Tiers - таблица уровней по убыванию счёта.
var Tiers = []Tier{
	{Name: "Excellent", Min: 90, Max: 100, MultiplierPct: 120, Color: "#2E7D32", Description: "Отличная репутация: повышенный курс обмена"},
	{Name: "Good", Min: 75, Max: 89, MultiplierPct: 100, Color: "#7CB342", Description: "Хорошая репутация: обычный курс обмена"},
	{Name: "Fair", Min: 60, Max: 74, MultiplierPct: 80, Color: "#FBC02D", Description: "Средняя репутация: курс немного снижен"},
	{Name: "Poor", Min: 40, Max: 59, MultiplierPct: 50, Color: "#F57C00", Description: "Низкая репутация: курс вдвое ниже"},
	{Name: "Very Poor", Min: 0, Max: 39, MultiplierPct: 30, Color: "#C62828", Description: "Очень низкая репутация: минимальный курс"},
}

// GetTier возвращает уровень для счёта. Таблица полная, поэтому уровень есть всегда;
// счёт за пределами 0..100 прижимается к границе.
func GetTier(score int) Tier {
	score = clampScore(score)
	for _, t := range Tiers {
		if t.Contains(score) {
			return t
		}
	}
	return Tiers[len(Tiers)-1]
}

// RecoveryPath - сколько очков и одобренных заданий нужно до следующего уровня.
type RecoveryPath struct {
	Target       Tier
	PointsNeeded int
	TasksNeeded  int
}

// RecoveryPathFor ищет уровень с наименьшей нижней границей строго выше счёта.
// На высшем уровне целью становится максимальный счёт. При счёте 100 пути нет.
func RecoveryPathFor(score int) (RecoveryPath, bool) {
	score = clampScore(score)
	if score >= MaxScore {
		return RecoveryPath{}, false
	}

	var (
		next  Tier
		found bool
	)
	for _, t := range Tiers {
		if t.Min > score && (!found || t.Min < next.Min) {
			next, found = t, true
		}
	}

	target := MaxScore
	if found {
		target = next.Min
	} else {
		next = GetTier(score)
	}

	points := target - score
	return RecoveryPath{
		Target:       next,
		PointsNeeded: points,
		TasksNeeded:  (points + ApprovalBonus - 1) / ApprovalBonus,
	}, true
}

// RecoveryPathText возвращает путь восстановления строкой для интерфейса.
// Пустая строка - дальше расти некуда.
func RecoveryPathText(score int) string {
	path, ok := RecoveryPathFor(score)
	if !ok {
		return ""
	}
	if path.Target.Min <= clampScore(score) {
		return fmt.Sprintf("До максимума: %d %s (%d %s)",
			path.PointsNeeded, common.PluralizePoints(path.PointsNeeded),
			path.TasksNeeded, common.PluralizeTasks(path.TasksNeeded))
	}
	return fmt.Sprintf("До уровня %s: %d %s (%d %s)",
		path.Target.Name,
		path.PointsNeeded, common.PluralizePoints(path.PointsNeeded),
		path.TasksNeeded, common.PluralizeTasks(path.TasksNeeded))
}

func clampScore(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
