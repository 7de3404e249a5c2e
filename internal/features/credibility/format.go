package credibility

import (
	"fmt"
	"strings"
	"time"

	"serotonyl.ru/credibility-bot/internal/common"
)

var eventLabels = map[EventKind]string{
	EventApproval:        "Одобрено",
	EventRejection:       "Отклонено",
	EventRejectionUndone: "Отклонение отменено",
	EventStreakBonus:     "Бонус за серию",
	EventDecayRecovery:   "Прощены старые штрафы",
	EventBonusActivated:  "Включён бонус ×1.3",
	EventBonusExpired:    "Бонус ×1.3 закончился",
}

const day = 24 * time.Hour

// FormatReview - ответ на одобрение или отклонение.
func FormatReview(name string, decision Decision, status Status) string {
	var sb strings.Builder
	if decision == DecisionApprove {
		sb.WriteString(fmt.Sprintf("✅ Задание одобрено. %s: %d (%s), серия %d",
			name, status.Score, status.Tier.Name, status.Streak))
	} else {
		sb.WriteString(fmt.Sprintf("❌ Задание отклонено. %s: %d (%s), серия сброшена",
			name, status.Score, status.Tier.Name))
		half, full := int(HalfDecayAfter/day), int(FullDecayAfter/day)
		sb.WriteString(fmt.Sprintf("\nШтраф простится наполовину через %d %s и полностью через %d %s",
			half, common.PluralizeDays(half), full, common.PluralizeDays(full)))
	}
	if len(status.RecentHistory) > 0 && status.RecentHistory[0].Kind == EventStreakBonus {
		sb.WriteString(fmt.Sprintf("\n🔥 %d одобрений подряд! %s",
			status.Streak, common.FormatPointsDelta(status.RecentHistory[0].Amount)))
	}
	if status.BonusActive {
		sb.WriteString("\n🚀 Действует бонус за восстановление ×1.3")
	}
	return sb.String()
}

// FormatStatus - сводка репутации для !рейтинг.
func FormatStatus(name string, status Status, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⭐ Репутация %s: %d/%d\n", name, status.Score, MaxScore))
	sb.WriteString(fmt.Sprintf("Уровень: %s (×%.2f). %s\n", status.Tier.Name, status.Tier.Multiplier, status.Tier.Description))
	sb.WriteString(fmt.Sprintf("Серия одобрений: %d\n", status.Streak))
	sb.WriteString(fmt.Sprintf("Курс обмена: ×%.2f\n", status.ConversionRate))
	if status.BonusActive && status.BonusExpiry != nil {
		sb.WriteString(fmt.Sprintf("🚀 Бонус ×1.3 до %s\n", common.FormatDateTime(*status.BonusExpiry, loc)))
	}
	if status.RecoveryPath != "" {
		sb.WriteString("📈 " + status.RecoveryPath + "\n")
	}

	if len(status.RecentHistory) > 0 {
		sb.WriteString("\nПоследние события:\n")
		for _, ev := range status.RecentHistory {
			sb.WriteString("• " + formatEvent(ev, loc) + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEvent(ev HistoryEvent, loc *time.Location) string {
	label, ok := eventLabels[ev.Kind]
	if !ok {
		label = string(ev.Kind)
	}
	line := fmt.Sprintf("%s %s", common.FormatDateTime(ev.Timestamp, loc), label)
	if ev.Amount != 0 {
		line += " " + common.FormatPointsDelta(ev.Amount)
	}
	if ev.TaskID != "" {
		line += fmt.Sprintf(" [%s]", ev.TaskID)
	}
	if ev.Decayed {
		line += " (наполовину прощено)"
	}
	return line + fmt.Sprintf(" → %d", ev.ResultingScore)
}

// FormatConversion - ответ на предпросмотр или обмен опыта.
func FormatConversion(name string, conv Conversion) string {
	var sb strings.Builder
	if conv.Committed {
		sb.WriteString("💱 Обмен для ")
	} else {
		sb.WriteString("👀 Предпросмотр для ")
	}
	sb.WriteString(fmt.Sprintf("%s: %s опыта → %s (курс ×%.2f",
		name, common.FormatNumber(conv.XPAmount), common.FormatMinutes(conv.Minutes), conv.Rate))
	if conv.BonusActive {
		sb.WriteString(", с бонусом ×1.3")
	}
	sb.WriteString(")")
	if conv.Committed {
		if conv.Minutes > 0 {
			sb.WriteString("\n✅ Минуты зачислены")
		} else {
			sb.WriteString("\nНечего зачислять")
		}
	}
	return sb.String()
}
