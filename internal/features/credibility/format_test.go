package credibility

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatStatus(t *testing.T) {
	s, _ := newTestState(90, oldRejection(-10, 35*day))
	s.RunDecay()
	s.ApplyApproval("посуда", 11, "")

	out := FormatStatus("@masha", s.Status(5), time.UTC)
	assert.True(t, strings.HasPrefix(out, "⭐ Репутация @masha: 97/100"))
	assert.Contains(t, out, "Уровень: Excellent (×1.20)")
	assert.Contains(t, out, "Серия одобрений: 1")
	assert.Contains(t, out, "📈 До максимума: 3 очка (2 задания)")
	assert.Contains(t, out, "01.03.2026 12:00 Одобрено +2 очка [посуда] → 97")
	assert.Contains(t, out, "Прощены старые штрафы +5 очков → 95")
	assert.Contains(t, out, "(наполовину прощено)")
}

func TestFormatReview(t *testing.T) {
	s, _ := newTestState(80)
	for i := 0; i < 10; i++ {
		s.ApplyApproval("task", 11, "")
	}
	out := FormatReview("@masha", DecisionApprove, s.Status(1))
	assert.Contains(t, out, "✅ Задание одобрено. @masha: 100 (Excellent), серия 10")
	assert.Contains(t, out, "🔥 10 одобрений подряд! +5 очков")

	status := s.ApplyRejection("task", 11, "")
	out = FormatReview("@masha", DecisionReject, status)
	assert.Equal(t, "❌ Задание отклонено. @masha: 90 (Excellent), серия сброшена\n"+
		"Штраф простится наполовину через 30 дней и полностью через 60 дней", out)
}

func TestFormatConversion(t *testing.T) {
	preview := FormatConversion("@masha", Conversion{XPAmount: 1000, Minutes: 1560, Rate: 1.56, BonusActive: true})
	assert.Equal(t, "👀 Предпросмотр для @masha: 1 000 опыта → 1 560 минут (курс ×1.56, с бонусом ×1.3)", preview)

	committed := FormatConversion("@masha", Conversion{XPAmount: 0, Minutes: 0, Rate: 1.2, Committed: true})
	assert.Contains(t, committed, "Нечего зачислять")
}
