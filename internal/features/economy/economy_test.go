package economy

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/credibility-bot/internal/common"
)

func TestFormatTransactions_Empty(t *testing.T) {
	assert.Equal(t, "📋 Транзакций пока нет", FormatTransactions(nil, 1, time.UTC))
}

func TestFormatTransactions_SignsAndSpoiler(t *testing.T) {
	child := int64(7)
	ts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	var txs []*Transaction
	for i := 0; i < 7; i++ {
		tx := &Transaction{Amount: 30, Description: "Обмен", CreatedAt: ts}
		if i%2 == 0 {
			tx.ToUserID = &child
		} else {
			tx.FromUserID = &child
		}
		txs = append(txs, tx)
	}

	out := FormatTransactions(txs, child, time.UTC)
	assert.True(t, strings.HasPrefix(out, "📋 Последние 7 транзакций:"))
	assert.Contains(t, out, `1\. 02\.03\.2026 10:00 \| \+30 минут \| Обмен`)
	assert.Contains(t, out, `2\. 02\.03\.2026 10:00 \| \-30 минут \| Обмен`)
	assert.True(t, strings.HasSuffix(out, "||"))
	assert.Equal(t, 2, strings.Count(out, "||"))
}

func TestService_RejectsNonPositiveAmounts(t *testing.T) {
	s := NewService(nil, time.UTC)
	ctx := context.Background()

	assert.ErrorIs(t, s.AddMinutes(ctx, 1, 0, TxTypeGuardianGift, ""), common.ErrInvalidAmount)
	assert.ErrorIs(t, s.SpendMinutes(ctx, 1, -5, TxTypeScreenTime, ""), common.ErrInvalidAmount)
}
