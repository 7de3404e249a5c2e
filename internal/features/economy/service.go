// Package economy - service.go содержит бизнес-логику кошелька:
// валидацию сумм, начисление, списание и историю транзакций.
package economy

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
)

// Service управляет кошельками экранного времени.
type Service struct {
	repo *Repository
	loc  *time.Location // Часовой пояс для истории
}

// NewService создаёт новый сервис кошелька.
func NewService(repo *Repository, loc *time.Location) *Service {
	return &Service{repo: repo, loc: loc}
}

// GetBalance возвращает доступные минуты ребёнка.
func (s *Service) GetBalance(ctx context.Context, childID int64) (int64, error) {
	return s.repo.GetBalance(ctx, childID)
}

// GetStats возвращает кошелёк целиком.
func (s *Service) GetStats(ctx context.Context, childID int64) (*Balance, error) {
	return s.repo.GetTotalStats(ctx, childID)
}

// AddMinutes начисляет минуты. Через этот метод репутация зачисляет обмен опыта.
func (s *Service) AddMinutes(ctx context.Context, childID, minutes int64, txType, description string) error {
	if minutes <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.AddBalance(ctx, childID, minutes, txType, description); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"child_id": childID,
		"minutes":  minutes,
		"type":     txType,
	}).Info("Минуты начислены")
	return nil
}

// SpendMinutes списывает минуты: ребёнок посмотрел мультики или поиграл.
func (s *Service) SpendMinutes(ctx context.Context, childID, minutes int64, txType, description string) error {
	if minutes <= 0 {
		return common.ErrInvalidAmount
	}
	if err := s.repo.DeductBalance(ctx, childID, minutes, txType, description); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"child_id": childID,
		"minutes":  minutes,
		"type":     txType,
	}).Info("Минуты списаны")
	return nil
}

// CreateBalance создаёт пустой кошелёк для нового ребёнка.
func (s *Service) CreateBalance(ctx context.Context, childID int64) error {
	return s.repo.CreateBalance(ctx, childID)
}

// GetTransactionHistory возвращает отформатированную историю последних транзакций.
func (s *Service) GetTransactionHistory(ctx context.Context, childID int64) (string, error) {
	transactions, err := s.repo.GetTransactions(ctx, childID, HistoryLimit)
	if err != nil {
		return "", err
	}
	return FormatTransactions(transactions, childID, s.loc), nil
}

// FormatTransactions собирает историю в MarkdownV2. Если строк больше 5,
// остальные прячутся под спойлер ||…||.
func FormatTransactions(transactions []*Transaction, childID int64, loc *time.Location) string {
	if len(transactions) == 0 {
		return "📋 Транзакций пока нет"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 Последние %d транзакций:\n\n", len(transactions)))

	lines := make([]string, 0, len(transactions))
	for i, tx := range transactions {
		sign := "+"
		if tx.FromUserID != nil && *tx.FromUserID == childID {
			sign = "-"
		}
		lines = append(lines, common.EscapeMarkdownV2(fmt.Sprintf("%d. %s | %s%s | %s",
			i+1,
			common.FormatDateTime(tx.CreatedAt, loc),
			sign,
			common.FormatMinutes(tx.Amount),
			tx.Description,
		)))
	}

	if len(lines) > 5 {
		for _, line := range lines[:5] {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n||")
		for _, line := range lines[5:] {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("||")
	} else {
		for _, line := range lines {
			sb.WriteString(line + "\n")
		}
	}

	return sb.String()
}
