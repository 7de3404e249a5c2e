// Package economy - handlers.go обрабатывает команды кошелька:
// !минуты (баланс), !списать / !добавить (родитель), !транзакции (история).
package economy

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/members"
)

// Handler обрабатывает команды кошелька.
type Handler struct {
	service       *Service
	memberService *members.Service // Поиск ребёнка по @username
	bot           *telego.Bot
}

// NewHandler создаёт новый обработчик команд кошелька.
func NewHandler(service *Service, memberService *members.Service, bot *telego.Bot) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		bot:           bot,
	}
}

// HandleBalance обрабатывает !минуты [@ребёнок].
// Ребёнок видит свой кошелёк, родитель - кошелёк указанного ребёнка.
//
//	⏱ @masha: 150 минут
//	Всего получено: 400 минут, потрачено: 250 минут
func (h *Handler) HandleBalance(ctx context.Context, chatID, userID int64, args []string) {
	child, ok := h.resolveTarget(ctx, chatID, userID, args)
	if !ok {
		return
	}

	stats, err := h.service.GetStats(ctx, child.UserID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения баланса")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения баланса")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("⏱ %s: %s\nВсего получено: %s, потрачено: %s",
		child.DisplayName(),
		common.FormatMinutes(stats.Balance),
		common.FormatMinutes(stats.TotalEarned),
		common.FormatMinutes(stats.TotalSpent),
	))
}

// HandleSpend обрабатывает !списать @ребёнок 30 - родитель отмечает потраченные минуты.
func (h *Handler) HandleSpend(ctx context.Context, chatID, userID int64, args []string) {
	h.handleGuardianChange(ctx, chatID, userID, args, "!списать", func(child *members.Member, minutes int64) error {
		return h.service.SpendMinutes(ctx, child.UserID, minutes, TxTypeScreenTime,
			fmt.Sprintf("Экранное время: %s", common.FormatMinutes(minutes)))
	})
}

// HandleGift обрабатывает !добавить @ребёнок 30 - подарок от родителя.
func (h *Handler) HandleGift(ctx context.Context, chatID, userID int64, args []string) {
	h.handleGuardianChange(ctx, chatID, userID, args, "!добавить", func(child *members.Member, minutes int64) error {
		return h.service.AddMinutes(ctx, child.UserID, minutes, TxTypeGuardianGift, "Подарок от родителя")
	})
}

func (h *Handler) handleGuardianChange(
	ctx context.Context, chatID, userID int64, args []string, command string,
	apply func(child *members.Member, minutes int64) error,
) {
	if !h.memberService.IsGuardian(userID) {
		h.sendMessage(ctx, chatID, "⛔ "+common.ErrNotGuardian.Error())
		return
	}
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, fmt.Sprintf("❌ Формат: %s @ребёнок минуты", command))
		return
	}

	minutes, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || minutes <= 0 {
		h.sendMessage(ctx, chatID, "❌ Количество минут должно быть положительным числом")
		return
	}

	child, err := h.memberService.ResolveChild(ctx, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	if err := apply(child, minutes); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	balance, _ := h.service.GetBalance(ctx, child.UserID)
	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Готово. У %s теперь %s",
		child.DisplayName(), common.FormatMinutes(balance)))
}

// HandleTransactions обрабатывает !транзакции [@ребёнок].
func (h *Handler) HandleTransactions(ctx context.Context, chatID, userID int64, args []string) {
	child, ok := h.resolveTarget(ctx, chatID, userID, args)
	if !ok {
		return
	}

	history, err := h.service.GetTransactionHistory(ctx, child.UserID)
	if err != nil {
		log.WithError(err).Error("Ошибка получения транзакций")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения истории транзакций")
		return
	}

	msg := tu.Message(tu.ID(chatID), history).WithParseMode(telego.ModeMarkdownV2)
	if _, err := h.bot.SendMessage(ctx, msg); err != nil {
		log.WithError(err).Warn("MarkdownV2 не отправился, шлём без форматирования")
		h.sendMessage(ctx, chatID, history)
	}
}

// resolveTarget: родитель указывает ребёнка аргументом, ребёнок смотрит себя.
func (h *Handler) resolveTarget(ctx context.Context, chatID, userID int64, args []string) (*members.Member, bool) {
	var (
		child *members.Member
		err   error
	)
	if len(args) > 0 && h.memberService.IsGuardian(userID) {
		child, err = h.memberService.ResolveChild(ctx, args[0])
	} else {
		child, err = h.memberService.GetByUserID(ctx, userID)
		if err == nil && !child.IsChild() {
			err = common.ErrUnknownChild
		}
		if errors.Is(err, members.ErrMemberNotFound) {
			err = common.ErrUnknownChild
		}
	}
	if err != nil {
		h.replyError(ctx, chatID, err)
		return nil, false
	}
	return child, true
}

func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrUnknownChild):
		h.sendMessage(ctx, chatID, "❌ Ребёнок не найден. Родитель может добавить: !ребенок @username")
	case errors.Is(err, common.ErrInsufficientBalance):
		h.sendMessage(ctx, chatID, "❌ "+common.ErrInsufficientBalance.Error())
	case errors.Is(err, common.ErrInvalidAmount):
		h.sendMessage(ctx, chatID, "❌ "+common.ErrInvalidAmount.Error())
	default:
		log.WithError(err).Error("Ошибка операции с кошельком")
		h.sendMessage(ctx, chatID, "❌ Ошибка операции с кошельком")
	}
}

// sendMessage - вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
