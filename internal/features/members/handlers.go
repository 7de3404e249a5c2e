// Package members - handlers.go обрабатывает Telegram-события и команды реестра:
// вступление в чат, !ребенок @username (регистрация), !дети (список).
package members

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
)

// Handler обрабатывает события и команды участников.
type Handler struct {
	service *Service
	bot     *telego.Bot
}

// NewHandler создаёт новый обработчик.
func NewHandler(service *Service, bot *telego.Bot) *Handler {
	return &Handler{service: service, bot: bot}
}

// HandleNewChatMembers регистрирует каждого нового участника чата.
func (h *Handler) HandleNewChatMembers(ctx context.Context, newMembers []telego.User) {
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		err := h.service.HandleNewMember(ctx, user.ID, user.Username, user.FirstName, user.LastName)
		if err != nil {
			log.WithError(err).WithField("user_id", user.ID).Error("Ошибка регистрации нового участника")
		}
	}
}

// HandleRegisterChild обрабатывает !ребенок @username - только для родителей.
func (h *Handler) HandleRegisterChild(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Формат: !ребенок @username")
		return
	}
	ref, ok := ParseChildRef(args[0])
	if !ok {
		h.sendMessage(ctx, chatID, "❌ Укажите @username или id ребёнка")
		return
	}

	child, err := h.service.RegisterChild(ctx, userID, ref)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotGuardian):
			h.sendMessage(ctx, chatID, "⛔ "+common.ErrNotGuardian.Error())
		case errors.Is(err, ErrMemberNotFound):
			h.sendMessage(ctx, chatID, "❌ Пользователь не найден. Пусть сначала напишет в чат.")
		case errors.Is(err, ErrGuardianAsChild):
			h.sendMessage(ctx, chatID, "❌ "+ErrGuardianAsChild.Error())
		default:
			log.WithError(err).Error("Ошибка регистрации ребёнка")
			h.sendMessage(ctx, chatID, "❌ Не удалось зарегистрировать ребёнка")
		}
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ %s теперь в списке детей. Стартовая репутация: 100", child.DisplayName()))
}

// HandleChildren обрабатывает !дети - список детей семьи.
func (h *Handler) HandleChildren(ctx context.Context, chatID int64) {
	children, err := h.service.ListChildren(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка детей")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения списка детей")
		return
	}
	h.sendMessage(ctx, chatID, FormatChildren(children))
}

// FormatChildren собирает список детей для ответа.
func FormatChildren(children []*Member) string {
	if len(children) == 0 {
		return "👶 Детей пока нет. Родитель может добавить: !ребенок @username"
	}
	var sb strings.Builder
	sb.WriteString("👶 Дети:\n")
	for i, c := range children {
		sb.WriteString(fmt.Sprintf("%d. %s (id %d)\n", i+1, c.DisplayName(), c.UserID))
	}
	return sb.String()
}

func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
