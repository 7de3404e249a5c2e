// Package credibility - handlers.go обрабатывает команды репутации:
// !одобрить, !отклонить, !отменить (родитель), !рейтинг, !предпросмотр, !обмен.
package credibility

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/members"
)

// Handler обрабатывает команды репутации.
type Handler struct {
	service       *Service
	memberService *members.Service
	bot           *telego.Bot
	loc           *time.Location
}

// NewHandler создаёт обработчик команд репутации.
func NewHandler(service *Service, memberService *members.Service, bot *telego.Bot, loc *time.Location) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		bot:           bot,
		loc:           loc,
	}
}

// HandleReview обрабатывает !одобрить / !отклонить @ребёнок задание [комментарий].
func (h *Handler) HandleReview(ctx context.Context, chatID, userID int64, decision Decision, args []string) {
	if !h.memberService.IsGuardian(userID) {
		h.sendMessage(ctx, chatID, "⛔ "+common.ErrNotGuardian.Error())
		return
	}
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !одобрить @ребёнок задание [комментарий]")
		return
	}

	child, err := h.memberService.ResolveChild(ctx, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	status, err := h.service.Review(ctx, ReviewDecision{
		TaskID:     args[1],
		ChildID:    child.UserID,
		ReviewerID: userID,
		Decision:   decision,
		Notes:      strings.Join(args[2:], " "),
	})
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	h.sendMessage(ctx, chatID, FormatReview(child.DisplayName(), decision, status))
}

// HandleUndo обрабатывает !отменить @ребёнок задание.
func (h *Handler) HandleUndo(ctx context.Context, chatID, userID int64, args []string) {
	if !h.memberService.IsGuardian(userID) {
		h.sendMessage(ctx, chatID, "⛔ "+common.ErrNotGuardian.Error())
		return
	}
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !отменить @ребёнок задание")
		return
	}

	child, err := h.memberService.ResolveChild(ctx, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	status, err := h.service.Undo(ctx, UndoDecision{TaskID: args[1], ChildID: child.UserID, ReviewerID: userID})
	if err != nil {
		if errors.Is(err, common.ErrRejectionNotFound) {
			h.sendMessage(ctx, chatID, fmt.Sprintf("🤷 У %s нет отклонений задания «%s» от вас, отменять нечего",
				child.DisplayName(), args[1]))
			return
		}
		h.replyError(ctx, chatID, err)
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("↩️ Отклонение отменено. %s: %d (%s)",
		child.DisplayName(), status.Score, status.Tier.Name))
}

// HandleStatus обрабатывает !рейтинг [@ребёнок].
func (h *Handler) HandleStatus(ctx context.Context, chatID, userID int64, args []string) {
	child, _, ok := h.resolveTarget(ctx, chatID, userID, args, 0)
	if !ok {
		return
	}

	status, err := h.service.Status(ctx, child.UserID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, FormatStatus(child.DisplayName(), status, h.loc))
}

// HandlePreview обрабатывает !предпросмотр [@ребёнок] опыт.
func (h *Handler) HandlePreview(ctx context.Context, chatID, userID int64, args []string) {
	child, rest, ok := h.resolveTarget(ctx, chatID, userID, args, 1)
	if !ok {
		return
	}
	xp, ok := h.parseXP(ctx, chatID, rest)
	if !ok {
		return
	}

	conv, err := h.service.PreviewConversion(ctx, ConversionPreviewRequest{ChildID: child.UserID, XPAmount: xp})
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, FormatConversion(child.DisplayName(), conv))
}

// HandleCommit обрабатывает !обмен @ребёнок опыт - только родитель.
func (h *Handler) HandleCommit(ctx context.Context, chatID, userID int64, args []string) {
	if !h.memberService.IsGuardian(userID) {
		h.sendMessage(ctx, chatID, "⛔ "+common.ErrNotGuardian.Error())
		return
	}
	if len(args) < 2 {
		h.sendMessage(ctx, chatID, "❌ Формат: !обмен @ребёнок опыт")
		return
	}
	child, err := h.memberService.ResolveChild(ctx, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	xp, ok := h.parseXP(ctx, chatID, args[1:])
	if !ok {
		return
	}

	conv, err := h.service.CommitConversion(ctx, ConversionCommitRequest{ChildID: child.UserID, XPAmount: xp})
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendMessage(ctx, chatID, FormatConversion(child.DisplayName(), conv))
}

// resolveTarget: родитель указывает ребёнка первым аргументом, ребёнок - себя.
// want - сколько аргументов ожидается после ребёнка.
func (h *Handler) resolveTarget(ctx context.Context, chatID, userID int64, args []string, want int) (*members.Member, []string, bool) {
	if h.memberService.IsGuardian(userID) {
		if len(args) <= want {
			h.sendMessage(ctx, chatID, "❌ Укажите ребёнка: @username")
			return nil, nil, false
		}
		child, err := h.memberService.ResolveChild(ctx, args[0])
		if err != nil {
			h.replyError(ctx, chatID, err)
			return nil, nil, false
		}
		return child, args[1:], true
	}

	self, err := h.memberService.GetByUserID(ctx, userID)
	if err != nil || !self.IsChild() {
		h.replyError(ctx, chatID, common.ErrUnknownChild)
		return nil, nil, false
	}
	return self, args, true
}

func (h *Handler) parseXP(ctx context.Context, chatID int64, args []string) (int64, bool) {
	if len(args) < 1 {
		h.sendMessage(ctx, chatID, "❌ Укажите количество опыта")
		return 0, false
	}
	xp, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.sendMessage(ctx, chatID, "❌ Опыт должен быть целым числом")
		return 0, false
	}
	return xp, true
}

func (h *Handler) replyError(ctx context.Context, chatID int64, err error) {
	switch {
	case errors.Is(err, common.ErrUnknownChild):
		h.sendMessage(ctx, chatID, "❌ Ребёнок не найден. Родитель может добавить: !ребенок @username")
	case common.IsValidation(err):
		h.sendMessage(ctx, chatID, "❌ "+err.Error())
	case errors.Is(err, ErrPersistFailed), errors.Is(err, ErrLoadFailed):
		log.WithError(err).Error("Ошибка хранилища репутации")
		h.sendMessage(ctx, chatID, "⚠️ Не удалось сохранить изменения, попробуйте ещё раз")
	default:
		log.WithError(err).Error("Ошибка операции с репутацией")
		h.sendMessage(ctx, chatID, "❌ Ошибка операции с репутацией")
	}
}

// sendMessage - вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
