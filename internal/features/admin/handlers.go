// Package admin - handlers.go обрабатывает взаимодействие с админ-панелью.
// Панель работает через Reply Keyboard в личных сообщениях и доступна только родителям.
// Поток: аутентификация → клавиатура → выбор действия → пошаговый диалог.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/members"
)

// Кнопки клавиатуры.
const (
	buttonReset  = "Сбросить репутацию"
	buttonDecay  = "Запустить затухание"
	buttonLogout = "Выйти"
)

// Handler обрабатывает админ-команды.
type Handler struct {
	service       *Service
	memberService *members.Service
	bot           *telego.Bot
}

// NewHandler создаёт обработчик админ-панели.
func NewHandler(service *Service, memberService *members.Service, bot *telego.Bot) *Handler {
	return &Handler{
		service:       service,
		memberService: memberService,
		bot:           bot,
	}
}

// HandleAdminMessage обрабатывает сообщение родителя в DM.
// Возвращает true, если сообщение относилось к админке.
func (h *Handler) HandleAdminMessage(ctx context.Context, chatID, userID int64, text string) bool {
	if !h.memberService.IsGuardian(userID) {
		return false
	}
	text = strings.TrimSpace(text)

	if password, ok := strings.CutPrefix(text, "/login"); ok {
		h.handlePasswordInput(ctx, chatID, userID, strings.TrimSpace(password))
		return true
	}

	state := h.service.GetState(userID)
	if state != nil && state.State == StateAwaitingPassword {
		h.handlePasswordInput(ctx, chatID, userID, text)
		return true
	}

	isPanelCommand := isAdminCommand(text)
	if state == nil && !isPanelCommand {
		return false
	}

	active, err := h.service.HasActiveSession(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки сессии")
		h.sendMessage(ctx, chatID, "❌ Ошибка проверки сессии")
		return true
	}
	if !active {
		h.sendMessage(ctx, chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, AdminState{State: StateAwaitingPassword})
		return true
	}

	if state != nil {
		switch state.State {
		case StateResetSelect:
			h.handleResetSelect(ctx, chatID, userID, state, text)
			return true
		case StateResetConfirm:
			h.handleResetConfirm(ctx, chatID, userID, state, text)
			return true
		}
	}

	switch text {
	case buttonReset:
		h.startReset(ctx, chatID, userID)
	case buttonDecay:
		h.runDecay(ctx, chatID, userID)
	case buttonLogout:
		if err := h.service.Logout(ctx, userID); err != nil {
			log.WithError(err).Error("Ошибка выхода из админки")
		}
		h.sendMessage(ctx, chatID, "👋 Сессия завершена")
	default:
		h.showKeyboard(ctx, chatID)
	}
	return true
}

func isAdminCommand(text string) bool {
	switch strings.ToLower(text) {
	case "админ", "панель", strings.ToLower(buttonReset), strings.ToLower(buttonDecay), strings.ToLower(buttonLogout):
		return true
	}
	return false
}

// handlePasswordInput обрабатывает ввод пароля.
func (h *Handler) handlePasswordInput(ctx context.Context, chatID, userID int64, password string) {
	h.service.ClearState(userID)
	if password == "" {
		h.sendMessage(ctx, chatID, "🔐 Введите пароль для доступа к админ-панели:")
		h.service.SetState(userID, AdminState{State: StateAwaitingPassword})
		return
	}

	if err := h.service.VerifyPassword(ctx, userID, password); err != nil {
		switch {
		case errors.Is(err, common.ErrWrongPassword), errors.Is(err, common.ErrTooManyAttempts):
			h.sendMessage(ctx, chatID, "❌ "+err.Error())
		default:
			log.WithError(err).Error("Ошибка входа в админку")
			h.sendMessage(ctx, chatID, "❌ Ошибка входа")
		}
		return
	}

	h.sendMessage(ctx, chatID, "✅ Аутентификация успешна!")
	h.showKeyboard(ctx, chatID)
}

// showKeyboard отображает клавиатуру админ-панели.
func (h *Handler) showKeyboard(ctx context.Context, chatID int64) {
	keyboard := tu.Keyboard(
		tu.KeyboardRow(tu.KeyboardButton(buttonReset), tu.KeyboardButton(buttonDecay)),
		tu.KeyboardRow(tu.KeyboardButton(buttonLogout)),
	).WithResizeKeyboard()

	msg := tu.Message(tu.ID(chatID), "✅ Админ-панель открыта").WithReplyMarkup(keyboard)
	if _, err := h.bot.SendMessage(ctx, msg); err != nil {
		log.WithError(err).Error("Ошибка отправки клавиатуры")
	}
}

// --- Сброс репутации (3 шага) ---

// startReset - Шаг 1: показать детей.
func (h *Handler) startReset(ctx context.Context, chatID, userID int64) {
	children, err := h.memberService.ListChildren(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка получения списка детей")
		h.sendMessage(ctx, chatID, "❌ Ошибка получения списка детей")
		return
	}
	if len(children) == 0 {
		h.sendMessage(ctx, chatID, "👶 Детей пока нет")
		return
	}

	candidates := make([]Candidate, 0, len(children))
	for _, c := range children {
		candidates = append(candidates, Candidate{ChildID: c.UserID, Name: c.DisplayName()})
	}
	h.service.SetState(userID, AdminState{State: StateResetSelect, Candidates: candidates})
	h.sendMessage(ctx, chatID, FormatCandidates(candidates))
}

// handleResetSelect - Шаг 2: номер ребёнка.
func (h *Handler) handleResetSelect(ctx context.Context, chatID, userID int64, state *AdminState, text string) {
	candidate, ok := PickCandidate(state.Candidates, text)
	if !ok {
		h.service.ClearState(userID)
		h.sendMessage(ctx, chatID, "❌ Неверный номер. Действие отменено")
		return
	}

	h.service.SetState(userID, AdminState{
		State:     StateResetConfirm,
		ChildID:   candidate.ChildID,
		ChildName: candidate.Name,
	})
	h.sendMessage(ctx, chatID, fmt.Sprintf(
		"⚠️ Сбросить репутацию %s до 100? История будет удалена.\nОтправьте ДА для подтверждения.", candidate.Name))
}

// handleResetConfirm - Шаг 3: подтверждение.
func (h *Handler) handleResetConfirm(ctx context.Context, chatID, userID int64, state *AdminState, text string) {
	h.service.ClearState(userID)
	if !strings.EqualFold(text, "да") {
		h.sendMessage(ctx, chatID, "↩️ Сброс отменён")
		return
	}

	status, err := h.service.ResetChild(ctx, userID, state.ChildID)
	if err != nil {
		if errors.Is(err, common.ErrSessionExpired) {
			h.sendMessage(ctx, chatID, "❌ "+err.Error())
			return
		}
		log.WithError(err).WithField("child_id", state.ChildID).Error("Ошибка сброса репутации")
		h.sendMessage(ctx, chatID, "❌ Не удалось сбросить репутацию")
		return
	}

	h.sendMessage(ctx, chatID, fmt.Sprintf("✅ Репутация %s сброшена: %d (%s)",
		state.ChildName, status.Score, status.Tier.Name))
}

func (h *Handler) runDecay(ctx context.Context, chatID, userID int64) {
	results, err := h.service.RunDecayNow(ctx, userID)
	if err != nil && len(results) == 0 {
		log.WithError(err).Error("Ошибка ручного затухания")
		h.sendMessage(ctx, chatID, "❌ Ошибка затухания штрафов")
		return
	}

	text := fmt.Sprintf("🕰 Затухание выполнено. Очки вернулись у %d детей", len(results))
	if err != nil {
		text += "\n⚠️ Часть детей обработать не удалось, подробности в логах"
	}
	h.sendMessage(ctx, chatID, text)
}

// FormatCandidates собирает нумерованный список для выбора.
func FormatCandidates(candidates []Candidate) string {
	var sb strings.Builder
	sb.WriteString("Выберите ребёнка (отправьте номер):\n\n")
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, c.Name))
	}
	return sb.String()
}

// PickCandidate выбирает ребёнка по номеру из списка (с 1).
func PickCandidate(candidates []Candidate, text string) (Candidate, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 || n > len(candidates) {
		return Candidate{}, false
	}
	return candidates[n-1], true
}

// sendMessage - вспомогательный метод для отправки текстовых сообщений.
func (h *Handler) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
