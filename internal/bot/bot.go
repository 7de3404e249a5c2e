// Package bot содержит главный модуль бота: приём апдейтов, фильтры и маршрутизацию команд.
// bot.go получает апдейты через long polling и раздаёт их обработчикам фич.
package bot

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/bot/filters"
	"serotonyl.ru/credibility-bot/internal/bot/middleware"
	"serotonyl.ru/credibility-bot/internal/config"
	"serotonyl.ru/credibility-bot/internal/features/admin"
	"serotonyl.ru/credibility-bot/internal/features/credibility"
	"serotonyl.ru/credibility-bot/internal/features/economy"
	"serotonyl.ru/credibility-bot/internal/features/members"
)

const notifyTimeout = 10 * time.Second

const helpText = `Я веду репутацию детей и обмен опыта на минуты.

Для всех:
!рейтинг [@ребёнок] — репутация, уровень и курс обмена
!предпросмотр [@ребёнок] опыт — сколько минут получится
!минуты [@ребёнок] — баланс минут
!транзакции [@ребёнок] — последние операции
!дети — список детей

Для родителей:
!одобрить @ребёнок задание [комментарий]
!отклонить @ребёнок задание [комментарий]
!отменить @ребёнок задание — отменить отклонение
!обмен @ребёнок опыт — обменять опыт на минуты
!списать @ребёнок минуты [за что]
!добавить @ребёнок минуты [за что]
!ребенок @username — записать участника ребёнком
/login <пароль> — админ-панель (в личке)`

// Handlers - обработчики фич, между которыми маршрутизирует бот.
type Handlers struct {
	Members     *members.Handler
	Credibility *credibility.Handler
	Economy     *economy.Handler
	Admin       *admin.Handler
}

// Bot - главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	handlers       Handlers
	memberService  *members.Service
	economyService *economy.Service

	parser *CommandParser

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
	wg       sync.WaitGroup
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	memberService *members.Service,
	economyService *economy.Service,
	handlers Handlers,
	chatFilter *filters.ChatFilter,
	rateLimiter *middleware.RateLimiter,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:            api,
		cfg:            cfg,
		chatFilter:     chatFilter,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
		memberService:  memberService,
		economyService: economyService,
		parser:         NewCommandParser(),
		inflight:       make(chan struct{}, maxInFlight),
	}
}

// Start получает апдейты long polling'ом, пока не отменён ctx.
// Перед возвратом дожидается обработчиков, которые ещё работают.
func (b *Bot) Start(ctx context.Context) error {
	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"max_inflight": cap(b.inflight),
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return nil

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return nil
			}

			// лимит параллелизма
			select {
			case b.inflight <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			b.wg.Add(1)
			go func(upd telego.Update) {
				defer b.wg.Done()
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic(update.UpdateID)

	message := update.Message
	if message == nil {
		return
	}

	// Вступление в семейный чат
	if len(message.NewChatMembers) > 0 {
		if message.Chat.ID == b.cfg.FamilyChatID {
			b.handleNewMembers(ctx, message.NewChatMembers)
		}
		return
	}

	if message.Text == "" {
		return
	}

	middleware.LogMessage(message)

	// Семейный чат или личка участника
	if !b.chatFilter.CheckAccess(ctx, message) {
		return
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if err := b.memberService.EnsureMember(ctx, userID,
		message.From.Username, message.From.FirstName, message.From.LastName,
	); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureMember failed")
	}

	// В личке сначала отдаём сообщение админ-панели
	if message.Chat.Type == telego.ChatTypePrivate {
		if b.handlers.Admin.HandleAdminMessage(ctx, chatID, userID, message.Text) {
			return
		}
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	if !b.rateLimiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	h := b.handlers
	switch cmd {
	case "start", "help", "помощь":
		b.sendMessage(ctx, chatID, helpText)

	case "login":
		if chatID == userID {
			h.Admin.HandleAdminMessage(ctx, chatID, userID, "/login "+strings.Join(args, " "))
		}

	case "одобрить":
		h.Credibility.HandleReview(ctx, chatID, userID, credibility.DecisionApprove, args)

	case "отклонить":
		h.Credibility.HandleReview(ctx, chatID, userID, credibility.DecisionReject, args)

	case "отменить":
		h.Credibility.HandleUndo(ctx, chatID, userID, args)

	case "рейтинг", "репутация":
		h.Credibility.HandleStatus(ctx, chatID, userID, args)

	case "предпросмотр":
		h.Credibility.HandlePreview(ctx, chatID, userID, args)

	case "обмен":
		h.Credibility.HandleCommit(ctx, chatID, userID, args)

	case "минуты", "баланс":
		h.Economy.HandleBalance(ctx, chatID, userID, args)

	case "списать":
		h.Economy.HandleSpend(ctx, chatID, userID, args)

	case "добавить":
		h.Economy.HandleGift(ctx, chatID, userID, args)

	case "транзакции":
		h.Economy.HandleTransactions(ctx, chatID, userID, args)

	case "ребенок", "ребёнок":
		h.Members.HandleRegisterChild(ctx, chatID, userID, args)

	case "дети":
		h.Members.HandleChildren(ctx, chatID)
	}
}

// handleNewMembers регистрирует вступивших и заводит им кошелёк минут.
func (b *Bot) handleNewMembers(ctx context.Context, newMembers []telego.User) {
	b.handlers.Members.HandleNewChatMembers(ctx, newMembers)
	for _, user := range newMembers {
		if user.IsBot {
			continue
		}
		if err := b.economyService.CreateBalance(ctx, user.ID); err != nil {
			log.WithError(err).WithField("user_id", user.ID).Warn("CreateBalance failed")
		}
		log.WithField("user", user.Username).Info("Новый участник обработан")
	}
}

// sendMessage - утилита для отправки сообщений.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// Notify отправляет сообщение в чат от имени фоновых задач.
func (b *Bot) Notify(chatID int64, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if _, err := b.api.SendMessage(ctx, tu.Message(tu.ID(chatID), text)); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("Не удалось отправить уведомление")
	}
}
