// Package filters решает, обрабатывать ли сообщение:
// семейный чат - да, личка - только участникам семьи.
package filters

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// Members - реестр участников семьи.
type Members interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
	EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error
}

// TelegramAPI - методы бота, нужные фильтру.
type TelegramAPI interface {
	GetChatMember(ctx context.Context, params *telego.GetChatMemberParams) (telego.ChatMember, error)
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

type ChatFilter struct {
	familyChatID int64
	members      Members
	api          TelegramAPI
}

func NewChatFilter(familyChatID int64, members Members, api TelegramAPI) *ChatFilter {
	return &ChatFilter{
		familyChatID: familyChatID,
		members:      members,
		api:          api,
	}
}

func (f *ChatFilter) CheckAccess(ctx context.Context, message *telego.Message) bool {
	if message == nil {
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if f.familyChatID == 0 {
		log.WithField("component", "ChatFilter").Error("familyChatID is 0 (config bug)")
		return false
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	logger := log.WithFields(log.Fields{
		"component":      "ChatFilter",
		"chat_id":        chatID,
		"chat_type":      message.Chat.Type,
		"user_id":        userID,
		"family_chat_id": f.familyChatID,
	})

	// 1) Семейный чат
	if chatID == f.familyChatID {
		return true
	}

	// 3) Остальные группы игнорируем
	if message.Chat.Type != telego.ChatTypePrivate {
		logger.Info("deny: not family chat and not private")
		return false
	}

	// 2) Личка: сначала по БД
	isMember, err := f.members.IsMember(ctx, userID)
	if err != nil {
		logger.WithError(err).Error("member check failed (db)")
		return false
	}
	if isMember {
		return true
	}

	// 2.1) БД не знает пользователя: спрашиваем Telegram
	cm, err := f.api.GetChatMember(ctx, &telego.GetChatMemberParams{
		ChatID: tu.ID(f.familyChatID),
		UserID: userID,
	})
	if err != nil {
		logger.WithError(err).Error("member check failed (telegram GetChatMember)")
		return false
	}

	status := cm.MemberStatus()
	switch status {
	case telego.MemberStatusCreator, telego.MemberStatusAdministrator,
		telego.MemberStatusMember, telego.MemberStatusRestricted:
		if err := f.members.EnsureMember(ctx, userID,
			message.From.Username, message.From.FirstName, message.From.LastName,
		); err != nil {
			logger.WithError(err).Warn("failed to backfill member to DB (allowing anyway)")
		}
		logger.WithField("tg_status", status).Info("allow: private (telegram member, backfilled)")
		return true

	default:
		logger.WithField("tg_status", status).Info("deny: private (not a family member)")
		if _, err := f.api.SendMessage(ctx, tu.Message(tu.ID(chatID), "❌ Бот работает только для участников семейного чата")); err != nil {
			logger.WithError(err).Warn("failed to send deny message")
		}
		return false
	}
}
