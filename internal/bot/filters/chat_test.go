package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/mymmrac/telego"
	"github.com/stretchr/testify/assert"
)

const familyChat int64 = -1001

type fakeMembers struct {
	known   map[int64]bool
	err     error
	ensured []int64
}

func (m *fakeMembers) IsMember(_ context.Context, userID int64) (bool, error) {
	return m.known[userID], m.err
}

func (m *fakeMembers) EnsureMember(_ context.Context, userID int64, _, _, _ string) error {
	m.ensured = append(m.ensured, userID)
	return nil
}

type fakeAPI struct {
	status string
	sent   int
}

func (a *fakeAPI) GetChatMember(context.Context, *telego.GetChatMemberParams) (telego.ChatMember, error) {
	switch a.status {
	case telego.MemberStatusMember:
		return &telego.ChatMemberMember{Status: a.status}, nil
	default:
		return &telego.ChatMemberLeft{Status: a.status}, nil
	}
}

func (a *fakeAPI) SendMessage(context.Context, *telego.SendMessageParams) (*telego.Message, error) {
	a.sent++
	return &telego.Message{}, nil
}

func message(chatID int64, chatType string, userID int64) *telego.Message {
	return &telego.Message{
		Chat: telego.Chat{ID: chatID, Type: chatType},
		From: &telego.User{ID: userID, FirstName: "Маша"},
		Text: "!рейтинг",
	}
}

func TestCheckAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("семейный чат", func(t *testing.T) {
		f := NewChatFilter(familyChat, &fakeMembers{}, &fakeAPI{})
		assert.True(t, f.CheckAccess(ctx, message(familyChat, telego.ChatTypeSupergroup, 5)))
	})

	t.Run("чужая группа", func(t *testing.T) {
		f := NewChatFilter(familyChat, &fakeMembers{}, &fakeAPI{})
		assert.False(t, f.CheckAccess(ctx, message(-2002, telego.ChatTypeGroup, 5)))
	})

	t.Run("личка известного участника", func(t *testing.T) {
		f := NewChatFilter(familyChat, &fakeMembers{known: map[int64]bool{5: true}}, &fakeAPI{})
		assert.True(t, f.CheckAccess(ctx, message(5, telego.ChatTypePrivate, 5)))
	})

	t.Run("личка: участник чата, которого нет в БД", func(t *testing.T) {
		members := &fakeMembers{}
		f := NewChatFilter(familyChat, members, &fakeAPI{status: telego.MemberStatusMember})
		assert.True(t, f.CheckAccess(ctx, message(5, telego.ChatTypePrivate, 5)))
		assert.Equal(t, []int64{5}, members.ensured)
	})

	t.Run("личка постороннего", func(t *testing.T) {
		api := &fakeAPI{status: telego.MemberStatusLeft}
		f := NewChatFilter(familyChat, &fakeMembers{}, api)
		assert.False(t, f.CheckAccess(ctx, message(9, telego.ChatTypePrivate, 9)))
		assert.Equal(t, 1, api.sent)
	})

	t.Run("ошибка БД", func(t *testing.T) {
		f := NewChatFilter(familyChat, &fakeMembers{err: errors.New("db down")}, &fakeAPI{})
		assert.False(t, f.CheckAccess(ctx, message(5, telego.ChatTypePrivate, 5)))
	})

	t.Run("без отправителя", func(t *testing.T) {
		f := NewChatFilter(familyChat, &fakeMembers{}, &fakeAPI{})
		msg := message(familyChat, telego.ChatTypeSupergroup, 5)
		msg.From = nil
		assert.False(t, f.CheckAccess(ctx, msg))
	})
}
