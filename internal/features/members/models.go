// Package members ведёт реестр семьи: родителей и детей.
// models.go описывает структуры данных для работы с таблицей members.
package members

import (
	"strconv"
	"strings"
	"time"
)

// Роли участников семьи.
const (
	RoleGuardian = "guardian" // Родитель: проверяет задания
	RoleChild    = "child"    // Ребёнок: получает репутацию и минуты
)

// Member представляет участника семьи в базе данных.
// Каждый, кто пишет в семейный чат, автоматически создаётся в этой таблице,
// роль ребёнка назначает родитель командой.
type Member struct {
	ID         int64     `db:"id"`          // Автоинкрементный ID записи в БД
	UserID     int64     `db:"user_id"`     // Telegram user ID (уникальный)
	Username   string    `db:"username"`    // @username (может быть пустым)
	FirstName  string    `db:"first_name"`  // Имя
	LastName   string    `db:"last_name"`   // Фамилия (может быть пустой)
	Role       *string   `db:"role"`        // guardian / child / nil - ещё не назначена
	GuardianID *int64    `db:"guardian_id"` // Кто зарегистрировал ребёнка
	JoinedAt   time.Time `db:"joined_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// UpdateInfo содержит данные для обновления информации о пользователе.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// IsChild сообщает, зарегистрирован ли участник как ребёнок.
func (m *Member) IsChild() bool {
	return m.Role != nil && *m.Role == RoleChild
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username - возвращает его, иначе - имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		return strconv.FormatInt(m.UserID, 10)
	}
	return name
}

// ChildRef - ссылка на ребёнка из аргумента команды: @username или числовой id.
type ChildRef struct {
	UserID   int64
	Username string
}

// ParseChildRef разбирает аргумент команды. Пустая строка - ok=false.
//
//	"@masha" → {Username: "masha"}
//	"12345"  → {UserID: 12345}
func ParseChildRef(arg string) (ChildRef, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return ChildRef{}, false
	}
	if strings.HasPrefix(arg, "@") {
		name := strings.TrimPrefix(arg, "@")
		if name == "" {
			return ChildRef{}, false
		}
		return ChildRef{Username: name}, true
	}
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil && id > 0 {
		return ChildRef{UserID: id}, true
	}
	return ChildRef{Username: arg}, true
}
