// Package economy ведёт кошелёк экранного времени: минуты, которые ребёнок
// получает за обмен опыта и тратит на игры и мультики.
// models.go описывает структуры для балансов и транзакций.
package economy

import "time"

// Balance представляет кошелёк ребёнка.
// У каждого ребёнка ровно одна запись в таблице balances.
type Balance struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`      // Telegram user ID ребёнка
	Balance     int64     `db:"balance"`      // Доступно минут
	TotalEarned int64     `db:"total_earned"` // Сколько всего начислено
	TotalSpent  int64     `db:"total_spent"`  // Сколько всего потрачено
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Transaction представляет одно движение минут.
type Transaction struct {
	ID              int64     `db:"id"`
	FromUserID      *int64    `db:"from_user_id"` // Чей кошелёк списан (nil для начислений)
	ToUserID        *int64    `db:"to_user_id"`   // Чей кошелёк пополнен (nil для списаний)
	Amount          int64     `db:"amount"`       // Минуты, всегда положительные
	TransactionType string    `db:"transaction_type"`
	Description     string    `db:"description"`
	CreatedAt       time.Time `db:"created_at"`
}

// Типы транзакций.
const (
	TxTypeXPConversion = "xp_conversion" // Обмен опыта на минуты
	TxTypeScreenTime   = "screen_time"   // Ребёнок потратил минуты
	TxTypeGuardianGift = "guardian_gift" // Подарок от родителя
	TxTypeAdminTake    = "admin_take"    // Изъятие админом
)

// HistoryLimit - сколько транзакций показываем в истории.
const HistoryLimit = 10
