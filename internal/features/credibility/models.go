// Package credibility реализует репутацию ребёнка: ограниченный счёт 0..100,
// штрафы за отклонённые задания, бонусы за серии одобрений, затухание старых
// штрафов и временный бонус за восстановление. От счёта зависит курс обмена
// опыта за задания на минуты экранного времени.
// models.go описывает события истории, статус и входящие команды.
package credibility

import "time"

// EventKind - тип события в истории репутации.
type EventKind string

const (
	EventApproval        EventKind = "approval"         // Задание одобрено
	EventRejection       EventKind = "rejection"        // Задание отклонено
	EventRejectionUndone EventKind = "rejection_undone" // Отклонение отменено родителем
	EventStreakBonus     EventKind = "streak_bonus"     // Бонус за серию одобрений
	EventDecayRecovery   EventKind = "decay_recovery"   // Возврат очков за старые штрафы
	EventBonusActivated  EventKind = "bonus_activated"  // Включён бонус за восстановление
	EventBonusExpired    EventKind = "bonus_expired"    // Бонус за восстановление снят
)

// Границы счёта и начальное значение.
const (
	MinScore     = 0
	MaxScore     = 100
	InitialScore = 100
)

// HistoryEvent - неизменяемая запись истории.
// Единственное исключение - отклонения: после 30 дней у них выставляется Decayed.
type HistoryEvent struct {
	ID             string     `json:"id"`
	Kind           EventKind  `json:"kind"`
	Amount         int        `json:"amount"` // Изменение счёта со знаком
	Timestamp      time.Time  `json:"timestamp"`
	TaskID         string     `json:"taskId,omitempty"`
	ReviewerID     int64      `json:"reviewerId,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	ResultingScore int        `json:"resultingScore"` // Счёт сразу после события
	StreakCount    *int       `json:"streakCount,omitempty"`
	Decayed        bool       `json:"decayed,omitempty"`
	DecayedAt      *time.Time `json:"decayedAt,omitempty"`
}

// RedemptionBonusState - состояние бонуса за восстановление.
type RedemptionBonusState struct {
	Active bool       `json:"active"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// TierInfo - уровень в том виде, в каком его видит интерфейс.
type TierInfo struct {
	Name        string  `json:"name"`
	Multiplier  float64 `json:"multiplier"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}

// Status - сводка репутации ребёнка для дашборда.
type Status struct {
	ChildID        int64          `json:"childId"`
	Score          int            `json:"score"`
	Tier           TierInfo       `json:"tier"`
	Streak         int            `json:"streak"`
	BonusActive    bool           `json:"bonusActive"`
	BonusExpiry    *time.Time     `json:"bonusExpiry,omitempty"`
	RecentHistory  []HistoryEvent `json:"recentHistory"`
	ConversionRate float64        `json:"conversionRate"`
	RecoveryPath   string         `json:"recoveryPath,omitempty"`
}

// Decision - решение родителя по заданию.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ReviewDecision - проверка задания родителем.
type ReviewDecision struct {
	TaskID     string
	ChildID    int64
	ReviewerID int64
	Decision   Decision
	Notes      string
}

// UndoDecision - отмена ранее сделанного отклонения.
type UndoDecision struct {
	TaskID     string
	ChildID    int64
	ReviewerID int64
}

// ConversionPreviewRequest - сколько минут получится из опыта (без списания).
type ConversionPreviewRequest struct {
	ChildID  int64
	XPAmount int64
}

// ConversionCommitRequest - обменять опыт на минуты и зачислить их в кошелёк.
type ConversionCommitRequest struct {
	ChildID  int64
	XPAmount int64
}

// Conversion - результат расчёта обмена.
type Conversion struct {
	ChildID     int64   `json:"childId"`
	XPAmount    int64   `json:"xpAmount"`
	Minutes     int64   `json:"minutes"`
	Rate        float64 `json:"rate"`
	BonusActive bool    `json:"bonusActive"`
	Committed   bool    `json:"committed"`
}

// DecayResult - итог прогона затухания для одного ребёнка.
type DecayResult struct {
	ChildID   int64
	Recovered int
	Score     int
}
