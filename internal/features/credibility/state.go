// Package credibility - state.go содержит состояние репутации одного ребёнка
// и команды, которые его меняют. Каждая команда оставляет счёт в 0..100,
// дописывает историю и возвращает новый статус.
package credibility

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/credibility-bot/internal/common"
)

// Rules - набор правил, по которым живёт состояние.
type Rules struct {
	Penalty    PenaltyCalculator
	Streak     StreakBonusController
	Decay      DecayProcessor
	Bonus      RedemptionBonusController
	Conversion ConversionCalculator
}

// DefaultRules возвращает боевые правила.
func DefaultRules() Rules {
	return Rules{
		Penalty:    DefaultPenaltyCalculator(),
		Streak:     DefaultStreakBonusController(),
		Decay:      DefaultDecayProcessor(),
		Bonus:      DefaultRedemptionBonusController(),
		Conversion: DefaultConversionCalculator(),
	}
}

// State - репутация одного ребёнка. Не потокобезопасно: сериализацию
// доступа по ребёнку обеспечивает Service.
type State struct {
	childID int64
	score   int
	streak  int
	bonus   RedemptionBonusState
	log     *EventLog

	rules Rules
	clock common.Clock
	dirty bool // Есть изменения, которые ещё не записаны в хранилище
}

// NewState создаёт состояние по умолчанию: счёт 100, пустая история.
func NewState(childID int64, clock common.Clock) *State {
	return &State{
		childID: childID,
		score:   InitialScore,
		log:     NewEventLog(nil),
		rules:   DefaultRules(),
		clock:   clock,
	}
}

// FromSnapshot восстанавливает состояние из снимка хранилища.
func FromSnapshot(childID int64, snap Snapshot, clock common.Clock) *State {
	s := NewState(childID, clock)
	s.score = clampScore(snap.Score)
	if snap.Streak > 0 {
		s.streak = snap.Streak
	}
	s.bonus = RedemptionBonusState{Active: snap.BonusActive, Expiry: snap.BonusExpiry}
	s.log = NewEventLog(snap.History)
	return s
}

// ChildID возвращает идентификатор ребёнка.
func (s *State) ChildID() int64 { return s.childID }

// Score возвращает текущий счёт.
func (s *State) Score() int { return s.score }

// Tier возвращает текущий уровень.
func (s *State) Tier() Tier { return GetTier(s.score) }

// Streak возвращает число одобрений подряд.
func (s *State) Streak() int { return s.streak }

// History возвращает журнал событий.
func (s *State) History() *EventLog { return s.log }

// Dirty сообщает, есть ли незаписанные изменения.
func (s *State) Dirty() bool { return s.dirty }

// BonusActive возвращает состояние бонуса, лениво снимая истёкший.
func (s *State) BonusActive() bool {
	return s.rules.Bonus.IsActive(s, s.now())
}

// ApplyApproval начисляет +2, увеличивает серию, на каждом 10-м одобрении
// даёт ещё +5 и проверяет условие бонуса за восстановление.
func (s *State) ApplyApproval(taskID string, reviewerID int64, notes string) Status {
	now := s.now()
	prev := s.score

	s.addScore(ApprovalBonus)
	s.streak++
	s.record(HistoryEvent{
		Kind:        EventApproval,
		Amount:      ApprovalBonus,
		Timestamp:   now,
		TaskID:      taskID,
		ReviewerID:  reviewerID,
		Notes:       notes,
		StreakCount: intPtr(s.streak),
	})

	if bonus, ok := s.rules.Streak.Check(s.streak); ok {
		s.addScore(bonus)
		s.record(HistoryEvent{
			Kind:        EventStreakBonus,
			Amount:      bonus,
			Timestamp:   now,
			TaskID:      taskID,
			ReviewerID:  reviewerID,
			StreakCount: intPtr(s.streak),
		})
	}

	s.rules.Bonus.MaybeActivate(s, prev, now)
	return s.Status(0)
}

// ApplyRejection снимает штраф (-10 или -15 при повторе за 7 дней),
// обнуляет серию и при необходимости снимает бонус за восстановление.
func (s *State) ApplyRejection(taskID string, reviewerID int64, notes string) Status {
	now := s.now()
	penalty := s.rules.Penalty.Penalty(s.log, now)

	s.addScore(penalty)
	s.streak = 0
	s.record(HistoryEvent{
		Kind:        EventRejection,
		Amount:      penalty,
		Timestamp:   now,
		TaskID:      taskID,
		ReviewerID:  reviewerID,
		Notes:       notes,
		StreakCount: intPtr(0),
	})

	s.rules.Bonus.AfterRejection(s, now)
	return s.Status(0)
}

// UndoRejection возвращает очки за последнее отклонение задания этим родителем.
// Серия не восстанавливается, исходное отклонение остаётся в истории, поэтому
// повторная отмена снова находит то же отклонение.
// Если отклонения нет - common.ErrRejectionNotFound, состояние не меняется.
func (s *State) UndoRejection(taskID string, reviewerID int64) (Status, error) {
	idx, ok := s.findRejection(taskID, reviewerID)
	if !ok {
		return s.Status(0), common.ErrRejectionNotFound
	}

	restore := abs(s.log.At(idx).Amount)
	s.addScore(restore)
	s.record(HistoryEvent{
		Kind:       EventRejectionUndone,
		Amount:     restore,
		Timestamp:  s.now(),
		TaskID:     taskID,
		ReviewerID: reviewerID,
	})
	return s.Status(0), nil
}

// findRejection ищет с конца истории последнее отклонение задания этим родителем.
func (s *State) findRejection(taskID string, reviewerID int64) (int, bool) {
	for i := s.log.Len() - 1; i >= 0; i-- {
		ev := s.log.At(i)
		if ev.Kind == EventRejection && ev.TaskID == taskID && ev.ReviewerID == reviewerID {
			return i, true
		}
	}
	return -1, false
}

// RunDecay прогоняет затухание штрафов и возвращает число возвращённых очков.
// Бонус за восстановление здесь не включается: только через ApplyApproval.
func (s *State) RunDecay() int {
	return s.rules.Decay.Run(s, s.now())
}

// Reset возвращает состояние к значениям по умолчанию (админ-операция).
func (s *State) Reset() {
	s.score = InitialScore
	s.streak = 0
	s.bonus = RedemptionBonusState{}
	s.log = NewEventLog(nil)
	s.dirty = true
}

// XpToMinutes переводит опыт в минуты по текущему курсу.
func (s *State) XpToMinutes(xp int64) int64 {
	return s.rules.Conversion.XpToMinutes(xp, s)
}

// ConversionRate возвращает текущий курс обмена без изменения состояния.
func (s *State) ConversionRate() float64 {
	return s.rules.Conversion.GetConversionRate(s)
}

// Status собирает сводку. historyLimit <= 0 - вся история.
func (s *State) Status(historyLimit int) Status {
	active := s.BonusActive()
	st := Status{
		ChildID:        s.childID,
		Score:          s.score,
		Tier:           s.Tier().Info(),
		Streak:         s.streak,
		BonusActive:    active,
		RecentHistory:  s.log.Recent(historyLimit),
		ConversionRate: s.ConversionRate(),
		RecoveryPath:   RecoveryPathText(s.score),
	}
	if active && s.bonus.Expiry != nil {
		expiry := *s.bonus.Expiry
		st.BonusExpiry = &expiry
	}
	return st
}

func (s *State) now() time.Time {
	return s.clock.Now().UTC()
}

func (s *State) addScore(delta int) {
	s.score = clampScore(s.score + delta)
}

// record дописывает событие с текущим счётом.
func (s *State) record(ev HistoryEvent) {
	ev.ID = uuid.NewString()
	ev.ResultingScore = s.score
	s.log.Append(ev)
	s.dirty = true
}

func intPtr(v int) *int { return &v }
