// Package credibility - service.go связывает состояние с хранилищем.
// Каждая операция над ребёнком выполняется под его мьютексом:
// загрузить снимок → изменить состояние → записать снимок → вернуть статус.
// Если запись не удалась, изменения отбрасываются, а вызывающий получает ошибку.
package credibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/config"
)

// Ошибки хранилища.
var (
	ErrLoadFailed    = errors.New("не удалось загрузить репутацию")
	ErrPersistFailed = errors.New("не удалось сохранить репутацию")
	ErrXPTooLarge    = fmt.Errorf("%w: слишком большое количество опыта", common.ErrValidation)
)

// ChildRegistry знает, какие дети зарегистрированы.
type ChildRegistry interface {
	ChildExists(ctx context.Context, childID int64) (bool, error)
}

// MinutesWallet зачисляет минуты экранного времени.
type MinutesWallet interface {
	AddMinutes(ctx context.Context, childID, minutes int64, txType, description string) error
}

// TxTypeConversion - тип транзакции кошелька для обмена опыта.
const TxTypeConversion = "xp_conversion"

// Options - настройки сервиса.
type Options struct {
	PersistTimeout time.Duration // Таймаут одной попытки записи
	PersistRetries uint          // Всего попыток записи
	RetryInterval  time.Duration // Пауза перед первым повтором
	HistoryLimit   int           // Сколько событий отдавать в статусе
	DecayOnRead    bool          // Прогонять затухание при чтении статуса
}

// NewOptions собирает настройки из конфигурации.
func NewOptions(cfg *config.Config) Options {
	return Options{
		PersistTimeout: cfg.CredibilityPersistTimeout,
		PersistRetries: cfg.CredibilityPersistRetries,
		RetryInterval:  200 * time.Millisecond,
		HistoryLimit:   cfg.CredibilityHistoryLimit,
		DecayOnRead:    cfg.CredibilityDecayOnRead,
	}
}

// Service управляет репутацией всех детей.
type Service struct {
	store    Store
	registry ChildRegistry
	wallet   MinutesWallet
	clock    common.Clock
	opts     Options
	locks    *childLocks
}

// NewService создаёт сервис репутации.
func NewService(store Store, registry ChildRegistry, wallet MinutesWallet, clock common.Clock, opts Options) *Service {
	if opts.PersistRetries == 0 {
		opts.PersistRetries = 1
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 3 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 200 * time.Millisecond
	}
	return &Service{
		store:    store,
		registry: registry,
		wallet:   wallet,
		clock:    clock,
		opts:     opts,
		locks:    newChildLocks(),
	}
}

// Review применяет решение родителя по заданию.
func (s *Service) Review(ctx context.Context, d ReviewDecision) (Status, error) {
	if strings.TrimSpace(d.TaskID) == "" {
		return Status{}, common.ErrEmptyTaskID
	}
	if d.Decision != DecisionApprove && d.Decision != DecisionReject {
		return Status{}, common.ErrUnknownDecision
	}

	status, err := s.withState(ctx, d.ChildID, func(st *State) error {
		if d.Decision == DecisionApprove {
			st.ApplyApproval(d.TaskID, d.ReviewerID, d.Notes)
		} else {
			st.ApplyRejection(d.TaskID, d.ReviewerID, d.Notes)
		}
		return nil
	})
	if err != nil {
		return Status{}, err
	}

	log.WithFields(log.Fields{
		"child_id":    d.ChildID,
		"task_id":     d.TaskID,
		"reviewer_id": d.ReviewerID,
		"decision":    d.Decision,
		"score":       status.Score,
		"streak":      status.Streak,
	}).Info("Задание проверено")
	return status, nil
}

// Undo отменяет последнее отклонение задания. Если отменять нечего -
// возвращает текущий статус и common.ErrRejectionNotFound.
func (s *Service) Undo(ctx context.Context, d UndoDecision) (Status, error) {
	if strings.TrimSpace(d.TaskID) == "" {
		return Status{}, common.ErrEmptyTaskID
	}

	status, err := s.withState(ctx, d.ChildID, func(st *State) error {
		_, err := st.UndoRejection(d.TaskID, d.ReviewerID)
		return err
	})
	if err != nil {
		return status, err
	}

	log.WithFields(log.Fields{
		"child_id":    d.ChildID,
		"task_id":     d.TaskID,
		"reviewer_id": d.ReviewerID,
		"score":       status.Score,
	}).Info("Отклонение отменено")
	return status, nil
}

// Status возвращает сводку по ребёнку. Истёкший бонус снимается,
// при включённой опции прогоняется затухание.
func (s *Service) Status(ctx context.Context, childID int64) (Status, error) {
	return s.withState(ctx, childID, func(st *State) error {
		if s.opts.DecayOnRead {
			st.RunDecay()
		}
		return nil
	})
}

// PreviewConversion считает, сколько минут получится, ничего не зачисляя.
func (s *Service) PreviewConversion(ctx context.Context, req ConversionPreviewRequest) (Conversion, error) {
	if err := s.validateConversion(ctx, req.ChildID, req.XPAmount); err != nil {
		return Conversion{}, err
	}

	var conv Conversion
	_, err := s.withState(ctx, req.ChildID, func(st *State) error {
		conv = s.convert(st, req.XPAmount)
		return nil
	})
	if err != nil {
		return Conversion{}, err
	}
	return conv, nil
}

// CommitConversion обменивает опыт на минуты и зачисляет их в кошелёк.
// Пока идёт зачисление, другие операции над этим ребёнком ждут.
func (s *Service) CommitConversion(ctx context.Context, req ConversionCommitRequest) (Conversion, error) {
	if err := s.validateConversion(ctx, req.ChildID, req.XPAmount); err != nil {
		return Conversion{}, err
	}

	unlock := s.locks.Lock(req.ChildID)
	defer unlock()

	st, err := s.load(ctx, req.ChildID)
	if err != nil {
		return Conversion{}, err
	}
	conv := s.convert(st, req.XPAmount)
	if err := s.persist(ctx, st); err != nil {
		return Conversion{}, err
	}

	if conv.Minutes > 0 {
		description := fmt.Sprintf("Обмен %d опыта (курс ×%.2f)", conv.XPAmount, conv.Rate)
		if err := s.wallet.AddMinutes(ctx, req.ChildID, conv.Minutes, TxTypeConversion, description); err != nil {
			return Conversion{}, fmt.Errorf("ошибка зачисления минут: %w", err)
		}
	}
	conv.Committed = true

	log.WithFields(log.Fields{
		"child_id": req.ChildID,
		"xp":       conv.XPAmount,
		"minutes":  conv.Minutes,
		"rate":     conv.Rate,
	}).Info("Опыт обменян на минуты")
	return conv, nil
}

// RunDecay прогоняет затухание штрафов для одного ребёнка.
func (s *Service) RunDecay(ctx context.Context, childID int64) (DecayResult, error) {
	res := DecayResult{ChildID: childID}
	status, err := s.withState(ctx, childID, func(st *State) error {
		res.Recovered = st.RunDecay()
		return nil
	})
	if err != nil {
		return DecayResult{}, err
	}
	res.Score = status.Score
	return res, nil
}

// RunDecayAll прогоняет затухание для всех детей со снимками.
// Ошибка по одному ребёнку не останавливает остальных.
func (s *Service) RunDecayAll(ctx context.Context) ([]DecayResult, error) {
	ids, err := s.store.ChildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка детей: %w", err)
	}

	var (
		results []DecayResult
		errs    []error
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		res, err := s.RunDecay(ctx, id)
		if err != nil {
			log.WithError(err).WithField("child_id", id).Error("Ошибка затухания штрафов")
			errs = append(errs, fmt.Errorf("child_id=%d: %w", id, err))
			continue
		}
		if res.Recovered > 0 {
			results = append(results, res)
		}
	}

	log.WithFields(log.Fields{
		"total":     len(ids),
		"recovered": len(results),
		"failed":    len(errs),
	}).Info("Затухание штрафов завершено")
	return results, errors.Join(errs...)
}

// ExpireBonuses снимает истёкшие бонусы у всех детей и возвращает, у кого сняли.
func (s *Service) ExpireBonuses(ctx context.Context) ([]int64, error) {
	ids, err := s.store.ChildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка детей: %w", err)
	}

	var (
		expired []int64
		errs    []error
	)
	for _, id := range ids {
		var wasActive, isActive bool
		_, err := s.withState(ctx, id, func(st *State) error {
			wasActive = st.bonus.Active
			isActive = st.BonusActive()
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("child_id=%d: %w", id, err))
			continue
		}
		if wasActive && !isActive {
			expired = append(expired, id)
		}
	}
	return expired, errors.Join(errs...)
}

// Reset сбрасывает репутацию ребёнка к значениям по умолчанию.
func (s *Service) Reset(ctx context.Context, childID int64) (Status, error) {
	status, err := s.withState(ctx, childID, func(st *State) error {
		st.Reset()
		return nil
	})
	if err != nil {
		return Status{}, err
	}
	log.WithField("child_id", childID).Warn("Репутация сброшена администратором")
	return status, nil
}

func (s *Service) validateConversion(ctx context.Context, childID, xp int64) error {
	if xp < 0 {
		return common.ErrNegativeXP
	}
	if xp > MaxConversionXP {
		return ErrXPTooLarge
	}
	exists, err := s.registry.ChildExists(ctx, childID)
	if err != nil {
		return fmt.Errorf("ошибка проверки ребёнка: %w", err)
	}
	if !exists {
		return common.ErrUnknownChild
	}
	return nil
}

// convert считает обмен. Истёкший бонус сначала снимается.
func (s *Service) convert(st *State, xp int64) Conversion {
	active := st.BonusActive()
	return Conversion{
		ChildID:     st.ChildID(),
		XPAmount:    xp,
		Minutes:     st.XpToMinutes(xp),
		Rate:        st.ConversionRate(),
		BonusActive: active,
	}
}

// withState выполняет fn под мьютексом ребёнка и записывает результат.
// Если fn вернула ошибку, ничего не записывается.
func (s *Service) withState(ctx context.Context, childID int64, fn func(st *State) error) (Status, error) {
	unlock := s.locks.Lock(childID)
	defer unlock()

	st, err := s.load(ctx, childID)
	if err != nil {
		return Status{}, err
	}

	if err := fn(st); err != nil {
		return st.Status(s.opts.HistoryLimit), err
	}

	status := st.Status(s.opts.HistoryLimit)
	if err := s.persist(ctx, st); err != nil {
		return Status{}, err
	}
	return status, nil
}

// load читает снимок. Нет снимка - новый ребёнок со значениями по умолчанию.
// Любая другая ошибка возвращается: нельзя молча сбросить настоящий счёт до 100.
func (s *Service) load(ctx context.Context, childID int64) (*State, error) {
	snap, err := s.store.Load(ctx, childID)
	if errors.Is(err, ErrSnapshotNotFound) {
		log.WithField("child_id", childID).Debug("Снимка нет, создаём репутацию по умолчанию")
		return NewState(childID, s.clock), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	return FromSnapshot(childID, snap, s.clock), nil
}

// persist записывает снимок, если есть изменения. Каждая попытка ограничена
// таймаутом, между попытками - экспоненциальная пауза.
func (s *Service) persist(ctx context.Context, st *State) error {
	if !st.Dirty() {
		return nil
	}
	snap := st.Snapshot()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.RetryInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		wctx, cancel := context.WithTimeout(ctx, s.opts.PersistTimeout)
		defer cancel()
		return struct{}{}, s.store.Save(wctx, st.ChildID(), snap)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(s.opts.PersistRetries))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"child_id": st.ChildID(),
			"attempts": attempt,
		}).Error("Не удалось записать снимок репутации")
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}
