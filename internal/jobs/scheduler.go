// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание: ночное затухание старых штрафов
// и почасовое снятие истёкших бонусов за восстановление.
package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/credibility"
)

// CredibilityJobs - операции репутации, которые запускаются по расписанию.
type CredibilityJobs interface {
	RunDecayAll(ctx context.Context) ([]credibility.DecayResult, error)
	ExpireBonuses(ctx context.Context) ([]int64, error)
}

// NameResolver возвращает имя ребёнка для уведомлений.
type NameResolver interface {
	DisplayName(ctx context.Context, userID int64) string
}

// Options - расписания и чат для уведомлений.
type Options struct {
	DecaySchedule      string
	BonusSweepSchedule string
	DecayEnabled       bool
	NotifyChatID       int64
	Location           *time.Location
}

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron     *cron.Cron
	cred     CredibilityJobs
	names    NameResolver
	opts     Options
	sendFunc func(chatID int64, text string)
}

// NewScheduler создаёт планировщик задач в часовом поясе приложения.
func NewScheduler(cred CredibilityJobs, names NameResolver, opts Options, sendFunc func(chatID int64, text string)) *Scheduler {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		cred:     cred,
		names:    names,
		opts:     opts,
		sendFunc: sendFunc,
	}
}

// Start регистрирует и запускает фоновые задачи.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.opts.DecayEnabled {
		if _, err := s.cron.AddFunc(s.opts.DecaySchedule, func() { s.RunDecay(ctx) }); err != nil {
			return fmt.Errorf("некорректное расписание затухания %q: %w", s.opts.DecaySchedule, err)
		}
	} else {
		log.Warn("[CRON] Затухание штрафов отключено флагом")
	}

	if _, err := s.cron.AddFunc(s.opts.BonusSweepSchedule, func() { s.SweepBonuses(ctx) }); err != nil {
		return fmt.Errorf("некорректное расписание бонусов %q: %w", s.opts.BonusSweepSchedule, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"decay":       s.opts.DecaySchedule,
		"bonus_sweep": s.opts.BonusSweepSchedule,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения запущенных задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// RunDecay прогоняет затухание по всем детям и сообщает в семейный чат, кому вернули очки.
func (s *Scheduler) RunDecay(ctx context.Context) {
	log.Info("[CRON] Затухание старых штрафов")
	results, err := s.cred.RunDecayAll(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка затухания")
	}
	if len(results) == 0 {
		return
	}

	lines := make([]string, 0, len(results)+1)
	lines = append(lines, "🍃 Старые штрафы прощены:")
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("• %s: %s, репутация %d",
			s.names.DisplayName(ctx, r.ChildID), common.FormatPointsDelta(r.Recovered), r.Score))
	}
	s.notify(strings.Join(lines, "\n"))
}

// SweepBonuses снимает истёкшие бонусы за восстановление.
func (s *Scheduler) SweepBonuses(ctx context.Context) {
	log.Debug("[CRON] Проверка бонусов за восстановление")
	expired, err := s.cred.ExpireBonuses(ctx)
	if err != nil {
		log.WithError(err).Error("[CRON] Ошибка проверки бонусов")
	}
	for _, id := range expired {
		s.notify(fmt.Sprintf("⌛ Бонус ×1.3 для %s закончился", s.names.DisplayName(ctx, id)))
	}
}

func (s *Scheduler) notify(text string) {
	if s.sendFunc == nil || s.opts.NotifyChatID == 0 {
		return
	}
	s.sendFunc(s.opts.NotifyChatID, text)
}
