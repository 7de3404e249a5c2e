// Package app инициализирует все компоненты приложения.
// app.go - точка сборки: создаёт БД-пул, хранилище снимков, сервисы, обработчики,
// фильтры и собирает всё в один объект Bot плюс планировщик фоновых задач.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mymmrac/telego"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/bot"
	"serotonyl.ru/credibility-bot/internal/bot/filters"
	"serotonyl.ru/credibility-bot/internal/bot/middleware"
	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/config"
	"serotonyl.ru/credibility-bot/internal/db/postgres"
	"serotonyl.ru/credibility-bot/internal/features/admin"
	"serotonyl.ru/credibility-bot/internal/features/credibility"
	"serotonyl.ru/credibility-bot/internal/features/economy"
	"serotonyl.ru/credibility-bot/internal/features/members"
	"serotonyl.ru/credibility-bot/internal/jobs"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *redis.Client // nil, если снимки лежат в PostgreSQL
	BotAPI    *telego.Bot

	rateLimiter *middleware.RateLimiter
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен - компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	a.DB = pool

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		a.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Хранилище снимков репутации ===
	store, err := a.newSnapshotStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	// === 3. Telegram Bot API ===
	botAPI, err := newBotAPI(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.BotAPI = botAPI

	clock := common.SystemClock{}
	loc := common.LoadLocation(cfg.AppTimezone)

	// === 4. Репозитории ===
	memberRepo := members.NewRepository(pool)
	economyRepo := economy.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	memberService := members.NewService(memberRepo, cfg.GuardianIDs)
	economyService := economy.NewService(economyRepo, loc)
	credibilityService := credibility.NewService(store, memberService, economyService, clock, credibility.NewOptions(cfg))
	adminService := admin.NewService(adminRepo, credibilityService, cfg.AdminPasswordHash, clock)

	// === 6. Обработчики ===
	handlers := bot.Handlers{
		Members:     members.NewHandler(memberService, botAPI),
		Credibility: credibility.NewHandler(credibilityService, memberService, botAPI, loc),
		Economy:     economy.NewHandler(economyService, memberService, botAPI),
		Admin:       admin.NewHandler(adminService, memberService, botAPI),
	}

	// === 7. Фильтры и middleware ===
	chatFilter := filters.NewChatFilter(cfg.FamilyChatID, memberService, botAPI)
	a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, clock)

	// === 8. Собираем бота ===
	a.Bot = bot.New(botAPI, cfg, memberService, economyService, handlers, chatFilter, a.rateLimiter)

	// === 9. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(credibilityService, memberService, jobs.Options{
		DecaySchedule:      cfg.JobsDecaySchedule,
		BonusSweepSchedule: cfg.JobsBonusSweepSchedule,
		DecayEnabled:       cfg.FeatureDecayJobEnabled,
		NotifyChatID:       cfg.FamilyChatID,
		Location:           loc,
	}, a.Bot.Notify)

	return a, nil
}

// Close освобождает соединения. Безопасно вызывать на частично собранном App.
func (a *App) Close() {
	if a.rateLimiter != nil {
		a.rateLimiter.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Ошибка закрытия Redis")
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// newSnapshotStore выбирает хранилище снимков по STORE_BACKEND.
func (a *App) newSnapshotStore(ctx context.Context, cfg *config.Config) (credibility.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendRedis:
		client, err := credibility.NewRedisClient(ctx, cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
		}
		a.Redis = client
		log.WithField("addr", cfg.RedisAddr()).Info("Снимки репутации хранятся в Redis")
		return credibility.NewRedisStore(client), nil
	default:
		log.Info("Снимки репутации хранятся в PostgreSQL")
		return credibility.NewPostgresStore(a.DB), nil
	}
}

func newBotAPI(ctx context.Context, cfg *config.Config) (*telego.Bot, error) {
	opts := []telego.BotOption{
		telego.WithLogger(log.WithField("component", "telego")),
	}
	botAPI, err := telego.NewBot(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}

	me, err := botAPI.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка авторизации в Telegram: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)
	return botAPI, nil
}
