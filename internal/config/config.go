// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Хранилища снимков репутации.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Семейный чат, в котором родители проверяют задания
	FamilyChatID int64 `envconfig:"FAMILY_CHAT_ID" required:"true"`
	// Родители (опекуны) - только они могут одобрять и отклонять задания
	GuardianIDsRaw string  `envconfig:"GUARDIAN_IDS" required:"true"`
	GuardianIDs    []int64 `envconfig:"-"` // заполняется в Load

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"credibility"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Хранилище снимков репутации ---
	// postgres - JSONB-таблица, redis - ключ на ребёнка
	StoreBackend  string `envconfig:"STORE_BACKEND" default:"postgres"`
	RedisHost     string `envconfig:"REDIS_HOST" default:"redis"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Credibility ---
	// Таймаут одной записи снимка в хранилище
	CredibilityPersistTimeout time.Duration `envconfig:"CREDIBILITY_PERSIST_TIMEOUT" default:"3s"`
	// Сколько раз пробуем записать снимок, прежде чем вернуть ошибку
	CredibilityPersistRetries uint `envconfig:"CREDIBILITY_PERSIST_RETRIES" default:"3"`
	// Сколько последних событий показываем в статусе
	CredibilityHistoryLimit int `envconfig:"CREDIBILITY_HISTORY_LIMIT" default:"20"`
	// Прогонять затухание штрафов при каждом чтении статуса
	CredibilityDecayOnRead bool `envconfig:"CREDIBILITY_DECAY_ON_READ" default:"true"`

	// --- Jobs ---
	JobsDecaySchedule      string `envconfig:"JOBS_DECAY_SCHEDULE" default:"0 3 * * *"`
	JobsBonusSweepSchedule string `envconfig:"JOBS_BONUS_SWEEP_SCHEDULE" default:"0 * * * *"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureDecayJobEnabled bool `envconfig:"FEATURE_DECAY_JOB_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// RedisAddr возвращает адрес Redis в формате host:port.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsGuardian проверяет, входит ли пользователь в список родителей.
func (c *Config) IsGuardian(userID int64) bool {
	for _, id := range c.GuardianIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.FamilyChatID == 0 {
		return fmt.Errorf("FAMILY_CHAT_ID не задан или равен 0")
	}
	if len(c.GuardianIDs) == 0 {
		return fmt.Errorf("GUARDIAN_IDS должен содержать хотя бы одного родителя")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.StoreBackend != StoreBackendPostgres && c.StoreBackend != StoreBackendRedis {
		return fmt.Errorf("STORE_BACKEND должен быть %q или %q, получено %q",
			StoreBackendPostgres, StoreBackendRedis, c.StoreBackend)
	}
	if c.CredibilityPersistTimeout <= 0 {
		return fmt.Errorf("CREDIBILITY_PERSIST_TIMEOUT должен быть > 0")
	}
	if c.CredibilityPersistRetries == 0 {
		return fmt.Errorf("CREDIBILITY_PERSIST_RETRIES должен быть >= 1")
	}
	if c.CredibilityHistoryLimit <= 0 {
		return fmt.Errorf("CREDIBILITY_HISTORY_LIMIT должен быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.GuardianIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("GUARDIAN_IDS parse: %w", err)
	}
	cfg.GuardianIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
