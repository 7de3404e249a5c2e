// Package admin - service.go содержит логику аутентификации, управления сессиями
// и state-машину для подтверждения опасных действий.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/credibility-bot/internal/common"
	"serotonyl.ru/credibility-bot/internal/features/credibility"
)

// sessionStore - то, что сервису нужно от репозитория.
type sessionStore interface {
	CreateSession(ctx context.Context, session *AdminSession) error
	GetActiveSession(ctx context.Context, userID int64) (*AdminSession, error)
	DeactivateSession(ctx context.Context, userID int64) error
	UpdateActivity(ctx context.Context, userID int64) error
	LogAttempt(ctx context.Context, userID int64, success bool) error
	GetRecentAttempts(ctx context.Context, userID int64, since time.Time) (int, error)
}

// CredibilityAdmin - админ-операции над репутацией.
type CredibilityAdmin interface {
	Reset(ctx context.Context, childID int64) (credibility.Status, error)
	RunDecayAll(ctx context.Context) ([]credibility.DecayResult, error)
}

// Service управляет админ-панелью.
type Service struct {
	repo         sessionStore
	credibility  CredibilityAdmin
	passwordHash string
	clock        common.Clock

	states   map[int64]*AdminState // Состояния диалогов (in-memory)
	statesMu sync.RWMutex
}

// NewService создаёт сервис админ-панели.
func NewService(repo *Repository, cred CredibilityAdmin, passwordHash string, clock common.Clock) *Service {
	return newService(repo, cred, passwordHash, clock)
}

func newService(repo sessionStore, cred CredibilityAdmin, passwordHash string, clock common.Clock) *Service {
	return &Service{
		repo:         repo,
		credibility:  cred,
		passwordHash: passwordHash,
		clock:        clock,
		states:       make(map[int64]*AdminState),
	}
}

// VerifyPassword проверяет пароль администратора по хешу Argon2id и открывает сессию.
// Защита от перебора: 3 неудачные попытки за час - блокировка.
func (s *Service) VerifyPassword(ctx context.Context, userID int64, password string) error {
	now := s.clock.Now()
	attempts, err := s.repo.GetRecentAttempts(ctx, userID, now.Add(-AttemptsWindow))
	if err != nil {
		return err
	}
	if attempts >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.passwordHash)

	if err := s.repo.LogAttempt(ctx, userID, match); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Не удалось записать попытку входа")
	}

	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль админки")
		return common.ErrWrongPassword
	}

	session := &AdminSession{
		UserID:       userID,
		SessionToken: generateSecureToken(),
		ExpiresAt:    now.Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Вход в админ-панель")
	return nil
}

// HasActiveSession проверяет, есть ли у пользователя активная сессия, и продлевает активность.
func (s *Service) HasActiveSession(ctx context.Context, userID int64) (bool, error) {
	session, err := s.repo.GetActiveSession(ctx, userID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if err := s.repo.UpdateActivity(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось обновить активность сессии")
	}
	return true, nil
}

// Logout завершает сессию.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	s.ClearState(userID)
	return s.repo.DeactivateSession(ctx, userID)
}

// ResetChild сбрасывает репутацию ребёнка. Нужна активная сессия.
func (s *Service) ResetChild(ctx context.Context, adminID, childID int64) (credibility.Status, error) {
	if err := s.requireSession(ctx, adminID); err != nil {
		return credibility.Status{}, err
	}
	status, err := s.credibility.Reset(ctx, childID)
	if err != nil {
		return credibility.Status{}, err
	}
	log.WithFields(log.Fields{
		"admin_id": adminID,
		"child_id": childID,
	}).Warn("Админ сбросил репутацию")
	return status, nil
}

// RunDecayNow запускает затухание штрафов вне расписания. Нужна активная сессия.
func (s *Service) RunDecayNow(ctx context.Context, adminID int64) ([]credibility.DecayResult, error) {
	if err := s.requireSession(ctx, adminID); err != nil {
		return nil, err
	}
	return s.credibility.RunDecayAll(ctx)
}

func (s *Service) requireSession(ctx context.Context, userID int64) error {
	ok, err := s.HasActiveSession(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrSessionExpired
	}
	return nil
}

// GetState возвращает текущее состояние диалога или nil, если его нет или оно истекло.
func (s *Service) GetState(userID int64) *AdminState {
	s.statesMu.RLock()
	defer s.statesMu.RUnlock()

	state, ok := s.states[userID]
	if !ok {
		return nil
	}
	if s.clock.Now().After(state.ExpiresAt) {
		return nil
	}
	return state
}

// SetState устанавливает состояние диалога с 5-минутным таймаутом.
func (s *Service) SetState(userID int64, state AdminState) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()

	state.ExpiresAt = s.clock.Now().Add(StateTTL)
	s.states[userID] = &state
}

// ClearState сбрасывает состояние диалога.
func (s *Service) ClearState(userID int64) {
	s.statesMu.Lock()
	defer s.statesMu.Unlock()
	delete(s.states, userID)
}

// --- Криптографические утилиты ---

// Параметры Argon2id для новых хешей.
const (
	hashMemory      uint32 = 64 * 1024
	hashIterations  uint32 = 3
	hashParallelism uint8  = 2
	hashKeyLength   uint32 = 32
	hashSaltLength         = 16
)

// HashPassword возвращает Argon2id-хеш пароля для ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: пустой пароль", common.ErrValidation)
	}
	salt := make([]byte, hashSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, hashIterations, hashMemory, hashParallelism, hashKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, hashMemory, hashIterations, hashParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
// Формат хеша: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		log.WithField("version", parts[2]).Error("Неподдерживаемая версия Argon2id")
		return false
	}

	var (
		memory      uint32
		iterations  uint32
		parallelism uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
