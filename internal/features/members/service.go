// Package members - service.go содержит бизнес-логику реестра семьи.
// Сервис регистрирует участников чата, назначает детей и отвечает
// на вопрос «есть ли такой ребёнок» для репутации и кошелька.
package members

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/credibility-bot/internal/common"
)

// ErrGuardianAsChild - родителя нельзя зарегистрировать ребёнком.
var ErrGuardianAsChild = errors.New("родителя нельзя записать ребёнком")

// Service управляет участниками семьи.
type Service struct {
	repo      *Repository
	guardians map[int64]bool // Родители из конфигурации
}

// NewService создаёт новый сервис участников.
func NewService(repo *Repository, guardianIDs []int64) *Service {
	guardians := make(map[int64]bool, len(guardianIDs))
	for _, id := range guardianIDs {
		guardians[id] = true
	}
	return &Service{repo: repo, guardians: guardians}
}

// IsGuardian проверяет, что пользователь - родитель.
func (s *Service) IsGuardian(userID int64) bool {
	return s.guardians[userID]
}

// HandleNewMember обрабатывает появление пользователя в чате.
// Если пользователь уже есть в базе - обновляет его данные, иначе создаёт запись.
// Родителям из конфигурации сразу назначается роль guardian.
func (s *Service) HandleNewMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		return err
	}
	if existing != nil {
		log.WithField("user_id", userID).Info("Участник вернулся в чат, обновляем данные")
		return s.repo.UpdateInfo(ctx, userID, UpdateInfo{
			Username:  username,
			FirstName: firstName,
			LastName:  lastName,
		})
	}

	member := &Member{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	}
	if s.IsGuardian(userID) {
		role := RoleGuardian
		member.Role = &role
	}

	if err := s.repo.Create(ctx, member); err != nil {
		return fmt.Errorf("ошибка регистрации нового участника: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id":  userID,
		"username": username,
		"guardian": member.Role != nil,
	}).Info("Новый участник зарегистрирован")

	return nil
}

// EnsureMember гарантирует, что пользователь есть в базе.
// Используется при первом сообщении в чате.
func (s *Service) EnsureMember(ctx context.Context, userID int64, username, firstName, lastName string) error {
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.HandleNewMember(ctx, userID, username, firstName, lastName)
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// Resolve находит участника по @username или id.
func (s *Service) Resolve(ctx context.Context, ref ChildRef) (*Member, error) {
	if ref.UserID != 0 {
		return s.repo.GetByUserID(ctx, ref.UserID)
	}
	return s.repo.GetByUsername(ctx, ref.Username)
}

// ResolveChild находит ребёнка по аргументу команды.
// Участник без роли child - common.ErrUnknownChild.
func (s *Service) ResolveChild(ctx context.Context, arg string) (*Member, error) {
	ref, ok := ParseChildRef(arg)
	if !ok {
		return nil, common.ErrUnknownChild
	}
	m, err := s.Resolve(ctx, ref)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return nil, common.ErrUnknownChild
		}
		return nil, err
	}
	if !m.IsChild() {
		return nil, common.ErrUnknownChild
	}
	return m, nil
}

// RegisterChild назначает участнику роль ребёнка.
// Повторная регистрация безопасна: родитель просто обновляется.
func (s *Service) RegisterChild(ctx context.Context, guardianID int64, ref ChildRef) (*Member, error) {
	if !s.IsGuardian(guardianID) {
		return nil, common.ErrNotGuardian
	}
	m, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s.IsGuardian(m.UserID) {
		return nil, ErrGuardianAsChild
	}

	if err := s.repo.SetRole(ctx, m.UserID, RoleChild, &guardianID); err != nil {
		return nil, err
	}
	role := RoleChild
	m.Role = &role
	m.GuardianID = &guardianID

	log.WithFields(log.Fields{
		"child_id":    m.UserID,
		"guardian_id": guardianID,
	}).Info("Ребёнок зарегистрирован")
	return m, nil
}

// ChildExists проверяет, что ребёнок зарегистрирован.
// Через этот метод сервис репутации проверяет запросы обмена.
func (s *Service) ChildExists(ctx context.Context, childID int64) (bool, error) {
	return s.repo.ChildExists(ctx, childID)
}

// ListChildren возвращает всех детей семьи.
func (s *Service) ListChildren(ctx context.Context) ([]*Member, error) {
	return s.repo.ListChildren(ctx)
}

// ChildrenOf возвращает детей, зарегистрированных родителем.
func (s *Service) ChildrenOf(ctx context.Context, guardianID int64) ([]*Member, error) {
	return s.repo.ChildrenOf(ctx, guardianID)
}

// DisplayName возвращает отображаемое имя участника или его id, если участник не найден.
func (s *Service) DisplayName(ctx context.Context, userID int64) string {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Sprintf("id%d", userID)
	}
	return m.DisplayName()
}

// IsMember проверяет, что пользователь уже есть в реестре.
func (s *Service) IsMember(ctx context.Context, userID int64) (bool, error) {
	return s.repo.Exists(ctx, userID)
}
