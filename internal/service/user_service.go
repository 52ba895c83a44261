package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mystery-server/internal/model"
	"mystery-server/internal/repository"
)

// UserService - операции над профилем и кредитным балансом.
type UserService interface {
	// GetOrCreate возвращает пользователя, создавая его при первом обращении
	// со стартовым балансом кредитов.
	GetOrCreate(ctx context.Context, externalID, email, username string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	// UpdateCredits изменяет баланс на delta. Положительная delta начисляет,
	// отрицательная списывает с проверкой достаточности. Абсолютной
	// установки баланса нет намеренно: операция аддитивна и безопасна при
	// конкурентных запросах.
	UpdateCredits(ctx context.Context, externalID string, delta int) (int, error)
}

var _ UserService = (*userServiceImpl)(nil)

type userServiceImpl struct {
	users  repository.UserRepository
	logger *zap.Logger
}

// NewUserService создает новый сервис пользователей.
func NewUserService(users repository.UserRepository, logger *zap.Logger) UserService {
	return &userServiceImpl{
		users:  users,
		logger: logger.Named("UserService"),
	}
}

func (s *userServiceImpl) GetOrCreate(ctx context.Context, externalID, email, username string) (*model.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external user id is required", model.ErrValidation)
	}
	user, err := s.users.Upsert(ctx, externalID, email, username)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userServiceImpl) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external user id is required", model.ErrValidation)
	}
	return s.users.GetByExternalID(ctx, externalID)
}

func (s *userServiceImpl) UpdateCredits(ctx context.Context, externalID string, delta int) (int, error) {
	if externalID == "" {
		return 0, fmt.Errorf("%w: external user id is required", model.ErrValidation)
	}
	if delta == 0 {
		return 0, fmt.Errorf("%w: credit delta must be non-zero", model.ErrValidation)
	}

	var (
		credits int
		err     error
	)
	if delta > 0 {
		credits, err = s.users.AddCredits(ctx, externalID, delta)
	} else {
		credits, err = s.users.DebitCredits(ctx, externalID, -delta)
	}
	if err != nil {
		return 0, err
	}

	s.logger.Info("Credits updated",
		zap.String("userID", externalID), zap.Int("delta", delta), zap.Int("credits", credits))
	return credits, nil
}
