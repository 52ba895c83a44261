package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mystery-server/internal/model"
	"mystery-server/internal/repository"
)

// MockUserRepository is a mock type for the UserRepository type
type MockUserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

func (_m *MockUserRepository) Upsert(ctx context.Context, externalID, email, username string) (*model.User, error) {
	ret := _m.Called(ctx, externalID, email, username)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	ret := _m.Called(ctx, externalID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserRepository) DebitCredits(ctx context.Context, externalID string, amount int) (int, error) {
	ret := _m.Called(ctx, externalID, amount)
	return ret.Int(0), ret.Error(1)
}

func (_m *MockUserRepository) AddCredits(ctx context.Context, externalID string, amount int) (int, error) {
	ret := _m.Called(ctx, externalID, amount)
	return ret.Int(0), ret.Error(1)
}

// MockGameRepository is a mock type for the GameRepository type
type MockGameRepository struct {
	mock.Mock
}

var _ repository.GameRepository = (*MockGameRepository)(nil)

func (_m *MockGameRepository) Create(ctx context.Context, game *model.Game) error {
	ret := _m.Called(ctx, game)
	return ret.Error(0)
}

func (_m *MockGameRepository) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.Game
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Game)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameRepository) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	ret := _m.Called(ctx, userID)

	var r0 []model.Game
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Game)
	}
	return r0, ret.Error(1)
}

// MockGenerationLocker is a mock type for the GenerationLocker type
type MockGenerationLocker struct {
	mock.Mock
}

var _ repository.GenerationLocker = (*MockGenerationLocker)(nil)

func (_m *MockGenerationLocker) Acquire(ctx context.Context, userID string) (bool, error) {
	ret := _m.Called(ctx, userID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockGenerationLocker) Release(ctx context.Context, userID string) {
	_m.Called(ctx, userID)
}
