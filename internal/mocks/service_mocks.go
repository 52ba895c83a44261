package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mystery-server/internal/model"
	"mystery-server/internal/service"
)

// MockGenerationService is a mock type for the GenerationService type
type MockGenerationService struct {
	mock.Mock
}

var _ service.GenerationService = (*MockGenerationService)(nil)

func (_m *MockGenerationService) GenerateGame(ctx context.Context, userID string, brief model.GameBrief) (*model.GenerationResult, error) {
	ret := _m.Called(ctx, userID, brief)

	var r0 *model.GenerationResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.GenerationResult)
	}
	return r0, ret.Error(1)
}

// MockGameService is a mock type for the GameService type
type MockGameService struct {
	mock.Mock
}

var _ service.GameService = (*MockGameService)(nil)

func (_m *MockGameService) SaveGame(ctx context.Context, userID string, input service.SaveGameInput) (*model.Game, error) {
	ret := _m.Called(ctx, userID, input)

	var r0 *model.Game
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Game)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) GetGame(ctx context.Context, userID string, gameID int64) (*model.Game, error) {
	ret := _m.Called(ctx, userID, gameID)

	var r0 *model.Game
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Game)
	}
	return r0, ret.Error(1)
}

func (_m *MockGameService) ListUserGames(ctx context.Context, userID string) ([]model.Game, error) {
	ret := _m.Called(ctx, userID)

	var r0 []model.Game
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.Game)
	}
	return r0, ret.Error(1)
}

// MockUserService is a mock type for the UserService type
type MockUserService struct {
	mock.Mock
}

var _ service.UserService = (*MockUserService)(nil)

func (_m *MockUserService) GetOrCreate(ctx context.Context, externalID, email, username string) (*model.User, error) {
	ret := _m.Called(ctx, externalID, email, username)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserService) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	ret := _m.Called(ctx, externalID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserService) UpdateCredits(ctx context.Context, externalID string, delta int) (int, error) {
	ret := _m.Called(ctx, externalID, delta)
	return ret.Int(0), ret.Error(1)
}
