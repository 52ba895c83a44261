package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mystery-server/internal/mocks"
	"mystery-server/internal/model"
	"mystery-server/internal/service"
	"mystery-server/pkg/ai"
)

func newGameService(t *testing.T) (service.GameService, *mocks.MockGameRepository) {
	t.Helper()
	repo := &mocks.MockGameRepository{}
	return service.NewGameService(repo, ai.NewParser(zap.NewNop()), zap.NewNop()), repo
}

func TestSaveGame_ParsesRawContent(t *testing.T) {
	svc, repo := newGameService(t)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*model.Game")).
		Run(func(args mock.Arguments) {
			game := args.Get(1).(*model.Game)
			game.ID = 7
		}).Return(nil).Once()

	game, err := svc.SaveGame(ctx, testUserID, service.SaveGameInput{
		Title:      "T",
		Genre:      "Noir",
		Tone:       "Dark",
		PlotSeed:   "Seed",
		RawContent: "```json\n" + testNarrativeJSON + "\n```",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7), game.ID)
	assert.False(t, game.Degraded)
	assert.Equal(t, "The Grand Opera House", game.Setting.Location)
	repo.AssertExpectations(t)
}

func TestSaveGame_UnparsableContentDegrades(t *testing.T) {
	svc, repo := newGameService(t)
	ctx := context.Background()

	repo.On("Create", ctx, mock.AnythingOfType("*model.Game")).Return(nil).Once()

	game, err := svc.SaveGame(ctx, testUserID, service.SaveGameInput{
		Title: "T", Genre: "Noir", Tone: "Dark", PlotSeed: "Seed",
		RawContent: "not json",
	})

	require.NoError(t, err)
	assert.True(t, game.Degraded)
	assert.NotNil(t, game.Chapters)
}

func TestSaveGame_MissingRequiredFields(t *testing.T) {
	svc, repo := newGameService(t)

	_, err := svc.SaveGame(context.Background(), testUserID, service.SaveGameInput{Title: "T"})

	assert.ErrorIs(t, err, model.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetGame_OwnershipCheck(t *testing.T) {
	svc, repo := newGameService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(5)).
		Return(&model.Game{ID: 5, UserID: "someone-else"}, nil).Once()

	_, err := svc.GetGame(ctx, testUserID, 5)
	assert.ErrorIs(t, err, model.ErrNotGameOwner)
}

func TestGetGame_NotFound(t *testing.T) {
	svc, repo := newGameService(t)
	ctx := context.Background()

	repo.On("GetByID", ctx, int64(5)).Return(nil, model.ErrGameNotFound).Once()

	_, err := svc.GetGame(ctx, testUserID, 5)
	assert.ErrorIs(t, err, model.ErrGameNotFound)
}

func TestUserService_UpdateCredits(t *testing.T) {
	users := &mocks.MockUserRepository{}
	svc := service.NewUserService(users, zap.NewNop())
	ctx := context.Background()

	users.On("AddCredits", ctx, testUserID, 5).Return(7, nil).Once()
	credits, err := svc.UpdateCredits(ctx, testUserID, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, credits)

	users.On("DebitCredits", ctx, testUserID, 3).Return(4, nil).Once()
	credits, err = svc.UpdateCredits(ctx, testUserID, -3)
	require.NoError(t, err)
	assert.Equal(t, 4, credits)

	_, err = svc.UpdateCredits(ctx, testUserID, 0)
	assert.ErrorIs(t, err, model.ErrValidation)

	users.AssertExpectations(t)
}

func TestUserService_DebitPropagatesInsufficientCredits(t *testing.T) {
	users := &mocks.MockUserRepository{}
	svc := service.NewUserService(users, zap.NewNop())
	ctx := context.Background()

	users.On("DebitCredits", ctx, testUserID, 10).
		Return(0, model.ErrInsufficientCredits).Once()

	_, err := svc.UpdateCredits(ctx, testUserID, -10)
	assert.ErrorIs(t, err, model.ErrInsufficientCredits)
}

func TestUserService_GetOrCreate(t *testing.T) {
	users := &mocks.MockUserRepository{}
	svc := service.NewUserService(users, zap.NewNop())
	ctx := context.Background()

	users.On("Upsert", ctx, testUserID, "a@b.c", "vera").
		Return(&model.User{ExternalID: testUserID, Credits: model.DefaultStartingCredits}, nil).Once()

	user, err := svc.GetOrCreate(ctx, testUserID, "a@b.c", "vera")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStartingCredits, user.Credits)

	_, err = svc.GetOrCreate(ctx, "", "a@b.c", "vera")
	assert.ErrorIs(t, err, model.ErrValidation)

	users.AssertNotCalled(t, "Upsert", ctx, "", "a@b.c", "vera")
}

func TestUserService_UpsertError(t *testing.T) {
	users := &mocks.MockUserRepository{}
	svc := service.NewUserService(users, zap.NewNop())
	ctx := context.Background()

	users.On("Upsert", ctx, testUserID, "", "").
		Return(nil, errors.New("db down")).Once()

	_, err := svc.GetOrCreate(ctx, testUserID, "", "")
	assert.Error(t, err)
}
