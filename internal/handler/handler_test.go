package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mystery-server/internal/handler"
	"mystery-server/internal/middleware"
	"mystery-server/internal/mocks"
	"mystery-server/internal/model"
	"mystery-server/internal/service"
)

const (
	testSecret = "test-secret"
	testUserID = "user-123"
)

type handlerMocks struct {
	generation *mocks.MockGenerationService
	games      *mocks.MockGameService
	users      *mocks.MockUserService
	image      *mocks.MockImageClient
	aiClient   *mocks.MockAIClient
}

func newTestRouter(t *testing.T) (*gin.Engine, *handlerMocks) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := &handlerMocks{
		generation: &mocks.MockGenerationService{},
		games:      &mocks.MockGameService{},
		users:      &mocks.MockUserService{},
		image:      &mocks.MockImageClient{},
		aiClient:   &mocks.MockAIClient{},
	}

	h := handler.New(m.generation, m.games, m.users, m.image, m.aiClient, zap.NewNop())
	router := gin.New()
	h.RegisterRoutes(router, middleware.JWTAuth(testSecret, zap.NewNop()))
	return router, m
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func testToken(t *testing.T) string {
	t.Helper()
	token, err := middleware.GenerateTestJWT(testUserID, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestGenerateGame_Unauthorized(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/generate-game",
		map[string]string{"title": "T", "plotSeed": "S"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := middleware.GenerateTestJWT(testUserID, testSecret, -time.Hour)
	require.NoError(t, err)
	w = doRequest(t, router, http.MethodPost, "/api/generate-game",
		map[string]string{"title": "T", "plotSeed": "S"}, expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateGame_Success(t *testing.T) {
	router, m := newTestRouter(t)

	m.generation.On("GenerateGame", mock.Anything, testUserID, mock.AnythingOfType("model.GameBrief")).
		Return(&model.GenerationResult{
			Game:             &model.Game{ID: 42, Title: "T", Status: model.GameStatusDraft},
			Degraded:         false,
			CreditsRemaining: 1,
		}, nil).Once()

	w := doRequest(t, router, http.MethodPost, "/api/generate-game",
		map[string]any{"title": "T", "genre": "Noir", "tone": "Dark", "plotSeed": "S"}, testToken(t))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp handler.GenerateGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Game.ID)
	assert.Equal(t, 1, resp.CreditsRemaining)
	m.generation.AssertExpectations(t)
}

func TestGenerateGame_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"insufficient credits", model.ErrInsufficientCredits, http.StatusPaymentRequired},
		{"generation in progress", model.ErrGenerationInProgress, http.StatusConflict},
		{"ai failure", model.ErrAIGenerationFailed, http.StatusBadGateway},
		{"persistence failure", model.ErrPersistenceFailed, http.StatusInternalServerError},
		{"validation", model.ErrValidation, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, m := newTestRouter(t)
			m.generation.On("GenerateGame", mock.Anything, testUserID, mock.Anything).
				Return(nil, tc.err).Once()

			w := doRequest(t, router, http.MethodPost, "/api/generate-game",
				map[string]any{"title": "T", "genre": "Noir", "tone": "Dark", "plotSeed": "S"}, testToken(t))
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestGenerateGame_InvalidBody(t *testing.T) {
	router, m := newTestRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/generate-game",
		map[string]any{"genre": "Noir"}, testToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Жанр и тон обязательны наравне с названием и завязкой.
	w = doRequest(t, router, http.MethodPost, "/api/generate-game",
		map[string]any{"title": "T", "genre": "Noir", "plotSeed": "S"}, testToken(t))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	m.generation.AssertNotCalled(t, "GenerateGame", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetGame(t *testing.T) {
	router, m := newTestRouter(t)

	m.games.On("GetGame", mock.Anything, testUserID, int64(5)).
		Return(&model.Game{ID: 5, UserID: testUserID, Title: "T"}, nil).Once()

	w := doRequest(t, router, http.MethodGet, "/api/get-game?id=5", nil, testToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var game model.Game
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &game))
	assert.Equal(t, int64(5), game.ID)
}

func TestGetGame_BadID(t *testing.T) {
	router, m := newTestRouter(t)

	for _, path := range []string{"/api/get-game", "/api/get-game?id=abc", "/api/get-game?id=-1"} {
		w := doRequest(t, router, http.MethodGet, path, nil, testToken(t))
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
	m.games.AssertNotCalled(t, "GetGame", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetGame_Forbidden(t *testing.T) {
	router, m := newTestRouter(t)

	m.games.On("GetGame", mock.Anything, testUserID, int64(5)).
		Return(nil, model.ErrNotGameOwner).Once()

	w := doRequest(t, router, http.MethodGet, "/api/get-game?id=5", nil, testToken(t))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetUserGames(t *testing.T) {
	router, m := newTestRouter(t)

	m.games.On("ListUserGames", mock.Anything, testUserID).
		Return([]model.Game{{ID: 1}, {ID: 2}}, nil).Once()

	w := doRequest(t, router, http.MethodGet, "/api/get-user-games", nil, testToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Games []model.Game `json:"games"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Games, 2)
}

func TestSaveGame(t *testing.T) {
	router, m := newTestRouter(t)

	m.games.On("SaveGame", mock.Anything, testUserID, mock.AnythingOfType("service.SaveGameInput")).
		Return(&model.Game{ID: 9, Degraded: false}, nil).Once()

	w := doRequest(t, router, http.MethodPost, "/api/save-game", map[string]any{
		"title": "T", "genre": "Noir", "tone": "Dark", "plotSeed": "S",
		"gameContent": `{"premise": "p"}`,
	}, testToken(t))

	require.Equal(t, http.StatusCreated, w.Code)
	var resp handler.SaveGameResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(9), resp.GameID)
	require.NotNil(t, resp.Game)
	assert.Equal(t, int64(9), resp.Game.ID)
}

func TestGenerateImage(t *testing.T) {
	router, m := newTestRouter(t)

	m.image.On("Generate", mock.Anything, "a noir scene").
		Return(service.GeneratedImage{URL: "https://img.example/x.jpg"}, nil).Once()

	w := doRequest(t, router, http.MethodPost, "/api/generate-image",
		map[string]string{"prompt": "a noir scene"}, testToken(t))

	require.Equal(t, http.StatusOK, w.Code)
	var resp handler.GenerateImageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://img.example/x.jpg", resp.ImageURL)
}

func TestMe(t *testing.T) {
	router, m := newTestRouter(t)

	m.users.On("GetByExternalID", mock.Anything, testUserID).
		Return(&model.User{ExternalID: testUserID, Credits: 2}, nil).Once()

	w := doRequest(t, router, http.MethodGet, "/api/me", nil, testToken(t))
	require.Equal(t, http.StatusOK, w.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, testUserID, user.ExternalID)
}

func TestUpdateCredits(t *testing.T) {
	router, m := newTestRouter(t)

	m.users.On("UpdateCredits", mock.Anything, testUserID, 5).Return(7, nil).Once()

	w := doRequest(t, router, http.MethodPost, "/api/update-credits",
		map[string]int{"delta": 5}, testToken(t))

	require.Equal(t, http.StatusOK, w.Code)
	var resp handler.UpdateCreditsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 7, resp.Credits)
}

func TestUpdateCredits_Insufficient(t *testing.T) {
	router, m := newTestRouter(t)

	m.users.On("UpdateCredits", mock.Anything, testUserID, -5).
		Return(0, model.ErrInsufficientCredits).Once()

	w := doRequest(t, router, http.MethodPost, "/api/update-credits",
		map[string]int{"delta": -5}, testToken(t))
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w := doRequest(t, router, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
