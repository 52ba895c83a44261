package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mystery-server/internal/middleware"
	"mystery-server/internal/model"
	"mystery-server/internal/service"
	"mystery-server/pkg/ai"
)

// Системный промпт для /api/generate: эндпоинт принимает готовый промпт
// целиком, модели нужна только общая рамка.
const rawGenerateSystemPrompt = "You are a creative writing assistant. " +
	"Follow the instructions in the user message exactly."

// Handler wires the HTTP surface to the service layer.
type Handler struct {
	generation  service.GenerationService
	games       service.GameService
	users       service.UserService
	imageClient service.ImageClient
	aiClient    ai.Client
	logger      *zap.Logger
}

// New создает новый HTTP-обработчик.
func New(
	generation service.GenerationService,
	games service.GameService,
	users service.UserService,
	imageClient service.ImageClient,
	aiClient ai.Client,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		generation:  generation,
		games:       games,
		users:       users,
		imageClient: imageClient,
		aiClient:    aiClient,
		logger:      logger.Named("HTTPHandler"),
	}
}

// RegisterRoutes регистрирует все маршруты API. Все эндпоинты /api/*
// требуют аутентификации.
func (h *Handler) RegisterRoutes(router *gin.Engine, auth gin.HandlerFunc) {
	router.GET("/health", h.Health)

	api := router.Group("/api", auth)
	{
		api.POST("/generate-game", h.GenerateGame)
		api.POST("/generate", h.GenerateText)
		api.POST("/generate-image", h.GenerateImage)
		api.POST("/save-game", h.SaveGame)
		api.GET("/get-game", h.GetGame)
		api.GET("/get-user-games", h.GetUserGames)
		api.GET("/me", h.Me)
		api.POST("/users", h.CreateUser)
		api.POST("/update-credits", h.UpdateCredits)
	}
}

// Health - проверка живости сервиса.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GenerateGame запускает полный пайплайн генерации игры.
func (h *Handler) GenerateGame(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req GenerateGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	brief := model.GameBrief{
		Title:          req.Title,
		Genre:          req.Genre,
		Tone:           req.Tone,
		PlotSeed:       req.PlotSeed,
		Difficulty:     req.Difficulty,
		MainCharacters: req.MainCharacters,
	}

	result, err := h.generation.GenerateGame(c.Request.Context(), userID, brief)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, GenerateGameResponse{
		Game:             result.Game,
		Degraded:         result.Degraded,
		CreditsRemaining: result.CreditsRemaining,
	})
}

// GenerateText - сырая текстовая генерация без разбора и персистентности.
func (h *Handler) GenerateText(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req GenerateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "prompt is required"})
		return
	}

	result, _, err := h.aiClient.GenerateText(c.Request.Context(), userID, rawGenerateSystemPrompt, req.Prompt)
	if err != nil {
		respondWithError(c, h.logger, fmt.Errorf("%w: %v", model.ErrAIGenerationFailed, err))
		return
	}
	c.JSON(http.StatusOK, GenerateTextResponse{Result: result})
}

// GenerateImage генерирует изображение по готовому промпту.
func (h *Handler) GenerateImage(c *gin.Context) {
	if _, ok := middleware.UserIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req GenerateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "prompt is required"})
		return
	}

	image, err := h.imageClient.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, GenerateImageResponse{
		ImageURL:    image.URL,
		ImageBase64: image.Base64,
	})
}

// SaveGame сохраняет игру с уже сгенерированным контентом.
func (h *Handler) SaveGame(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req SaveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	game, err := h.games.SaveGame(c.Request.Context(), userID, service.SaveGameInput{
		Title:             req.Title,
		Genre:             req.Genre,
		Tone:              req.Tone,
		PlotSeed:          req.PlotSeed,
		Difficulty:        req.Difficulty,
		ImagePrompt:       req.ImagePrompt,
		GeneratedImageURL: req.GeneratedImageURL,
		Images:            req.Images,
		MainCharacters:    req.MainCharacters,
		RawContent:        req.GameContent,
	})
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, SaveGameResponse{
		Success:  true,
		GameID:   game.ID,
		Game:     game,
		Degraded: game.Degraded,
	})
}

// GetGame возвращает одну игру текущего пользователя.
func (h *Handler) GetGame(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	gameID, err := strconv.ParseInt(c.Query("id"), 10, 64)
	if err != nil || gameID <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "valid game id is required"})
		return
	}

	game, err := h.games.GetGame(c.Request.Context(), userID, gameID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

// GetUserGames возвращает все игры текущего пользователя, новые первыми.
func (h *Handler) GetUserGames(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	games, err := h.games.ListUserGames(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	user, err := h.users.GetByExternalID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// CreateUser регистрирует пользователя (идемпотентный апсерт).
func (h *Handler) CreateUser(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return
	}

	user, err := h.users.GetOrCreate(c.Request.Context(), userID, req.Email, req.Username)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateCredits аддитивно изменяет баланс текущего пользователя.
func (h *Handler) UpdateCredits(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "non-zero delta is required"})
		return
	}

	credits, err := h.users.UpdateCredits(c.Request.Context(), userID, req.Delta)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, UpdateCreditsResponse{Credits: credits})
}
