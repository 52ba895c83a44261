package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"mystery-server/internal/model"
	"mystery-server/internal/repository"
	"mystery-server/pkg/ai"
)

// SaveGameInput - данные для прямого сохранения игры, когда контент уже
// сгенерирован на стороне клиента.
type SaveGameInput struct {
	Title             string
	Genre             string
	Tone              string
	PlotSeed          string
	Difficulty        string
	ImagePrompt       string
	GeneratedImageURL string
	Images            []string
	MainCharacters    []model.CharacterSeed
	// RawContent - сырой ответ модели; разбирается защищенным парсером.
	RawContent string
}

// GameService - чтение и прямое сохранение игр.
type GameService interface {
	SaveGame(ctx context.Context, userID string, input SaveGameInput) (*model.Game, error)
	// GetGame возвращает игру, проверяя владение: чужая игра дает
	// ErrNotGameOwner, а не ErrGameNotFound, чтобы не маскировать причину.
	GetGame(ctx context.Context, userID string, gameID int64) (*model.Game, error)
	ListUserGames(ctx context.Context, userID string) ([]model.Game, error)
}

var _ GameService = (*gameServiceImpl)(nil)

type gameServiceImpl struct {
	games  repository.GameRepository
	parser *ai.Parser
	logger *zap.Logger
}

// NewGameService создает новый сервис игр.
func NewGameService(games repository.GameRepository, parser *ai.Parser, logger *zap.Logger) GameService {
	return &gameServiceImpl{
		games:  games,
		parser: parser,
		logger: logger.Named("GameService"),
	}
}

func (s *gameServiceImpl) SaveGame(ctx context.Context, userID string, input SaveGameInput) (*model.Game, error) {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Genre) == "" ||
		strings.TrimSpace(input.Tone) == "" ||
		strings.TrimSpace(input.PlotSeed) == "" {
		return nil, fmt.Errorf("%w: title, genre, tone and plotSeed are required", model.ErrValidation)
	}

	narrative := model.EmptyNarrative()
	degraded := false
	if strings.TrimSpace(input.RawContent) != "" {
		narrative, degraded = s.parser.ParseNarrative(input.RawContent)
	}

	game := &model.Game{
		UserID:            userID,
		Title:             input.Title,
		Genre:             input.Genre,
		Tone:              input.Tone,
		PlotSeed:          input.PlotSeed,
		Difficulty:        input.Difficulty,
		ImagePrompt:       input.ImagePrompt,
		GeneratedImageURL: input.GeneratedImageURL,
		Images:            input.Images,
		MainCharacters:    input.MainCharacters,
		Premise:           narrative.Premise,
		Setting:           narrative.Setting,
		Chapters:          narrative.Chapters,
		PossibleEndings:   narrative.PossibleEndings,
		Status:            model.GameStatusDraft,
		Degraded:          degraded,
	}
	if err := s.games.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistenceFailed, err)
	}

	s.logger.Info("Game saved",
		zap.Int64("gameID", game.ID), zap.String("userID", userID), zap.Bool("degraded", degraded))
	return game, nil
}

func (s *gameServiceImpl) GetGame(ctx context.Context, userID string, gameID int64) (*model.Game, error) {
	game, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.UserID != userID {
		s.logger.Warn("Game ownership check failed",
			zap.Int64("gameID", gameID), zap.String("requesterID", userID))
		return nil, model.ErrNotGameOwner
	}
	return game, nil
}

func (s *gameServiceImpl) ListUserGames(ctx context.Context, userID string) ([]model.Game, error) {
	return s.games.ListByUser(ctx, userID)
}
