package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"mystery-server/internal/model"
)

// Compile-time check to ensure pgGameRepository implements GameRepository
var _ GameRepository = (*pgGameRepository)(nil)

type pgGameRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgGameRepository creates a new PostgreSQL-backed GameRepository.
func NewPgGameRepository(db DBTX, logger *zap.Logger) GameRepository {
	return &pgGameRepository{
		db:     db,
		logger: logger.Named("PgGameRepo"),
	}
}

const gameColumns = `id, user_id, title, genre, tone, plot_seed, difficulty,
		image_prompt, generated_image_url, images, main_characters,
		premise, setting, chapters, possible_endings, status, degraded, created_at`

// Create inserts the assembled game and fills the store-assigned ID and
// creation timestamp back into the passed struct.
func (r *pgGameRepository) Create(ctx context.Context, game *model.Game) error {
	query := `
		INSERT INTO games (user_id, title, genre, tone, plot_seed, difficulty,
			image_prompt, generated_image_url, images, main_characters,
			premise, setting, chapters, possible_endings, status, degraded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at
	`

	if game.Status == "" {
		game.Status = model.GameStatusDraft
	}
	// JSONB-колонки не должны быть null, фронтенд ожидает [].
	if game.Images == nil {
		game.Images = []string{}
	}
	if game.MainCharacters == nil {
		game.MainCharacters = []model.CharacterSeed{}
	}
	if game.Chapters == nil {
		game.Chapters = []model.Chapter{}
	}
	if game.PossibleEndings == nil {
		game.PossibleEndings = []model.Ending{}
	}

	err := r.db.QueryRow(ctx, query,
		game.UserID, game.Title, game.Genre, game.Tone, game.PlotSeed, game.Difficulty,
		game.ImagePrompt, game.GeneratedImageURL, game.Images, game.MainCharacters,
		game.Premise, game.Setting, game.Chapters, game.PossibleEndings,
		game.Status, game.Degraded,
	).Scan(&game.ID, &game.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert game",
			zap.String("userID", game.UserID), zap.String("title", game.Title), zap.Error(err))
		return fmt.Errorf("failed to insert game in postgres: %w", err)
	}

	r.logger.Info("Game persisted",
		zap.Int64("gameID", game.ID), zap.String("userID", game.UserID), zap.String("title", game.Title))
	return nil
}

// GetByID retrieves a single game by its surrogate key. Ownership is checked
// by the caller: the repository returns the row regardless of user.
func (r *pgGameRepository) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	var game model.Game
	err := r.db.QueryRow(ctx, query, id).Scan(
		&game.ID, &game.UserID, &game.Title, &game.Genre, &game.Tone,
		&game.PlotSeed, &game.Difficulty, &game.ImagePrompt, &game.GeneratedImageURL,
		&game.Images, &game.MainCharacters, &game.Premise, &game.Setting,
		&game.Chapters, &game.PossibleEndings, &game.Status, &game.Degraded, &game.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrGameNotFound
		}
		r.logger.Error("Failed to get game from postgres", zap.Int64("gameID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get game from postgres: %w", err)
	}
	return &game, nil
}

// ListByUser returns all games owned by the user, newest first.
func (r *pgGameRepository) ListByUser(ctx context.Context, userID string) ([]model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE user_id = $1 ORDER BY created_at DESC`

	games := []model.Game{}
	if err := pgxscan.Select(ctx, r.db, &games, query, userID); err != nil {
		r.logger.Error("Failed to list games from postgres", zap.String("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list games from postgres: %w", err)
	}
	return games, nil
}
