package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"mystery-server/internal/model"
)

// Compile-time check to ensure pgUserRepository implements UserRepository
var _ UserRepository = (*pgUserRepository)(nil)

type pgUserRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgUserRepository creates a new PostgreSQL-backed UserRepository.
func NewPgUserRepository(db DBTX, logger *zap.Logger) UserRepository {
	return &pgUserRepository{
		db:     db,
		logger: logger.Named("PgUserRepo"),
	}
}

const userColumns = `id, external_id, email, username, credits, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.ExternalID, &u.Email, &u.Username, &u.Credits, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Upsert inserts a new user with the default credit balance, or returns the
// existing record if the external ID is already registered. The existing
// balance is never overwritten by a repeated upsert.
func (r *pgUserRepository) Upsert(ctx context.Context, externalID, email, username string) (*model.User, error) {
	query := `
		INSERT INTO users (external_id, email, username, credits)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO UPDATE SET updated_at = now()
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(ctx, query, externalID, email, username, model.DefaultStartingCredits))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			r.logger.Error("Failed to upsert user",
				zap.String("externalID", externalID),
				zap.String("pgCode", pgErr.Code),
				zap.Error(err))
		} else {
			r.logger.Error("Failed to upsert user", zap.String("externalID", externalID), zap.Error(err))
		}
		return nil, fmt.Errorf("failed to upsert user in postgres: %w", err)
	}
	return user, nil
}

// GetByExternalID retrieves a user by the ID issued by the identity provider.
func (r *pgUserRepository) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id = $1`

	user, err := scanUser(r.db.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("User not found by external ID", zap.String("externalID", externalID))
			return nil, model.ErrUserNotFound
		}
		r.logger.Error("Failed to get user from postgres", zap.String("externalID", externalID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user from postgres: %w", err)
	}
	return user, nil
}

// DebitCredits performs a single conditional decrement: the UPDATE only
// matches when the balance covers the debit, so two concurrent debits can
// never take the balance below zero.
func (r *pgUserRepository) DebitCredits(ctx context.Context, externalID string, n int) (int, error) {
	query := `
		UPDATE users
		SET credits = credits - $2, updated_at = now()
		WHERE external_id = $1 AND credits >= $2
		RETURNING credits
	`

	var balance int
	err := r.db.QueryRow(ctx, query, externalID, n).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Либо пользователя нет, либо не хватает кредитов. Различаем.
			if _, getErr := r.GetByExternalID(ctx, externalID); getErr != nil {
				return 0, getErr
			}
			r.logger.Info("Debit rejected: insufficient credits",
				zap.String("externalID", externalID), zap.Int("debit", n))
			return 0, model.ErrInsufficientCredits
		}
		r.logger.Error("Failed to debit credits", zap.String("externalID", externalID), zap.Error(err))
		return 0, fmt.Errorf("failed to debit credits: %w", err)
	}

	r.logger.Info("Credits debited",
		zap.String("externalID", externalID), zap.Int("debit", n), zap.Int("newBalance", balance))
	return balance, nil
}

// AddCredits adds n credits to the balance (top-up or refund).
func (r *pgUserRepository) AddCredits(ctx context.Context, externalID string, n int) (int, error) {
	query := `
		UPDATE users
		SET credits = credits + $2, updated_at = now()
		WHERE external_id = $1
		RETURNING credits
	`

	var balance int
	err := r.db.QueryRow(ctx, query, externalID, n).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrUserNotFound
		}
		r.logger.Error("Failed to add credits", zap.String("externalID", externalID), zap.Error(err))
		return 0, fmt.Errorf("failed to add credits: %w", err)
	}

	r.logger.Info("Credits added",
		zap.String("externalID", externalID), zap.Int("added", n), zap.Int("newBalance", balance))
	return balance, nil
}
