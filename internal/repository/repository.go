package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"mystery-server/internal/model"
)

// DBTX объединяет методы pgxpool.Pool и pgx.Tx, используемые репозиториями.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository - хранилище пользователей и их кредитного баланса.
// Все операции с кредитами аддитивные: абсолютное значение баланса
// никогда не принимается от вызывающего кода.
type UserRepository interface {
	// Upsert creates the user with the default credit balance if the
	// external ID is unknown, otherwise returns the existing record with
	// its balance untouched.
	Upsert(ctx context.Context, externalID, email, username string) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	// DebitCredits atomically subtracts n credits if the balance allows it.
	// Returns the new balance, or ErrInsufficientCredits / ErrUserNotFound.
	DebitCredits(ctx context.Context, externalID string, n int) (int, error)
	// AddCredits atomically adds n credits and returns the new balance.
	AddCredits(ctx context.Context, externalID string, n int) (int, error)
}

// GameRepository - хранилище сгенерированных игр.
type GameRepository interface {
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id int64) (*model.Game, error)
	ListByUser(ctx context.Context, userID string) ([]model.Game, error)
}

// GenerationLocker guards against two concurrent pipelines for one user.
type GenerationLocker interface {
	// Acquire returns false if another generation for this user holds the lock.
	Acquire(ctx context.Context, userID string) (bool, error)
	Release(ctx context.Context, userID string)
}
