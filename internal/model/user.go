package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultStartingCredits — количество кредитов, которое получает новый пользователь.
const DefaultStartingCredits = 2

// User represents a user in the system. Identity is managed by an external
// provider; ExternalID is the stable ID it issues (e.g. "user_xxxxx").
type User struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"externalId"`
	Email      string    `db:"email" json:"email"`
	Username   string    `db:"username" json:"username,omitempty"`
	Credits    int       `db:"credits" json:"credits"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `db:"updated_at" json:"updatedAt"`
}
