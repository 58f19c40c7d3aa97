package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken for the refresh_tokens table. Token holds the raw token
// in memory only; the repository hashes it before it reaches the DB.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}
