package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// RefreshTokenRepository manages persisted refresh tokens. Tokens are
// stored hashed; GetByRawToken hashes the presented value internally.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// GetByRawToken returns nil, nil when no matching row exists.
	GetByRawToken(ctx context.Context, rawToken string) (*models.RefreshToken, error)

	Remove(ctx context.Context, id uuid.UUID) error
	RemoveAllByUserID(ctx context.Context, userID uuid.UUID) error
	CleanupExpired(ctx context.Context) error

	// WithDB returns a copy bound to db, typically an open pgx.Tx.
	WithDB(db DB) RefreshTokenRepository
}

type refreshTokenRepository struct {
	db DB
}

func NewRefreshTokenRepository(db DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) WithDB(db DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
        INSERT INTO refresh_tokens (id, user_id, refresh_token, expires_at, created_at, revoked)
        VALUES ($1, $2, $3, $4, NOW(), $5)
    `
	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.UserID,
		utils.HashToken(token.Token),
		token.ExpiresAt,
		token.Revoked,
	)
	return err
}

func (r *refreshTokenRepository) GetByRawToken(ctx context.Context, rawToken string) (*models.RefreshToken, error) {
	hashed := utils.HashToken(rawToken)
	query := `
        SELECT id, user_id, refresh_token, expires_at, created_at, revoked
        FROM refresh_tokens
        WHERE refresh_token = $1
    `
	row := r.db.QueryRow(ctx, query, hashed)

	var rt models.RefreshToken
	err := row.Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.ExpiresAt,
		&rt.CreatedAt,
		&rt.Revoked,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}

func (r *refreshTokenRepository) Remove(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM refresh_tokens WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *refreshTokenRepository) RemoveAllByUserID(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`
	_, err := r.db.Exec(ctx, query, userID)
	return err
}

func (r *refreshTokenRepository) CleanupExpired(ctx context.Context) error {
	query := `DELETE FROM refresh_tokens WHERE expires_at < NOW()`
	_, err := r.db.Exec(ctx, query)
	return err
}
