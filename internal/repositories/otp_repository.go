package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/models"
)

// OTPStats aggregates otp_codes counters for the admin dashboard.
type OTPStats struct {
	TotalCodes   int64
	UsedCodes    int64
	ExpiredCodes int64
	CodesToday   int64
}

type OTPRepository interface {
	// Replace invalidates every live code for the phone number and
	// inserts a fresh one, atomically ("last code wins").
	Replace(ctx context.Context, phone, code string, ttl time.Duration) (*models.OTPCode, error)

	// Consume finds the most recent live row matching phone+code,
	// locks it and marks it used, all in one transaction. Concurrent
	// calls for the same code serialize on the row lock, so exactly
	// one of them gets the row; the rest see pgx.ErrNoRows.
	Consume(ctx context.Context, phone, code string) (*models.OTPCode, error)

	// MarkUsed invalidates a single code, e.g. after a delivery failure.
	MarkUsed(ctx context.Context, id uuid.UUID) error

	// CleanupOlderThan removes historical rows created before cutoff.
	CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	Stats(ctx context.Context) (*OTPStats, error)

	// WithDB returns a copy bound to db, typically an open pgx.Tx.
	WithDB(db DB) OTPRepository
}

type otpRepository struct {
	db DB
}

func NewOTPRepository(db DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) WithDB(db DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Replace(ctx context.Context, phone, code string, ttl time.Duration) (*models.OTPCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE otp_codes
        SET is_used = TRUE
        WHERE phone_number = $1 AND is_used = FALSE
    `, phone)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rec := &models.OTPCode{
		ID:          uuid.New(),
		PhoneNumber: phone,
		Code:        code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO otp_codes (id, phone_number, code, created_at, expires_at, is_used)
        VALUES ($1, $2, $3, $4, $5, FALSE)
    `, rec.ID, rec.PhoneNumber, rec.Code, rec.CreatedAt, rec.ExpiresAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *otpRepository) Consume(ctx context.Context, phone, code string) (*models.OTPCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Ties should not occur given Replace's invalidation, but most
	// recent wins if they do.
	row := tx.QueryRow(ctx, `
        SELECT id, phone_number, code, created_at, expires_at, is_used
        FROM otp_codes
        WHERE phone_number = $1
          AND code = $2
          AND is_used = FALSE
          AND expires_at > NOW()
        ORDER BY created_at DESC
        LIMIT 1
        FOR UPDATE
    `, phone, code)

	var rec models.OTPCode
	err = row.Scan(
		&rec.ID,
		&rec.PhoneNumber,
		&rec.Code,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&rec.IsUsed,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE otp_codes SET is_used = TRUE WHERE id = $1`, rec.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	rec.IsUsed = true
	return &rec, nil
}

func (r *otpRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE otp_codes SET is_used = TRUE WHERE id = $1`, id)
	return err
}

func (r *otpRepository) CleanupOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM otp_codes WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *otpRepository) Stats(ctx context.Context) (*OTPStats, error) {
	row := r.db.QueryRow(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE is_used),
            COUNT(*) FILTER (WHERE NOT is_used AND expires_at < NOW()),
            COUNT(*) FILTER (WHERE created_at::date = NOW()::date)
        FROM otp_codes
    `)

	var s OTPStats
	if err := row.Scan(&s.TotalCodes, &s.UsedCodes, &s.ExpiredCodes, &s.CodesToday); err != nil {
		if err == pgx.ErrNoRows {
			return &OTPStats{}, nil
		}
		return nil, err
	}
	return &s, nil
}
