package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/models"
)

// UserStats aggregates users counters for the admin dashboard.
type UserStats struct {
	TotalUsers      int64
	VerifiedUsers   int64
	UnverifiedUsers int64
	NewThisWeek     int64
}

type UserRepository interface {
	// GetOrCreate performs an atomic upsert keyed by the unique
	// phone_number index. Creation relies on ON CONFLICT DO NOTHING
	// rather than check-then-create, so racing callers cannot both
	// insert. New accounts get username=phone and a verified phone.
	GetOrCreate(ctx context.Context, phone string) (*models.User, bool, error)

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error)

	// MarkPhoneVerified promotes is_phone_verified to true. Never demotes.
	MarkPhoneVerified(ctx context.Context, id uuid.UUID) error

	// UpdateProfile patches the mutable profile fields; nil means
	// "leave unchanged".
	UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email *string) (*models.User, error)

	Stats(ctx context.Context) (*UserStats, error)

	// WithDB returns a copy bound to db, typically an open pgx.Tx.
	WithDB(db DB) UserRepository
}

type userRepository struct {
	db DB
}

func NewUserRepository(db DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithDB(db DB) UserRepository {
	return &userRepository{db: db}
}

func baseSelectUser() string {
	return `
        SELECT id, username, phone_number, first_name, last_name, email,
               is_phone_verified, role, date_joined, updated_at
        FROM users
    `
}

func (r *userRepository) scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var phone *string
	err := row.Scan(
		&u.ID,
		&u.Username,
		&phone,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.IsPhoneVerified,
		&u.Role,
		&u.DateJoined,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if phone != nil {
		u.PhoneNumber = *phone
	}
	return &u, nil
}

func (r *userRepository) GetOrCreate(ctx context.Context, phone string) (*models.User, bool, error) {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO users (id, username, phone_number, is_phone_verified, role)
        VALUES ($1, $2, $3, TRUE, $4)
        ON CONFLICT (phone_number) DO NOTHING
    `, uuid.New(), phone, phone, models.RoleUser)
	if err != nil {
		return nil, false, err
	}
	created := tag.RowsAffected() == 1

	u, err := r.GetByPhoneNumber(ctx, phone)
	if err != nil {
		return nil, false, err
	}
	return u, created, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE id = $1", id)
	return r.scanUser(row)
}

func (r *userRepository) GetByPhoneNumber(ctx context.Context, phone string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE phone_number = $1", phone)
	return r.scanUser(row)
}

func (r *userRepository) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
        UPDATE users
        SET is_phone_verified = TRUE, updated_at = NOW()
        WHERE id = $1
    `, id)
	return err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email *string) (*models.User, error) {
	_, err := r.db.Exec(ctx, `
        UPDATE users
        SET first_name = COALESCE($2, first_name),
            last_name  = COALESCE($3, last_name),
            email      = COALESCE($4, email),
            updated_at = NOW()
        WHERE id = $1
    `, id, firstName, lastName, email)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *userRepository) Stats(ctx context.Context) (*UserStats, error) {
	row := r.db.QueryRow(ctx, `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE is_phone_verified),
            COUNT(*) FILTER (WHERE NOT is_phone_verified),
            COUNT(*) FILTER (WHERE date_joined > NOW() - INTERVAL '7 days')
        FROM users
    `)

	var s UserStats
	if err := row.Scan(&s.TotalUsers, &s.VerifiedUsers, &s.UnverifiedUsers, &s.NewThisWeek); err != nil {
		return nil, err
	}
	return &s, nil
}
