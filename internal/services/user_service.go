package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/repositories"
)

// ProfileUpdate carries the mutable profile fields; nil means
// "leave unchanged".
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// Stats is the aggregate payload behind the admin dashboard.
type Stats struct {
	Users *repositories.UserStats
	OTP   *repositories.OTPStats
}

type UserService interface {
	Profile(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error)
	Stats(ctx context.Context) (*Stats, error)
}

type userService struct {
	userRepo repositories.UserRepository
	otpRepo  repositories.OTPRepository
}

func NewUserService(userRepo repositories.UserRepository, otpRepo repositories.OTPRepository) UserService {
	return &userService{userRepo: userRepo, otpRepo: otpRepo}
}

func (s *userService) Profile(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	return s.userRepo.UpdateProfile(ctx, id, upd.FirstName, upd.LastName, upd.Email)
}

func (s *userService) Stats(ctx context.Context) (*Stats, error) {
	userStats, err := s.userRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	otpStats, err := s.otpRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Users: userStats, OTP: otpStats}, nil
}
