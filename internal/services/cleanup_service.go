package services

import (
	"context"
	"time"

	"github.com/pulseline/phone-auth-service/internal/repositories"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// CleanupService purges historical OTP rows past their retention window
// and expired refresh tokens. Live state is never touched: consumed and
// expired codes stay queryable until the retention window passes.
type CleanupService interface {
	CleanupDaily(ctx context.Context) error
}

type cleanupService struct {
	otpRepo   repositories.OTPRepository
	tokenRepo repositories.RefreshTokenRepository
	retention time.Duration
}

func NewCleanupService(
	otpRepo repositories.OTPRepository,
	tokenRepo repositories.RefreshTokenRepository,
	retention time.Duration,
) CleanupService {
	return &cleanupService{
		otpRepo:   otpRepo,
		tokenRepo: tokenRepo,
		retention: retention,
	}
}

func (s *cleanupService) CleanupDaily(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)

	removed, err := s.otpRepo.CleanupOlderThan(ctx, cutoff)
	if err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup otp_codes")
		return err
	}

	if err := s.tokenRepo.CleanupExpired(ctx); err != nil {
		utils.Logger.WithError(err).Error("Failed to cleanup refresh_tokens")
		return err
	}

	utils.Logger.Infof("Daily cleanup completed, removed %d OTP rows older than %s", removed, cutoff.Format(time.RFC3339))
	return nil
}
