package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/testutil"
)

func TestCleanupDaily(t *testing.T) {
	ctx := context.Background()
	otpRepo := testutil.NewMemOTPRepo()
	tokenRepo := testutil.NewMemTokenRepo()

	now := time.Now()
	otpRepo.Seed(&models.OTPCode{
		ID:          uuid.New(),
		PhoneNumber: "+15550001234",
		Code:        "111111",
		CreatedAt:   now.Add(-8 * 24 * time.Hour),
		ExpiresAt:   now.Add(-8*24*time.Hour + 5*time.Minute),
		IsUsed:      true,
	})
	otpRepo.Seed(&models.OTPCode{
		ID:          uuid.New(),
		PhoneNumber: "+15550001234",
		Code:        "222222",
		CreatedAt:   now.Add(-time.Hour),
		ExpiresAt:   now.Add(-55 * time.Minute),
		IsUsed:      true,
	})

	require.NoError(t, tokenRepo.Create(ctx, &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "stale",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-8 * 24 * time.Hour),
	}))
	require.NoError(t, tokenRepo.Create(ctx, &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Token:     "live",
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}))

	svc := NewCleanupService(otpRepo, tokenRepo, 7*24*time.Hour)
	require.NoError(t, svc.CleanupDaily(ctx))

	stats, err := otpRepo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalCodes, "only the recent code should remain")

	assert.Equal(t, 1, tokenRepo.Len(), "expired refresh token should be purged")
}
