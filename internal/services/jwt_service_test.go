package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/testutil"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

func testUser() *models.User {
	return &models.User{
		ID:              uuid.New(),
		Username:        "+15550001234",
		PhoneNumber:     "+15550001234",
		IsPhoneVerified: true,
		Role:            models.RoleUser,
		DateJoined:      time.Now(),
	}
}

func TestIssueAndParseAccessToken(t *testing.T) {
	ctx := context.Background()
	userRepo := testutil.NewMemUserRepo()
	tokenRepo := testutil.NewMemTokenRepo()
	svc := NewJWTService(testConfig(), tokenRepo, userRepo)

	user := testUser()
	userRepo.Seed(user)

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	claims, err := svc.ParseAccessToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.PhoneNumber, claims.PhoneNumber)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestParseAccessTokenRejectsTampered(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService(testConfig(), testutil.NewMemTokenRepo(), testutil.NewMemUserRepo())

	pair, err := svc.IssueTokens(ctx, testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(pair.Access + "x")
	assert.Error(t, err)

	_, err = svc.ParseAccessToken("not.a.token")
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.AccessTokenExpiry = -time.Minute
	svc := NewJWTService(cfg, testutil.NewMemTokenRepo(), testutil.NewMemUserRepo())

	pair, err := svc.IssueTokens(ctx, testUser())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(pair.Access)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestRefreshRotatesToken(t *testing.T) {
	ctx := context.Background()
	userRepo := testutil.NewMemUserRepo()
	tokenRepo := testutil.NewMemTokenRepo()
	svc := NewJWTService(testConfig(), tokenRepo, userRepo)

	user := testUser()
	userRepo.Seed(user)

	pair, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh, rotated.Refresh)
	assert.Equal(t, 1, tokenRepo.Len(), "one live refresh token per user")

	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, utils.ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, rotated.Refresh)
	assert.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	ctx := context.Background()
	svc := NewJWTService(testConfig(), testutil.NewMemTokenRepo(), testutil.NewMemUserRepo())

	_, err := svc.Refresh(ctx, "never-issued")
	assert.ErrorIs(t, err, utils.ErrInvalidRefreshToken)
}

func TestIssueTokensRevokesPrior(t *testing.T) {
	ctx := context.Background()
	userRepo := testutil.NewMemUserRepo()
	tokenRepo := testutil.NewMemTokenRepo()
	svc := NewJWTService(testConfig(), tokenRepo, userRepo)

	user := testUser()
	userRepo.Seed(user)

	first, err := svc.IssueTokens(ctx, user)
	require.NoError(t, err)

	_, err = svc.IssueTokens(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, tokenRepo.Len())

	_, err = svc.Refresh(ctx, first.Refresh)
	assert.ErrorIs(t, err, utils.ErrInvalidRefreshToken)
}
