package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/repositories"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

const tokenIssuer = "pulseline"

// TokenPair mirrors the wire shape of the tokens object.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// AccessClaims is the parsed content of a valid access token.
type AccessClaims struct {
	UserID      uuid.UUID
	PhoneNumber string
	Role        string
}

// ---------------------------------------------------------------------
// JWTService interface
// ---------------------------------------------------------------------

type JWTService interface {
	// IssueTokens mints an access token and a fresh persisted refresh
	// token for the user. Prior refresh tokens are revoked, so each
	// login holds a single valid refresh token.
	IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error)

	// ParseAccessToken validates signature and expiry and returns the
	// embedded claims. Returns jwt.ErrTokenExpired for expired tokens.
	ParseAccessToken(tokenString string) (*AccessClaims, error)

	// Refresh rotates a refresh token: the old one is deleted and a new
	// pair is issued. Fails with utils.ErrInvalidRefreshToken on
	// unknown, revoked or expired tokens.
	Refresh(ctx context.Context, rawRefreshToken string) (*TokenPair, error)

	// WithDB returns a copy whose token persistence runs against db,
	// so issuance can join a caller's transaction.
	WithDB(db repositories.DB) JWTService
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type jwtService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	tokenRepo     repositories.RefreshTokenRepository
	userRepo      repositories.UserRepository
}

func NewJWTService(
	cfg *config.Config,
	tokenRepo repositories.RefreshTokenRepository,
	userRepo repositories.UserRepository,
) JWTService {
	return &jwtService{
		secret:        cfg.JWTSecret,
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
		tokenRepo:     tokenRepo,
		userRepo:      userRepo,
	}
}

func (j *jwtService) WithDB(db repositories.DB) JWTService {
	cp := *j
	cp.tokenRepo = j.tokenRepo.WithDB(db)
	return &cp
}

func (j *jwtService) IssueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	if removeErr := j.tokenRepo.RemoveAllByUserID(ctx, user.ID); removeErr != nil {
		utils.Logger.WithError(removeErr).Error("failed to remove old refresh tokens on issue")
	}

	access, err := j.signAccessToken(user)
	if err != nil {
		return nil, err
	}

	rt := &models.RefreshToken{
		ID:        uuid.New(),
		UserID:    user.ID,
		Token:     utils.SecureToken(48),
		ExpiresAt: time.Now().Add(j.refreshExpiry),
		CreatedAt: time.Now(),
	}
	if err := j.tokenRepo.Create(ctx, rt); err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: rt.Token}, nil
}

func (j *jwtService) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("missing subject")
	}

	phone, _ := claims["phone_number"].(string)
	role, _ := claims["role"].(string)

	return &AccessClaims{
		UserID:      userID,
		PhoneNumber: phone,
		Role:        role,
	}, nil
}

func (j *jwtService) Refresh(ctx context.Context, rawRefreshToken string) (*TokenPair, error) {
	stored, err := j.tokenRepo.GetByRawToken(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Revoked || stored.IsExpired() {
		return nil, utils.ErrInvalidRefreshToken
	}

	user, err := j.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, utils.ErrInvalidRefreshToken
	}

	if err := j.tokenRepo.Remove(ctx, stored.ID); err != nil {
		return nil, err
	}

	return j.IssueTokens(ctx, user)
}

func (j *jwtService) signAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":          tokenIssuer,
		"sub":          user.ID.String(),
		"phone_number": user.PhoneNumber,
		"role":         user.Role,
		"exp":          now.Add(j.accessExpiry).Unix(),
		"iat":          now.Unix(),
		"jti":          uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}
