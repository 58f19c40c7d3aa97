package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/repositories"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// VerifyResult is what a successful code redemption yields.
type VerifyResult struct {
	User      *models.User
	Tokens    *TokenPair
	IsNewUser bool
}

// ---------------------------------------------------------------------
// OTPService interface
// ---------------------------------------------------------------------

type OTPService interface {
	// RequestCode normalizes the phone number, replaces any live code
	// for it with a fresh one and hands the code to the SMS sender.
	// Returns the formatted phone number the code was sent to.
	//
	// A sender rejection yields utils.ErrDeliveryFailed, a sender
	// error utils.ErrServiceUnavailable; in both cases the fresh code
	// is invalidated first so an undelivered code can never be redeemed.
	RequestCode(ctx context.Context, rawPhone string) (string, error)

	// VerifyCode redeems a code: the matching live record is consumed,
	// the account is resolved (created on first verification) and a
	// token pair is minted. Wrong and expired codes both surface as
	// utils.ErrInvalidOrExpiredCode.
	VerifyCode(ctx context.Context, rawPhone, code string) (*VerifyResult, error)
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type otpService struct {
	txm      repositories.TxManager
	otpRepo  repositories.OTPRepository
	userRepo repositories.UserRepository
	jwtSvc   JWTService
	sender   SMSSender
	cfg      *config.Config
}

func NewOTPService(
	txm repositories.TxManager,
	otpRepo repositories.OTPRepository,
	userRepo repositories.UserRepository,
	jwtSvc JWTService,
	sender SMSSender,
	cfg *config.Config,
) OTPService {
	return &otpService{
		txm:      txm,
		otpRepo:  otpRepo,
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		sender:   sender,
		cfg:      cfg,
	}
}

func (s *otpService) RequestCode(ctx context.Context, rawPhone string) (string, error) {
	phone, err := utils.ValidateAndFormat(rawPhone)
	if err != nil {
		return "", err
	}

	code := utils.RandomNumericString(s.cfg.OTPCodeLength)

	rec, err := s.otpRepo.Replace(ctx, phone, code, s.cfg.OTPCodeExpiry)
	if err != nil {
		return "", err
	}

	ok, sendErr := s.sender.Send(ctx, phone, code)
	if sendErr != nil {
		if invErr := s.invalidate(ctx, rec); invErr != nil {
			return "", fmt.Errorf("%w: %v", utils.ErrServiceUnavailable, invErr)
		}
		utils.Logger.WithError(sendErr).Errorf("SMS provider failure sending OTP to %s", phone)
		return "", fmt.Errorf("%w: %v", utils.ErrServiceUnavailable, sendErr)
	}
	if !ok {
		if invErr := s.invalidate(ctx, rec); invErr != nil {
			return "", fmt.Errorf("%w: %v", utils.ErrServiceUnavailable, invErr)
		}
		utils.Logger.Warnf("SMS delivery rejected for %s, code invalidated", phone)
		return "", utils.ErrDeliveryFailed
	}

	return phone, nil
}

func (s *otpService) VerifyCode(ctx context.Context, rawPhone, code string) (*VerifyResult, error) {
	phone, err := utils.ValidateAndFormat(rawPhone)
	if err != nil {
		return nil, err
	}

	// Rejected before touching storage.
	if !isNumericCode(code, s.cfg.OTPCodeLength) {
		return nil, utils.ErrMalformedCode
	}

	// Consumption, account resolution and token persistence commit
	// together. A failure anywhere rolls the consume back, so the code
	// stays redeemable after a transient error.
	var result *VerifyResult
	err = s.txm.InTx(ctx, func(db repositories.DB) error {
		if _, err := s.otpRepo.WithDB(db).Consume(ctx, phone, code); err != nil {
			return err
		}

		userRepo := s.userRepo.WithDB(db)
		user, created, err := userRepo.GetOrCreate(ctx, phone)
		if err != nil {
			return err
		}

		if !created && !user.IsPhoneVerified {
			if err := userRepo.MarkPhoneVerified(ctx, user.ID); err != nil {
				return err
			}
			user.IsPhoneVerified = true
		}

		tokens, err := s.jwtSvc.WithDB(db).IssueTokens(ctx, user)
		if err != nil {
			return err
		}

		result = &VerifyResult{
			User:      user,
			Tokens:    tokens,
			IsNewUser: created,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, utils.ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	return result, nil
}

func (s *otpService) invalidate(ctx context.Context, rec *models.OTPCode) error {
	if err := s.otpRepo.MarkUsed(ctx, rec.ID); err != nil {
		utils.Logger.WithError(err).Errorf("failed to invalidate undelivered OTP %s", rec.ID)
		return err
	}
	return nil
}

func isNumericCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
