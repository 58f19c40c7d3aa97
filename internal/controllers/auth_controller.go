package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/dtos"
	"github.com/pulseline/phone-auth-service/internal/services"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

type AuthController struct {
	otpService services.OTPService
	jwtService services.JWTService
	cfg        *config.Config
}

func NewAuthController(otpService services.OTPService, jwtService services.JWTService, cfg *config.Config) *AuthController {
	return &AuthController{otpService: otpService, jwtService: jwtService, cfg: cfg}
}

var authValidate = validator.New()

// ---------------------------------------------------------------------
// SendOTP
// ---------------------------------------------------------------------
func (c *AuthController) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid phone number format", err.Error(), err,
		)
		return
	}

	phone, err := c.otpService.RequestCode(r.Context(), req.PhoneNumber)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPhone):
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone number format", nil,
			)
		case errors.Is(err, utils.ErrDeliveryFailed):
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeDeliveryFailed, "Failed to send OTP. Please try again.", nil,
			)
		case errors.Is(err, utils.ErrServiceUnavailable):
			utils.RespondErrorWithCode(
				w, http.StatusServiceUnavailable, utils.ErrCodeExternalServiceFailure, "SMS service unavailable. Please try again.", nil, err,
			)
		default:
			utils.RespondErrorWithCode(
				w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
			)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.SendOTPResponse{
		Message:          "OTP sent successfully",
		PhoneNumber:      phone,
		ExpiresInMinutes: int(c.cfg.OTPCodeExpiry.Minutes()),
	})
}

// ---------------------------------------------------------------------
// VerifyOTP
// ---------------------------------------------------------------------
func (c *AuthController) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req dtos.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid request data", err.Error(), err,
		)
		return
	}

	result, err := c.otpService.VerifyCode(r.Context(), req.PhoneNumber, req.OTPCode)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPhone):
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidPhone, "Invalid phone number format", nil,
			)
		case errors.Is(err, utils.ErrMalformedCode):
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeValidation, "OTP code must be 6 digits", nil,
			)
		case errors.Is(err, utils.ErrInvalidOrExpiredCode):
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeInvalidOrExpiredCode, "Invalid or expired OTP code", nil,
			)
		default:
			utils.RespondErrorWithCode(
				w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
			)
		}
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.VerifyOTPResponse{
		Message:   "Authentication successful",
		User:      dtos.NewUser(result.User),
		Tokens:    dtos.TokenPair{Access: result.Tokens.Access, Refresh: result.Tokens.Refresh},
		IsNewUser: result.IsNewUser,
	})
}

// ---------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------
func (c *AuthController) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dtos.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := authValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Missing refresh token", err.Error(), err,
		)
		return
	}

	tokens, err := c.jwtService.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidRefreshToken) {
			utils.RespondErrorWithCode(
				w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired refresh token", nil,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.RefreshResponse{
		Tokens: dtos.TokenPair{Access: tokens.Access, Refresh: tokens.Refresh},
	})
}
