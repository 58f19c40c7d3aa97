package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrInvalidPhone = errors.New("invalid_phone_number")

	// ErrInvalidOrExpiredCode deliberately covers both the wrong-code and
	// expired-code cases so callers cannot enumerate live codes.
	ErrInvalidOrExpiredCode = errors.New("invalid_or_expired_code")
	ErrMalformedCode        = errors.New("malformed_code")

	// Code-delivery failures. The fresh code is invalidated before either
	// of these is returned, so a never-delivered code is never redeemable.
	ErrDeliveryFailed     = errors.New("delivery_failed")
	ErrServiceUnavailable = errors.New("external_service_failure")

	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
	ErrUserNotFound        = errors.New("user_not_found")
)

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
