package models

import (
	"time"

	"github.com/google/uuid"
)

// OTPCode for the otp_codes table. Multiple historical rows may exist
// per phone number; at most one of them is live (unused and unexpired)
// at any time.
type OTPCode struct {
	ID          uuid.UUID
	PhoneNumber string
	Code        string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	IsUsed      bool
}

// IsValid reports whether the code can still be redeemed.
func (o *OTPCode) IsValid(now time.Time) bool {
	return !o.IsUsed && now.Before(o.ExpiresAt)
}
