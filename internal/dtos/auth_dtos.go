package dtos

// ----------------------
// OTP issuance
// ----------------------

type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
}
type SendOTPResponse struct {
	Message          string `json:"message"`
	PhoneNumber      string `json:"phone_number"`
	ExpiresInMinutes int    `json:"expires_in_minutes"`
}

// ----------------------
// OTP verification
// ----------------------

type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,max=20"`
	OTPCode     string `json:"otp_code" validate:"required,len=6,numeric"`
}
type VerifyOTPResponse struct {
	Message   string    `json:"message"`
	User      User      `json:"user"`
	Tokens    TokenPair `json:"tokens"`
	IsNewUser bool      `json:"is_new_user"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// ----------------------
// Token refresh
// ----------------------

type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}
type RefreshResponse struct {
	Tokens TokenPair `json:"tokens"`
}
