package dtos

type HealthCheckResponse struct {
	Status string `json:"status"`
}

type UserStats struct {
	TotalUsers      int64 `json:"total_users"`
	VerifiedUsers   int64 `json:"verified_users"`
	UnverifiedUsers int64 `json:"unverified_users"`
	NewThisWeek     int64 `json:"new_this_week"`
}

type OTPStats struct {
	TotalCodes   int64 `json:"total_codes"`
	UsedCodes    int64 `json:"used_codes"`
	ExpiredCodes int64 `json:"expired_codes"`
	CodesToday   int64 `json:"codes_today"`
}

type AdminStatsResponse struct {
	Users UserStats `json:"users"`
	OTP   OTPStats  `json:"otp"`
}
