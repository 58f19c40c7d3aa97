package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pulseline/phone-auth-service/internal/utils"
)

// Config holds all application configuration.
type Config struct {
	AppName string
	AppPort string
	AppUrl  string
	DBUrl   string

	JWTSecret          []byte
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration

	OTPCodeLength int
	OTPCodeExpiry time.Duration
	OTPRetention  time.Duration

	// SMS delivery. When UseRealSMSService is false the mock sender is
	// used and MockSMSFailureRate controls its simulated failures.
	UseRealSMSService  bool
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFromPhone    string
	MockSMSFailureRate float64
}

const (
	AppName = "phone-auth-service"

	DefaultOTPCodeLength      = 6
	DefaultOTPCodeExpiry      = 5 * time.Minute
	DefaultOTPRetention       = 7 * 24 * time.Hour
	DefaultAccessTokenExpiry  = 30 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
	DefaultMockSMSFailureRate = 0.0
)

// LoadConfig reads the environment (optionally seeded from a .env file)
// and fails fast on anything required.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		utils.Logger.Info("No .env file found, relying on system env vars")
	}

	cfg := &Config{
		AppName: AppName,
		AppPort: mustGetEnv("APP_PORT"),
		AppUrl:  getEnv("APP_URL", "http://localhost:8000"),
		DBUrl:   mustGetEnv("DB_URL"),

		JWTSecret:          []byte(mustGetEnv("JWT_SECRET")),
		AccessTokenExpiry:  durationEnv("ACCESS_TOKEN_EXPIRY", DefaultAccessTokenExpiry),
		RefreshTokenExpiry: durationEnv("REFRESH_TOKEN_EXPIRY", DefaultRefreshTokenExpiry),

		OTPCodeLength: DefaultOTPCodeLength,
		OTPCodeExpiry: durationEnv("OTP_CODE_EXPIRY", DefaultOTPCodeExpiry),
		OTPRetention:  durationEnv("OTP_RETENTION", DefaultOTPRetention),

		UseRealSMSService:  boolEnv("USE_REAL_SMS_SERVICE", false),
		MockSMSFailureRate: floatEnv("MOCK_SMS_FAILURE_RATE", DefaultMockSMSFailureRate),
	}

	if cfg.UseRealSMSService {
		cfg.TwilioAccountSID = mustGetEnv("TWILIO_ACCOUNT_SID")
		cfg.TwilioAuthToken = mustGetEnv("TWILIO_AUTH_TOKEN")
		cfg.TwilioFromPhone = mustGetEnv("TWILIO_FROM_PHONE")
	}

	return cfg
}

func mustGetEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		utils.Logger.Fatalf("%s env var is missing", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %s", key, v, fallback)
		return fallback
	}
	return d
}

func boolEnv(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %t", key, v, fallback)
		return fallback
	}
	return b
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		utils.Logger.Warnf("Invalid %s '%s', using default %f", key, v, fallback)
		return fallback
	}
	return f
}
