package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/middleware"
	"github.com/pulseline/phone-auth-service/internal/models"
	"github.com/pulseline/phone-auth-service/internal/services"
	"github.com/pulseline/phone-auth-service/internal/testutil"
)

type apiStack struct {
	router   *mux.Router
	otpRepo  *testutil.MemOTPRepo
	userRepo *testutil.MemUserRepo
	sender   *testutil.CaptureSender
	jwtSvc   services.JWTService
}

// newAPIStack wires the controllers behind the same routes main
// registers, over in-memory repositories.
func newAPIStack(t *testing.T) *apiStack {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:          []byte("test-secret"),
		AccessTokenExpiry:  30 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		OTPCodeLength:      config.DefaultOTPCodeLength,
		OTPCodeExpiry:      config.DefaultOTPCodeExpiry,
	}

	otpRepo := testutil.NewMemOTPRepo()
	userRepo := testutil.NewMemUserRepo()
	tokenRepo := testutil.NewMemTokenRepo()
	txm := testutil.NewMemTxManager(otpRepo, userRepo, tokenRepo)
	sender := testutil.NewCaptureSender()

	jwtSvc := services.NewJWTService(cfg, tokenRepo, userRepo)
	otpSvc := services.NewOTPService(txm, otpRepo, userRepo, jwtSvc, sender, cfg)
	userSvc := services.NewUserService(userRepo, otpRepo)

	authController := NewAuthController(otpSvc, jwtSvc, cfg)
	profileController := NewProfileController(userSvc)
	adminController := NewAdminController(userSvc)

	router := mux.NewRouter()
	authRouter := router.PathPrefix("/api").Subrouter().PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/send-otp/", authController.SendOTP).Methods("POST")
	authRouter.HandleFunc("/verify-otp/", authController.VerifyOTP).Methods("POST")
	authRouter.HandleFunc("/refresh/", authController.Refresh).Methods("POST")

	profileRouter := authRouter.PathPrefix("/profile").Subrouter()
	profileRouter.Use(middleware.AuthMiddleware(jwtSvc))
	profileRouter.HandleFunc("/", profileController.GetProfile).Methods("GET")
	profileRouter.HandleFunc("/", profileController.UpdateProfile).Methods("PATCH")

	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(jwtSvc), middleware.RequireAdmin)
	adminRouter.HandleFunc("/stats/", adminController.Stats).Methods("GET")

	return &apiStack{
		router:   router,
		otpRepo:  otpRepo,
		userRepo: userRepo,
		sender:   sender,
		jwtSvc:   jwtSvc,
	}
}

func (s *apiStack) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// authenticate runs the full send/verify flow and returns the access token.
func (s *apiStack) authenticate(t *testing.T, phone string) string {
	t.Helper()

	rec := s.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": phone}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	code := s.sender.LastSent().Code
	rec = s.do(t, "POST", "/api/auth/verify-otp/", map[string]string{
		"phone_number": phone,
		"otp_code":     code,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	tokens := body["tokens"].(map[string]any)
	return tokens["access"].(string)
}

func TestSendOTPEndpoint(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": "5550001234"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "OTP sent successfully", body["message"])
	assert.Equal(t, "+15550001234", body["phone_number"])
	assert.Equal(t, float64(5), body["expires_in_minutes"])
}

func TestSendOTPEndpointInvalidPhone(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": "garbage"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_phone_number", body["code"])
}

func TestSendOTPEndpointMissingPhone(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendOTPEndpointDeliveryFailure(t *testing.T) {
	st := newAPIStack(t)
	st.sender.Result = false

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": "5550001234"}, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Failed to send OTP. Please try again.", body["message"])
}

func TestVerifyOTPEndpoint(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": "5550001234"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	code := st.sender.LastSent().Code
	rec = st.do(t, "POST", "/api/auth/verify-otp/", map[string]string{
		"phone_number": "5550001234",
		"otp_code":     code,
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Authentication successful", body["message"])
	assert.Equal(t, true, body["is_new_user"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "+15550001234", user["phone_number"])
	assert.Equal(t, true, user["is_phone_verified"])

	tokens := body["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["access"])
	assert.NotEmpty(t, tokens["refresh"])
}

func TestVerifyOTPEndpointWrongCode(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/send-otp/", map[string]string{"phone_number": "5550001234"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	code := st.sender.LastSent().Code
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	rec = st.do(t, "POST", "/api/auth/verify-otp/", map[string]string{
		"phone_number": "5550001234",
		"otp_code":     wrong,
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "invalid_or_expired_code", body["code"])
	assert.Equal(t, "Invalid or expired OTP code", body["message"])
}

func TestVerifyOTPEndpointMalformedCode(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "POST", "/api/auth/verify-otp/", map[string]string{
		"phone_number": "5550001234",
		"otp_code":     "12ab56",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpoint(t *testing.T) {
	st := newAPIStack(t)
	st.authenticate(t, "5550001234")

	rec := st.do(t, "POST", "/api/auth/refresh/", map[string]string{"refresh": "bogus"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	u, err := st.userRepo.GetByPhoneNumber(context.Background(), "+15550001234")
	require.NoError(t, err)
	pair, err := st.jwtSvc.IssueTokens(context.Background(), u)
	require.NoError(t, err)

	rec = st.do(t, "POST", "/api/auth/refresh/", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	tokens := body["tokens"].(map[string]any)
	assert.NotEmpty(t, tokens["access"])
	assert.NotEqual(t, pair.Refresh, tokens["refresh"])
}

func TestProfileEndpointRequiresAuth(t *testing.T) {
	st := newAPIStack(t)

	rec := st.do(t, "GET", "/api/auth/profile/", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = st.do(t, "GET", "/api/auth/profile/", nil, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileEndpoint(t *testing.T) {
	st := newAPIStack(t)
	access := st.authenticate(t, "5550001234")

	rec := st.do(t, "GET", "/api/auth/profile/", nil, access)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "+15550001234", user["phone_number"])
	assert.Equal(t, models.RoleUser, user["role"])
}

func TestUpdateProfileEndpoint(t *testing.T) {
	st := newAPIStack(t)
	access := st.authenticate(t, "5550001234")

	rec := st.do(t, "PATCH", "/api/auth/profile/", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "ada@example.com",
	}, access)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Ada", user["first_name"])
	assert.Equal(t, "Lovelace", user["last_name"])
	assert.Equal(t, "ada@example.com", user["email"])
}

func TestUpdateProfileEndpointRejectsBadEmail(t *testing.T) {
	st := newAPIStack(t)
	access := st.authenticate(t, "5550001234")

	rec := st.do(t, "PATCH", "/api/auth/profile/", map[string]string{"email": "not-an-email"}, access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminStatsForbiddenForUsers(t *testing.T) {
	st := newAPIStack(t)
	access := st.authenticate(t, "5550001234")

	rec := st.do(t, "GET", "/api/auth/admin/stats/", nil, access)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminStats(t *testing.T) {
	st := newAPIStack(t)

	admin := &models.User{
		ID:              uuid.New(),
		Username:        "+15559990000",
		PhoneNumber:     "+15559990000",
		IsPhoneVerified: true,
		Role:            models.RoleAdmin,
		DateJoined:      time.Now(),
	}
	st.userRepo.Seed(admin)
	st.authenticate(t, "5550001234")

	pair, err := st.jwtSvc.IssueTokens(context.Background(), admin)
	require.NoError(t, err)

	rec := st.do(t, "GET", "/api/auth/admin/stats/", nil, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	users := body["users"].(map[string]any)
	assert.Equal(t, float64(2), users["total_users"])

	otp := body["otp"].(map[string]any)
	assert.Equal(t, float64(1), otp["total_codes"])
}
