package main

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/pulseline/phone-auth-service/internal/app"
	"github.com/pulseline/phone-auth-service/internal/config"
	"github.com/pulseline/phone-auth-service/internal/controllers"
	"github.com/pulseline/phone-auth-service/internal/middleware"
	"github.com/pulseline/phone-auth-service/internal/repositories"
	"github.com/pulseline/phone-auth-service/internal/services"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	txManager := repositories.NewTxManager(application.DB)
	otpRepo := repositories.NewOTPRepository(application.DB)
	userRepo := repositories.NewUserRepository(application.DB)
	tokenRepo := repositories.NewRefreshTokenRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	smsSender := services.NewSMSSenderFromConfig(cfg)
	jwtService := services.NewJWTService(cfg, tokenRepo, userRepo)
	otpService := services.NewOTPService(txManager, otpRepo, userRepo, jwtService, smsSender, cfg)
	userService := services.NewUserService(userRepo, otpRepo)
	cleanupService := services.NewCleanupService(otpRepo, tokenRepo, cfg.OTPRetention)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	authController := controllers.NewAuthController(otpService, jwtService, cfg)
	profileController := controllers.NewProfileController(userService)
	adminController := controllers.NewAdminController(userService)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	// /api/auth
	apiRouter := router.PathPrefix("/api").Subrouter()
	authRouter := apiRouter.PathPrefix("/auth").Subrouter()

	authRouter.HandleFunc("/send-otp/", authController.SendOTP).Methods("POST")
	authRouter.HandleFunc("/verify-otp/", authController.VerifyOTP).Methods("POST")
	authRouter.HandleFunc("/refresh/", authController.Refresh).Methods("POST")

	// Protected endpoints require a valid bearer token
	profileRouter := authRouter.PathPrefix("/profile").Subrouter()
	profileRouter.Use(middleware.AuthMiddleware(jwtService))
	profileRouter.HandleFunc("/", profileController.GetProfile).Methods("GET")
	profileRouter.HandleFunc("/", profileController.UpdateProfile).Methods("PATCH")

	// Admin endpoints additionally require the ADMIN role
	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(jwtService), middleware.RequireAdmin)
	adminRouter.HandleFunc("/stats/", adminController.Stats).Methods("GET")

	//----------------------------------------------------------------------
	// Setup daily cleanup via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr := c.AddFunc("0 3 * * *", func() {
		if e := cleanupService.CleanupDaily(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled OTP cleanup failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule OTP cleanup job")
	}

	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
