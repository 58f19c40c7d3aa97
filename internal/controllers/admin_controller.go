package controllers

import (
	"net/http"

	"github.com/pulseline/phone-auth-service/internal/dtos"
	"github.com/pulseline/phone-auth-service/internal/services"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

// AdminController serves the user/OTP statistics dashboard.
type AdminController struct {
	userService services.UserService
}

func NewAdminController(userService services.UserService) *AdminController {
	return &AdminController{userService: userService}
}

func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.userService.Stats(r.Context())
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Failed to load statistics", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.AdminStatsResponse{
		Users: dtos.UserStats{
			TotalUsers:      stats.Users.TotalUsers,
			VerifiedUsers:   stats.Users.VerifiedUsers,
			UnverifiedUsers: stats.Users.UnverifiedUsers,
			NewThisWeek:     stats.Users.NewThisWeek,
		},
		OTP: dtos.OTPStats{
			TotalCodes:   stats.OTP.TotalCodes,
			UsedCodes:    stats.OTP.UsedCodes,
			ExpiredCodes: stats.OTP.ExpiredCodes,
			CodesToday:   stats.OTP.CodesToday,
		},
	})
}
