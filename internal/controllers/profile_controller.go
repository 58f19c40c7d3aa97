package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v4"

	"github.com/pulseline/phone-auth-service/internal/dtos"
	"github.com/pulseline/phone-auth-service/internal/services"
	"github.com/pulseline/phone-auth-service/internal/utils"
)

type ProfileController struct {
	userService services.UserService
}

func NewProfileController(userService services.UserService) *ProfileController {
	return &ProfileController{userService: userService}
}

var profileValidate = validator.New()

func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
		return
	}

	user, err := c.userService.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RespondErrorWithCode(
				w, http.StatusNotFound, utils.ErrCodeNotFound, "User not found", nil,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ProfileResponse{User: dtos.NewUser(user)})
}

func (c *ProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		utils.RespondErrorWithCode(
			w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil,
		)
		return
	}

	var req dtos.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid payload", err,
		)
		return
	}
	if err := profileValidate.Struct(req); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeValidation, "Invalid profile data", err.Error(), err,
		)
		return
	}

	user, err := c.userService.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.RespondErrorWithCode(
				w, http.StatusNotFound, utils.ErrCodeNotFound, "User not found", nil,
			)
			return
		}
		utils.RespondErrorWithCode(
			w, http.StatusInternalServerError, utils.ErrCodeInternal, "Internal server error", nil, err,
		)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, dtos.ProfileResponse{User: dtos.NewUser(user)})
}
