package dtos

import (
	"time"

	"github.com/pulseline/phone-auth-service/internal/models"
)

type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	PhoneNumber     string    `json:"phone_number"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	IsPhoneVerified bool      `json:"is_phone_verified"`
	Role            string    `json:"role"`
	DateJoined      time.Time `json:"date_joined"`
}

func NewUser(u *models.User) User {
	return User{
		ID:              u.ID.String(),
		Username:        u.Username,
		PhoneNumber:     u.PhoneNumber,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		IsPhoneVerified: u.IsPhoneVerified,
		Role:            u.Role,
		DateJoined:      u.DateJoined,
	}
}

type ProfileResponse struct {
	User User `json:"user"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
}
