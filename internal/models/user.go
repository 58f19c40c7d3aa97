package models

import (
	"time"

	"github.com/google/uuid"
)

// Role values stored in the users.role column.
const (
	RoleUser      = "USER"
	RoleAdmin     = "ADMIN"
	RoleModerator = "MODERATOR"
)

// User for the users table. PhoneNumber can be NULL in the DB for
// accounts provisioned outside the OTP flow; this service always sets it.
type User struct {
	ID              uuid.UUID
	Username        string
	PhoneNumber     string
	FirstName       string
	LastName        string
	Email           string
	IsPhoneVerified bool
	Role            string
	DateJoined      time.Time
	UpdatedAt       time.Time
}
