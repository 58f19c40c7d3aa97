package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/pulseline/phone-auth-service/internal/middleware"
)

// userIDFromContext reads the subject the auth middleware stored.
func userIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserID).(string)
	if !ok || userID == "" {
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}
