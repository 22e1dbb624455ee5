package handler

import (
	"net/http"

	"wiki-annotator/internal/domain"
)

// AuthHandler exposes the identity the notes API resolved for a request.
type AuthHandler struct {
	logger domain.Logger
}

func NewAuthHandler(logger domain.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

type profileResponse struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// GetProfile handles GET /api/auth/me
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	h.logger.Debug("Profile requested", "user_id", user.ID)
	writeJSON(w, http.StatusOK, profileResponse{
		ID:    user.ID,
		Email: user.Email,
	})
}
