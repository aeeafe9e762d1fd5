package handler

import (
	"net/http"
	"time"

	"github.com/xenking/promo-catalog/internal/domain/user"
)

type profileRequest struct {
	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Position string `json:"position"`
}

type profileResponse struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
}

func toProfileResponse(u *user.User, p *user.Profile) profileResponse {
	return profileResponse{
		UserID:    u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     p.Phone,
		Company:   p.Company,
		Position:  p.Position,
		CreatedAt: u.CreatedAt,
	}
}

// GetProfile returns the authenticated user's profile, creating an empty
// one on first access.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := actingUserID(r)
	if userID == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	u, err := h.users.GetByID(r.Context(), *userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.users.GetOrCreateProfile(r.Context(), *userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u, p))
}

// UpdateProfile rewrites the authenticated user's profile fields.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := actingUserID(r)
	if userID == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	u, err := h.users.GetByID(r.Context(), *userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.users.GetOrCreateProfile(r.Context(), *userID); err != nil {
		writeError(w, r, err)
		return
	}

	p := &user.Profile{
		UserID:   *userID,
		Phone:    req.Phone,
		Company:  req.Company,
		Position: req.Position,
	}
	if err := h.users.UpdateProfile(r.Context(), p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(u, p))
}
