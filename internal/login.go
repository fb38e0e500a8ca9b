package internal

import (
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"asset-tracker-api/internal/auth"
)

// LoginRequest is the operator credential payload.
type LoginRequest struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// LoginResponse carries a freshly minted bearer token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// loginUser authenticates the configured operator credential and issues a
// JWT. There is no user table; the single operator is defined by
// ADMIN_USER and ADMIN_PASSWORD_HASH.
func (s *Server) loginUser(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.User == "" || req.Password == "" {
		http.Error(w, "User and password are required", http.StatusBadRequest)
		return
	}

	if s.cfg.AdminPasswordHash == "" {
		http.Error(w, "Login is not configured", http.StatusServiceUnavailable)
		return
	}

	if req.User != s.cfg.AdminUser {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.JWTManager.GenerateToken(req.User, []string{auth.RoleAdmin, auth.RoleIngest})
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := LoginResponse{Token: token, ExpiresAt: time.Now().Add(s.cfg.JWTExpiry)}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
