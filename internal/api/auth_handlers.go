package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tradesnap/tradesnap/internal/auth"
	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
)

// AuthHandler handles account and session requests
type AuthHandler struct {
	users  store.Users
	auth   *auth.Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(users store.Users, a *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		auth:   a,
		logger: logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	auth.SetCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeValidation(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.writeValidation(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(r.Context(), models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Role:         h.auth.RoleFor(req.Email),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, h.logger, http.StatusConflict, ErrorResponse{Error: "An account with this email already exists", Field: "email"})
			return
		}
		h.logger.Error("failed to create user", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("account registered", "user_id", user.ID, "role", user.Role)
	h.issue(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	auth.SetCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeValidation(w, err)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("failed to look up user", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		// Same answer for unknown email and wrong password.
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	h.logger.Info("successful login", "user_id", user.ID, "ip", r.RemoteAddr)
	h.issue(w, http.StatusOK, user)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.auth.Revoke(r.Context(), s); err != nil {
		h.logger.Error("failed to revoke token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request, s auth.Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, err := h.users.GetUser(r.Context(), s.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}
		h.logger.Error("failed to load user", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, user)
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, user models.User) {
	token, session, err := h.auth.Issue(user)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, h.logger, status, LoginResponse{Token: token, ExpiresAt: session.ExpiresAt, User: user})
}

func (h *AuthHandler) writeValidation(w http.ResponseWriter, err error) {
	writeValidation(w, h.logger, err)
}
