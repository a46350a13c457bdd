package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// HandlerFunc is an HTTP handler that runs with an authenticated session.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, s Session)

// Middleware turns HandlerFuncs into http.Handlers guarded by a bearer
// token check.
type Middleware struct {
	auth   *Authenticator
	logger *slog.Logger
}

// NewMiddleware creates a Middleware.
func NewMiddleware(a *Authenticator, logger *slog.Logger) *Middleware {
	return &Middleware{auth: a, logger: logger}
}

// SetCORSHeaders writes the headers the browser client needs.
func SetCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// Require runs next with the caller's session, or answers 401.
func (m *Middleware) Require(next HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		SetCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		tokenString, ok := BearerToken(r)
		if !ok {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		session, err := m.auth.Authenticate(r.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrRevoked) {
				m.logger.Error("failed to authenticate request", "error", err)
			}
			http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
			return
		}

		next(w, r, session)
	})
}

// RequireAdmin is Require restricted to admin sessions.
func (m *Middleware) RequireAdmin(next HandlerFunc) http.Handler {
	return m.Require(func(w http.ResponseWriter, r *http.Request, s Session) {
		if !s.IsAdmin() {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r, s)
	})
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
