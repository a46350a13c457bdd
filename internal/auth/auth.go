package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradesnap/tradesnap/internal/models"
)

const issuer = "tradesnap"

// RoleAdmin grants access to the operator endpoints.
const RoleAdmin = "admin"

var (
	// ErrInvalidToken covers malformed, expired and badly signed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevoked is returned for tokens that were logged out.
	ErrRevoked = errors.New("token has been revoked")
)

// Config holds authentication configuration
type Config struct {
	JWTSecret     string
	TokenDuration time.Duration
	AdminEmails   []string
}

// Claims represents the JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Session is the authenticated caller of a request. Handlers receive it as
// an argument.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may use operator endpoints.
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// User returns the account fields carried by the session.
func (s Session) User() models.User {
	return models.User{ID: s.UserID, Email: s.Email, FullName: s.FullName, Role: s.Role}
}

// Authenticator issues and checks session tokens.
type Authenticator struct {
	config  Config
	revoker Revoker
	now     func() time.Time
}

// NewAuthenticator creates an Authenticator. A nil revoker keeps
// revocations in memory.
func NewAuthenticator(config Config, revoker Revoker) *Authenticator {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Authenticator{config: config, revoker: revoker, now: time.Now}
}

// RoleFor returns the role an account with email should be given.
func (a *Authenticator) RoleFor(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, admin := range a.config.AdminEmails {
		if admin == email {
			return RoleAdmin
		}
	}
	return "user"
}

// Issue creates a signed token for user.
func (a *Authenticator) Issue(user models.User) (string, Session, error) {
	now := a.now()
	session := Session{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		TokenID:   uuid.NewString(),
		ExpiresAt: now.Add(a.config.TokenDuration).Truncate(time.Second),
	}

	token, err := GenerateToken(session, a.config.JWTSecret, now)
	if err != nil {
		return "", Session{}, err
	}
	return token, session, nil
}

// Authenticate validates token and checks it has not been revoked.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (Session, error) {
	session, err := ValidateToken(token, a.config.JWTSecret, a.now())
	if err != nil {
		return Session{}, err
	}

	revoked, err := a.revoker.IsRevoked(ctx, session.TokenID)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, ErrRevoked
	}
	return session, nil
}

// Revoke invalidates the session's token until it would have expired.
func (a *Authenticator) Revoke(ctx context.Context, s Session) error {
	ttl := s.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}
	return a.revoker.Revoke(ctx, s.TokenID, ttl)
}

// GenerateToken creates a new JWT token for s, issued at now.
func GenerateToken(s Session, secret string, now time.Time) (string, error) {
	claims := Claims{
		UserID:   s.UserID,
		Email:    s.Email,
		FullName: s.FullName,
		Role:     s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.TokenID,
			Subject:   s.UserID,
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateToken validates a JWT token and returns the session it carries
func ValidateToken(tokenString string, secret string, now time.Time) (Session, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithExpirationRequired())
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return Session{}, ErrInvalidToken
	}

	return Session{
		UserID:    claims.UserID,
		Email:     claims.Email,
		FullName:  claims.FullName,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a password with a hash
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
