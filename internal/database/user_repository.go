package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tradesnap/tradesnap/internal/models"
	"github.com/tradesnap/tradesnap/internal/store"
)

// UserRepository handles account database operations.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts u. A taken email returns store.ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = "user"
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_date
	`, u.ID, u.Email, u.FullName, u.PasswordHash, u.Role).Scan(&u.CreatedDate)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrConflict
		}
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return u, nil
}

// GetUser returns the user with id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, store.ErrNotFound
	}
	return r.getBy(ctx, "id = $1", id)
}

// GetUserByEmail returns the user registered with email.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getBy(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

func (r *UserRepository) getBy(ctx context.Context, where string, arg any) (models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, email, full_name, password_hash, role, created_date FROM users WHERE "+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.CreatedDate)
	if err != nil {
		return models.User{}, notFound(err)
	}
	return u, nil
}
