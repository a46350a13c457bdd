package models

import (
	"strings"
	"time"
)

// User is an account that owns analyses and watchlist entries.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // "user" or "admin"
	CreatedDate  time.Time `json:"created_date"`
}

// FirstName returns the first word of FullName, or "Trader" when unset.
func (u User) FirstName() string {
	if fields := strings.Fields(u.FullName); len(fields) > 0 {
		return fields[0]
	}
	return "Trader"
}
