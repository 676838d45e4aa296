package core

import (
	"context"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a person who can sign in to the ledger.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserService provides user lookup and the first-run admin seed.
type UserService interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, email, displayName, password, role string) (*User, error)

	// EnsureDefaultAdmin creates an admin account when the users table is empty.
	// It returns the created user, or nil when users already exist.
	EnsureDefaultAdmin(ctx context.Context, email, displayName, password string) (*User, error)
}
