package user

import (
	"errors"
	"time"

	"rollcall/internal/auth"
)

// User is a registered account, admin or student.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

var (
	// ErrNotFound means no account exists for the given lookup.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// the two are indistinguishable to a caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
