package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateAccount is returned when registering an email that already has an account.
	ErrDuplicateAccount = errors.New("email already registered, try logging in instead")
	// ErrAccountNotFound is returned when looking up a non-existent account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned when the email/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// RoleUser is the role assigned to every self-registered account.
const RoleUser = "user"

// User is the public view of an account. It is what the auth API returns and
// what the client persists under the auth.user storage key.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
}

// Account is the server-side persisted user record.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte // bcrypt, never serialized
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User returns the public view of the account.
func (a Account) User() User {
	role := a.Role
	if role == "" {
		role = RoleUser
	}

	return User{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  role,
	}
}
