package auth

import (
	"errors"
	"regexp"
	"time"
)

// emailPattern is a pragmatic format check; deliverability is not
// verified.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Account limits.
const (
	maxEmailLength = 254
	maxNameLength  = 100

	// MinPasswordLength is the minimum accepted password size.
	MinPasswordLength = 8
)

// IsValidEmail checks if an email address meets format requirements.
func IsValidEmail(email string) bool {
	return len(email) <= maxEmailLength && emailPattern.MatchString(email)
}

// Role represents an authorisation tier in the system.
type Role string

const (
	// RoleUser can browse places, live occupancy and history.
	RoleUser Role = "user"

	// RoleManager can additionally manage places and upload the images
	// and videos that occupancy analysis runs against.
	RoleManager Role = "manager"
)

// ValidRoles is the set of valid account roles.
var ValidRoles = []Role{RoleUser, RoleManager}

// IsValidRole returns true if the role is recognised.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an authenticated account.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Validate checks account fields before storage.
func (u *User) Validate() error {
	if !IsValidEmail(u.Email) {
		return ErrInvalidEmail
	}
	if u.Name == "" || len(u.Name) > maxNameLength {
		return ErrInvalidName
	}
	if !IsValidRole(u.Role) {
		return ErrInvalidRole
	}
	return nil
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidRole        = errors.New("invalid role")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)
