package domain

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Role is an ordered permission tier. Higher values include the rights of lower ones.
type Role int

// Roles, lowest first. The numeric values are part of the API (the "status" field).
const (
	RoleUser    Role = 0
	RoleManager Role = 1
	RoleAdmin   Role = 2
)

// IsValid checks if the role is one of the known tiers.
func (r Role) IsValid() bool {
	return r >= RoleUser && r <= RoleAdmin
}

// AtLeast reports whether r clears the min threshold.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleManager:
		return "manager"
	case RoleAdmin:
		return "admin"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// User limits.
const (
	MinUsernameLength = 3
	MaxNameLength     = 255
	MinPasswordLength = 3
	MinHours          = 1
	MaxHours          = 24
)

// User is an account that owns notes.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"status"`
	Hours        int       `json:"hours"`
	NoteIDs      []string  `json:"notes"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Validate checks the user invariants that do not need the store.
// PasswordHash is not checked here; plain passwords are validated before hashing.
func (u *User) Validate() error {
	if n := len([]rune(u.Username)); n < MinUsernameLength || n > MaxNameLength {
		return NewValidationError("username", "username is missing or invalid")
	}
	if len([]rune(u.Name)) > MaxNameLength {
		return NewValidationError("name", "name is too long")
	}
	if !u.Role.IsValid() {
		return NewValidationError("status", "status is invalid")
	}
	if u.Hours < MinHours || u.Hours > MaxHours {
		return NewValidationError("hours", "hours is missing or invalid")
	}
	return nil
}

// ValidatePassword checks a plain-text password before it is hashed.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return NewValidationError("password", "password is missing or too short")
	}
	return nil
}

// NormalizeName trims s and puts it in Unicode NFC, the form usernames and
// display names are stored and looked up in.
func NormalizeName(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
