package user

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

var ErrNotFound = errors.New("user not found")

// Role is a closed set; anything else is rejected at the boundary.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
	Role     Role   `json:"role" binding:"omitempty,oneof=user admin"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required"`
}

// UpdateUserRequest is a partial update; nil means "leave unchanged".
type UpdateUserRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=255"`
	Email *string `json:"email" binding:"omitempty,email,max=255"`
	Role  *Role   `json:"role" binding:"omitempty,oneof=user admin"`
}

func (r *UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Role == nil
}

// NormalizeEmail case-folds for the case-insensitive uniqueness rule.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims surrounding whitespace; the [2,255] length rule
// applies to the trimmed value, so callers re-check after trimming.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// ValidName checks the [2,255] bound in characters, not bytes, so
// multibyte names are measured the way a user would count them.
func ValidName(name string) bool {
	n := utf8.RuneCountInString(name)
	return n >= 2 && n <= 255
}
