package models

import (
	"strings"
	"time"
)

// User is a registered customer. Password material is an opaque salt+hash
// pair; the secret itself is never stored. Roles is a space-separated list,
// e.g. "CUSTOMER ADMIN".
type User struct {
	ID                  int64
	Username            string
	Email               string
	PasswordSalt        []byte
	PasswordHash        []byte
	Roles               string
	IsActive            bool
	IsAdmin             bool
	FailedLoginAttempts int
	LastPasswordChange  *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	LastLogin           *time.Time
}

// RoleList splits the space-separated Roles field into individual role names.
func (u *User) RoleList() []string {
	return strings.Fields(u.Roles)
}
