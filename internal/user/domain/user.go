// Package domain holds the dashboard user account entity.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Role gates access to the user-management and settings screens.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// User is a staff account that can sign in to the dashboard.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// Validate validates the user for persistence.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(u.Username) == "" {
		return errors.New("username is required")
	}
	if u.Role != RoleAdmin && u.Role != RoleStaff {
		return errors.New("role must be admin or staff")
	}
	return nil
}
