// Package repository defines persistence for dashboard user accounts.
package repository

import (
	"context"
	"time"

	"license-desk/backend/internal/user/domain"
)

// Repository defines persistence for users. Lookups return (nil, nil) when no
// user matches; errors are reserved for store failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// List returns all users in insertion order.
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// UpdateLastLogin records a successful sign-in time.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
