// Package repository defines persistence for the device registry.
package repository

import (
	"context"
	"time"

	"license-desk/backend/internal/device/domain"
)

// Repository defines persistence for devices. Lookups return (nil, nil) when
// no device matches; errors are reserved for store failures.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Device, error)
	// GetByMAC looks up by normalized MAC address.
	GetByMAC(ctx context.Context, mac string) (*domain.Device, error)
	// GetByKey looks up by issued key code. Unissued devices (empty key) never match.
	GetByKey(ctx context.Context, keyCode string) (*domain.Device, error)
	// List returns all devices in insertion order.
	List(ctx context.Context) ([]*domain.Device, error)
	Create(ctx context.Context, d *domain.Device) error
	// SetKey records an issued key: key code, active flag, activation time, and
	// optional expiry. Overwrites any previously issued key.
	SetKey(ctx context.Context, id, keyCode string, activatedAt time.Time, expiresAt *time.Time) error
	// ClearKey returns the device to pending: empties the key and clears
	// active, activation time, and expiry.
	ClearKey(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
