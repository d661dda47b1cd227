// Package repository defines persistence for the append-only audit log.
package repository

import (
	"context"

	"license-desk/backend/internal/audit/domain"
)

// Repository defines persistence for audit log entries. Append is the only
// mutation; there is no update or delete path.
type Repository interface {
	Append(ctx context.Context, e *domain.Entry) error
	// List returns up to limit entries, most recent first: timestamp
	// descending, with identical timestamps broken by most recent insertion
	// first. limit <= 0 returns everything.
	List(ctx context.Context, limit int) ([]*domain.Entry, error)
}
