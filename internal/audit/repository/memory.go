package repository

import (
	"context"
	"sort"
	"sync"

	"license-desk/backend/internal/audit/domain"
)

// MemoryRepository is the in-memory audit log, guarded by a single lock.
// Entries are held in insertion order; List sorts on read.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*domain.Entry
}

// NewMemoryRepository returns an empty in-memory audit log.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Append stores the entry. Entries are never modified after this.
func (r *MemoryRepository) Append(ctx context.Context, e *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *e
	r.entries = append(r.entries, &stored)
	return nil
}

// List returns up to limit entries, timestamp descending, ties broken by most
// recent insertion first.
func (r *MemoryRepository) List(ctx context.Context, limit int) ([]*domain.Entry, error) {
	r.mu.RLock()
	out := make([]*domain.Entry, len(r.entries))
	for i, e := range r.entries {
		copied := *e
		out[i] = &copied
	}
	r.mu.RUnlock()

	// Reverse insertion order first, then a stable sort by timestamp keeps
	// the most recent insertion ahead among equal timestamps.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
