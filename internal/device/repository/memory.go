package repository

import (
	"context"
	"sync"
	"time"

	"license-desk/backend/internal/device/domain"
)

// MemoryRepository is the in-memory device registry: a map keyed by id with a
// secondary map keyed by normalized MAC, plus an id slice preserving
// insertion order for listing. Guarded by a single lock. Used for dev/test
// runs and as the repository fake in service tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Device
	byMAC map[string]string // normalized MAC -> id
	order []string
}

// NewMemoryRepository returns an empty in-memory device registry.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:  make(map[string]*domain.Device),
		byMAC: make(map[string]string),
	}
}

// GetByID returns the device for id, or nil if not found.
func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyDevice(r.byID[id]), nil
}

// GetByMAC returns the device for the normalized MAC, or nil if not found.
func (r *MemoryRepository) GetByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byMAC[mac]
	if !ok {
		return nil, nil
	}
	return copyDevice(r.byID[id]), nil
}

// GetByKey returns the device holding keyCode, or nil if none does.
func (r *MemoryRepository) GetByKey(ctx context.Context, keyCode string) (*domain.Device, error) {
	if keyCode == "" {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if d := r.byID[id]; d != nil && d.KeyCode == keyCode {
			return copyDevice(d), nil
		}
	}
	return nil, nil
}

// List returns all devices in insertion order.
func (r *MemoryRepository) List(ctx context.Context) ([]*domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Device, 0, len(r.order))
	for _, id := range r.order {
		if d := r.byID[id]; d != nil {
			out = append(out, copyDevice(d))
		}
	}
	return out, nil
}

// Create stores the device. The device must have ID and normalized MAC set.
func (r *MemoryRepository) Create(ctx context.Context, d *domain.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := copyDevice(d)
	r.byID[stored.ID] = stored
	r.byMAC[stored.MAC] = stored.ID
	r.order = append(r.order, stored.ID)
	return nil
}

// SetKey records an issued key on the device. Missing ids are a no-op; the
// service checks existence before issuing.
func (r *MemoryRepository) SetKey(ctx context.Context, id, keyCode string, activatedAt time.Time, expiresAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return nil
	}
	d.KeyCode = keyCode
	d.Active = true
	at := activatedAt
	d.ActivatedAt = &at
	d.ExpiresAt = copyTime(expiresAt)
	return nil
}

// ClearKey returns the device to pending.
func (r *MemoryRepository) ClearKey(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return nil
	}
	d.KeyCode = ""
	d.Active = false
	d.ActivatedAt = nil
	d.ExpiresAt = nil
	return nil
}

// Delete removes the device from the registry.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)
	delete(r.byMAC, d.MAC)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyDevice(d *domain.Device) *domain.Device {
	if d == nil {
		return nil
	}
	out := *d
	out.ActivatedAt = copyTime(d.ActivatedAt)
	out.ExpiresAt = copyTime(d.ExpiresAt)
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
