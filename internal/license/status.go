package license

import "time"

// Status is the derived display status of a device. It is never stored;
// callers recompute it from (key, active, expiresAt) on every read so that
// stored state and displayed state can only diverge by clock skew.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusPending Status = "pending"
)

// DeriveStatus computes the display status from a device's stored fields.
// Pure and deterministic given now: dashboard counts and list views evaluated
// against the same snapshot can never disagree.
//
// Rules, in order:
//  1. no key and not active -> pending
//  2. expiry set and before now -> expired
//  3. otherwise -> active
func DeriveStatus(key string, active bool, expiresAt *time.Time, now time.Time) Status {
	if key == "" && !active {
		return StatusPending
	}
	if expiresAt != nil && expiresAt.Before(now) {
		return StatusExpired
	}
	return StatusActive
}
