// Package domain holds the device entity of the license registry.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"license-desk/backend/internal/license"
)

// Device is a registered endpoint identified by MAC address and hostname.
// Status is never stored on the record; call Status to derive it.
type Device struct {
	ID          string
	MAC         string // normalized: uppercase, colon-separated
	Hostname    string
	KeyCode     string // empty until a key is issued
	Active      bool
	ActivatedAt *time.Time
	ExpiresAt   *time.Time
	AddedBy     string // user id of the staff member who registered it
	CreatedAt   time.Time
}

var macPattern = regexp.MustCompile(`^([0-9A-F]{2}:){5}[0-9A-F]{2}$`)

// ErrInvalidMAC is returned for a MAC address that does not normalize to six
// colon-separated hex octets.
var ErrInvalidMAC = errors.New("invalid MAC address")

// NormalizeMAC uppercases s and converts dash separators to colons, then
// validates the result. Lookups and uniqueness checks always go through this
// so AA-BB-CC-DD-EE-01 and aa:bb:cc:dd:ee:01 land on the same record.
func NormalizeMAC(s string) (string, error) {
	mac := strings.ToUpper(strings.TrimSpace(s))
	mac = strings.ReplaceAll(mac, "-", ":")
	if !macPattern.MatchString(mac) {
		return "", ErrInvalidMAC
	}
	return mac, nil
}

// Validate validates the device for persistence.
func (d *Device) Validate() error {
	if d.ID == "" {
		return errors.New("device id is required")
	}
	if _, err := NormalizeMAC(d.MAC); err != nil {
		return err
	}
	if strings.TrimSpace(d.Hostname) == "" {
		return errors.New("hostname is required")
	}
	return nil
}

// Status derives the display status from the stored fields at now.
func (d *Device) Status(now time.Time) license.Status {
	return license.DeriveStatus(d.KeyCode, d.Active, d.ExpiresAt, now)
}

// UpdatedAt reports the last mutation time visible to the dashboard:
// activation time when a key has been issued, creation time otherwise.
func (d *Device) UpdatedAt() time.Time {
	if d.ActivatedAt != nil {
		return *d.ActivatedAt
	}
	return d.CreatedAt
}
