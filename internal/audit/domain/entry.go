// Package domain holds the audit log entry: an immutable record of an
// administrative action. Entries are append-only; nothing in the application
// updates or deletes them.
package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of administrative action an entry records.
type Action string

const (
	ActionLogin    Action = "login"
	ActionIssueKey Action = "issue_key"
	ActionReset    Action = "reset"
	ActionDelete   Action = "delete"
)

// Entry is one audit record. Device fields are weak references: deleting the
// device leaves its entries intact and still listable.
type Entry struct {
	ID        string
	Action    Action
	UserID    string
	Username  string
	DeviceID  string // empty for login entries
	MAC       string
	Hostname  string
	Timestamp time.Time
}

// DeviceRef identifies the device an entry refers to.
type DeviceRef struct {
	ID       string
	MAC      string
	Hostname string
}

// NewLoginEntry records a successful dashboard sign-in.
func NewLoginEntry(userID, username string, at time.Time) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Action:    ActionLogin,
		UserID:    userID,
		Username:  username,
		Timestamp: at,
	}
}

// NewIssueKeyEntry records an activation key being issued for a device.
func NewIssueKeyEntry(userID, username string, device DeviceRef, at time.Time) *Entry {
	return newDeviceEntry(ActionIssueKey, userID, username, device, at)
}

// NewResetEntry records a device being reset back to pending.
func NewResetEntry(userID, username string, device DeviceRef, at time.Time) *Entry {
	return newDeviceEntry(ActionReset, userID, username, device, at)
}

// NewDeleteEntry records a device being removed from the registry.
func NewDeleteEntry(userID, username string, device DeviceRef, at time.Time) *Entry {
	return newDeviceEntry(ActionDelete, userID, username, device, at)
}

func newDeviceEntry(action Action, userID, username string, device DeviceRef, at time.Time) *Entry {
	return &Entry{
		ID:        uuid.New().String(),
		Action:    action,
		UserID:    userID,
		Username:  username,
		DeviceID:  device.ID,
		MAC:       device.MAC,
		Hostname:  device.Hostname,
		Timestamp: at,
	}
}

// ParseAction validates s against the known action set.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionLogin, ActionIssueKey, ActionReset, ActionDelete:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown audit action %q", s)
}

// Validate checks the per-action field requirements: every entry needs an
// actor, and device actions need a device reference.
func (e *Entry) Validate() error {
	if e.ID == "" {
		return errors.New("entry id is required")
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	if e.UserID == "" || e.Username == "" {
		return errors.New("entry actor is required")
	}
	if e.Action != ActionLogin && e.MAC == "" && e.Hostname == "" {
		return fmt.Errorf("%s entry requires a device reference", e.Action)
	}
	if e.Timestamp.IsZero() {
		return errors.New("entry timestamp is required")
	}
	return nil
}

// DeviceDetails renders the device reference the way the dashboard displays
// it: "hostname (MAC)". Empty for login entries.
func (e *Entry) DeviceDetails() string {
	if e.MAC == "" && e.Hostname == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s)", e.Hostname, e.MAC)
}
