// Package service implements the device lifecycle: registration with key
// issuance, reset back to pending, deletion, and the client-side activation
// checks. Every mutation and its audit entry run in one atomic unit.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	"license-desk/backend/internal/db"
	"license-desk/backend/internal/device/domain"
	devicerepo "license-desk/backend/internal/device/repository"
	"license-desk/backend/internal/license"
)

// Sentinel errors; the HTTP layer maps them to status codes.
var (
	ErrDeviceNotFound  = errors.New("device not found")
	ErrDuplicateDevice = errors.New("device with this MAC address already exists")
	ErrInvalidKey      = errors.New("activation key is invalid or expired")
	ErrValidation      = errors.New("validation failed")
)

// Actor is the authenticated staff member performing an operation. Audit
// entries record it as the performer.
type Actor struct {
	ID       string
	Username string
}

// clientActor is recorded when an installed client activates itself; there is
// no staff session on that path.
var clientActor = Actor{ID: "client", Username: "client"}

// Service owns device lifecycle operations.
type Service struct {
	devices devicerepo.Repository
	logs    auditrepo.Repository
	txm     db.TxManager
	now     func() time.Time
	logger  *slog.Logger
}

// NewService returns a device Service. nowFn may be nil; it defaults to
// time.Now in UTC and exists so tests can pin the clock.
func NewService(devices devicerepo.Repository, logs auditrepo.Repository, txm db.TxManager, logger *slog.Logger, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{devices: devices, logs: logs, txm: txm, now: nowFn, logger: logger}
}

// Register creates a device and issues its activation key in one step: the
// new record carries the key, active flag, activation time, and computed
// expiry. A MAC that already has a record is rejected with
// ErrDuplicateDevice; reissuing requires an explicit reset first.
func (s *Service) Register(ctx context.Context, actor Actor, macAddress, hostname, duration string) (*domain.Device, error) {
	mac, err := domain.NormalizeMAC(macAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hostname = strings.TrimSpace(hostname)
	if hostname == "" {
		return nil, fmt.Errorf("%w: hostname is required", ErrValidation)
	}
	d, err := license.ParseDuration(duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	keyCode, err := license.GenerateKey()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt, err := license.ExpiryFrom(now, d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	at := now
	device := &domain.Device{
		ID:          uuid.New().String(),
		MAC:         mac,
		Hostname:    hostname,
		KeyCode:     keyCode,
		Active:      true,
		ActivatedAt: &at,
		ExpiresAt:   expiresAt,
		AddedBy:     actor.ID,
		CreatedAt:   now,
	}
	if err := device.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		// The duplicate check runs inside the unit so two concurrent
		// registrations of the same MAC cannot both pass it.
		existing, err := s.devices.GetByMAC(ctx, mac)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrDuplicateDevice
		}
		if err := s.devices.Create(ctx, device); err != nil {
			return err
		}
		return s.logs.Append(ctx, auditdomain.NewIssueKeyEntry(actor.ID, actor.Username, deviceRef(device), now))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("device registered", "device_id", device.ID, "mac", device.MAC, "duration", duration, "performed_by", actor.Username)
	return device, nil
}

// IssueKey issues a fresh activation key to an existing device, overwriting
// whatever key it held. The new key, active flag, activation time, and expiry
// are stored together with the issue_key audit entry.
func (s *Service) IssueKey(ctx context.Context, actor Actor, id, duration string) (*domain.Device, error) {
	d, err := license.ParseDuration(duration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	keyCode, err := license.GenerateKey()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt, err := license.ExpiryFrom(now, d)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var device *domain.Device
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		device, err = s.devices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if device == nil {
			return ErrDeviceNotFound
		}
		if err := s.devices.SetKey(ctx, id, keyCode, now, expiresAt); err != nil {
			return err
		}
		device.KeyCode = keyCode
		device.Active = true
		at := now
		device.ActivatedAt = &at
		device.ExpiresAt = expiresAt
		return s.logs.Append(ctx, auditdomain.NewIssueKeyEntry(actor.ID, actor.Username, deviceRef(device), now))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("key issued", "device_id", id, "duration", duration, "performed_by", actor.Username)
	return device, nil
}

// List returns all devices in registration order.
func (s *Service) List(ctx context.Context) ([]*domain.Device, error) {
	return s.devices.List(ctx)
}

// Get returns the device for id, or ErrDeviceNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Device, error) {
	d, err := s.devices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDeviceNotFound
	}
	return d, nil
}

// Reset clears the device's key, active flag, and expiry, returning it to
// pending, and records a reset audit entry in the same unit.
func (s *Service) Reset(ctx context.Context, actor Actor, id string) error {
	now := s.now()
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.devices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrDeviceNotFound
		}
		if err := s.devices.ClearKey(ctx, id); err != nil {
			return err
		}
		return s.logs.Append(ctx, auditdomain.NewResetEntry(actor.ID, actor.Username, deviceRef(d), now))
	})
	if err != nil {
		return err
	}
	s.logger.Info("device reset", "device_id", id, "performed_by", actor.Username)
	return nil
}

// Delete removes the device and records a delete audit entry in the same
// unit. The device's earlier audit entries remain listable afterwards.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	now := s.now()
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.devices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return ErrDeviceNotFound
		}
		if err := s.devices.Delete(ctx, id); err != nil {
			return err
		}
		return s.logs.Append(ctx, auditdomain.NewDeleteEntry(actor.ID, actor.Username, deviceRef(d), now))
	})
	if err != nil {
		return err
	}
	s.logger.Info("device deleted", "device_id", id, "performed_by", actor.Username)
	return nil
}

// Activate validates an activation key presented by an installed client. The
// key must belong to the device with the presented MAC and must not be
// expired. Success is recorded as an issue_key audit entry under the client
// actor.
func (s *Service) Activate(ctx context.Context, macAddress, hostname, keyCode string) error {
	mac, err := domain.NormalizeMAC(macAddress)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(keyCode) == "" {
		return fmt.Errorf("%w: activation key is required", ErrValidation)
	}
	now := s.now()
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		d, err := s.devices.GetByKey(ctx, strings.TrimSpace(keyCode))
		if err != nil {
			return err
		}
		if d == nil || d.MAC != mac {
			return ErrInvalidKey
		}
		if d.Status(now) != license.StatusActive {
			return ErrInvalidKey
		}
		return s.logs.Append(ctx, auditdomain.NewIssueKeyEntry(clientActor.ID, clientActor.Username, deviceRef(d), now))
	})
}

// CheckActivation reports whether the device with the given MAC is currently
// active. Unregistered MACs report pending.
func (s *Service) CheckActivation(ctx context.Context, macAddress string) (license.Status, error) {
	mac, err := domain.NormalizeMAC(macAddress)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	d, err := s.devices.GetByMAC(ctx, mac)
	if err != nil {
		return "", err
	}
	if d == nil {
		return license.StatusPending, nil
	}
	return d.Status(s.now()), nil
}

func deviceRef(d *domain.Device) auditdomain.DeviceRef {
	return auditdomain.DeviceRef{ID: d.ID, MAC: d.MAC, Hostname: d.Hostname}
}
