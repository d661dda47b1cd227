// Package service reads and extends the audit log. Lifecycle entries are
// appended by the device and identity services; this package serves the log
// listing and the manually posted entries.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"license-desk/backend/internal/audit/domain"
	"license-desk/backend/internal/audit/repository"
)

// ErrValidation marks a manual entry that failed validation.
var ErrValidation = errors.New("validation failed")

// deviceDetailsPattern matches the rendered form "hostname (MAC)".
var deviceDetailsPattern = regexp.MustCompile(`^(.*)\s\(([^()]+)\)$`)

// Actor is the authenticated staff member recording a manual entry.
type Actor struct {
	ID       string
	Username string
}

// Service lists and records audit entries.
type Service struct {
	logs   repository.Repository
	now    func() time.Time
	logger *slog.Logger
}

// NewService returns an audit Service. nowFn may be nil; it defaults to
// time.Now in UTC.
func NewService(logs repository.Repository, logger *slog.Logger, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logs: logs, now: nowFn, logger: logger}
}

// List returns audit entries, most recent first. limit <= 0 returns all.
func (s *Service) List(ctx context.Context, limit int) ([]*domain.Entry, error) {
	return s.logs.List(ctx, limit)
}

// Record appends a manually posted entry. deviceDetails, when present, must
// be the rendered "hostname (MAC)" form; it is split back into fields so the
// entry lists like any other.
func (s *Service) Record(ctx context.Context, actor Actor, action, deviceDetails string) (*domain.Entry, error) {
	act, err := domain.ParseAction(action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	entry := &domain.Entry{
		ID:        uuid.New().String(),
		Action:    act,
		UserID:    actor.ID,
		Username:  actor.Username,
		Timestamp: s.now(),
	}
	if details := strings.TrimSpace(deviceDetails); details != "" {
		m := deviceDetailsPattern.FindStringSubmatch(details)
		if m == nil {
			return nil, fmt.Errorf("%w: device details must be in the form %q", ErrValidation, "hostname (MAC)")
		}
		entry.Hostname = strings.TrimSpace(m[1])
		entry.MAC = strings.ToUpper(m[2])
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.logs.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("audit entry recorded", "action", entry.Action, "performed_by", actor.Username)
	return entry, nil
}
