// Package service aggregates the dashboard landing stats: device counts by
// derived status, the staff headcount, and the most recent audit activity.
package service

import (
	"context"
	"time"

	auditdomain "license-desk/backend/internal/audit/domain"
	devicedomain "license-desk/backend/internal/device/domain"
	"license-desk/backend/internal/license"
	userdomain "license-desk/backend/internal/user/domain"
)

// recentActivityLimit caps the activity feed on the landing page.
const recentActivityLimit = 10

// DeviceLister lists every registered device.
type DeviceLister interface {
	List(ctx context.Context) ([]*devicedomain.Device, error)
}

// UserLister lists every staff account.
type UserLister interface {
	List(ctx context.Context) ([]*userdomain.User, error)
}

// AuditLister lists audit entries, most recent first.
type AuditLister interface {
	List(ctx context.Context, limit int) ([]*auditdomain.Entry, error)
}

// Stats is one consistent snapshot. The three status counts always sum to
// TotalDevices; every status is derived against the same instant.
type Stats struct {
	TotalDevices   int
	ActiveDevices  int
	ExpiredDevices int
	PendingDevices int
	TotalUsers     int
	RecentActivity []*auditdomain.Entry
}

// Service computes dashboard snapshots.
type Service struct {
	devices DeviceLister
	users   UserLister
	logs    AuditLister
	now     func() time.Time
}

// NewService returns a dashboard Service. nowFn may be nil; it defaults to
// time.Now in UTC.
func NewService(devices DeviceLister, users UserLister, logs AuditLister, nowFn func() time.Time) *Service {
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}
	return &Service{devices: devices, users: users, logs: logs, now: nowFn}
}

// Snapshot computes the stats. A single clock reading covers every device so
// a key expiring mid-request cannot be counted twice or not at all.
func (s *Service) Snapshot(ctx context.Context) (*Stats, error) {
	now := s.now()
	devices, err := s.devices.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	activity, err := s.logs.List(ctx, recentActivityLimit)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalDevices:   len(devices),
		TotalUsers:     len(users),
		RecentActivity: activity,
	}
	for _, d := range devices {
		switch d.Status(now) {
		case license.StatusActive:
			stats.ActiveDevices++
		case license.StatusExpired:
			stats.ExpiredDevices++
		default:
			stats.PendingDevices++
		}
	}
	return stats, nil
}
