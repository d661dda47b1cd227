package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	devicedomain "license-desk/backend/internal/device/domain"
	devicerepo "license-desk/backend/internal/device/repository"
	userdomain "license-desk/backend/internal/user/domain"
	userrepo "license-desk/backend/internal/user/repository"
)

func seedDevice(t *testing.T, devices *devicerepo.MemoryRepository, mac string, active bool, key string, expiresAt *time.Time) {
	t.Helper()
	created := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	d := &devicedomain.Device{
		ID:        uuid.New().String(),
		MAC:       mac,
		Hostname:  "host-" + mac[len(mac)-2:],
		KeyCode:   key,
		Active:    active,
		ExpiresAt: expiresAt,
		AddedBy:   "u1",
		CreatedAt: created,
	}
	if active {
		d.ActivatedAt = &created
	}
	if err := devices.Create(context.Background(), d); err != nil {
		t.Fatalf("seed device: %v", err)
	}
}

func TestService_Snapshot(t *testing.T) {
	devices := devicerepo.NewMemoryRepository()
	users := userrepo.NewMemoryRepository()
	logs := auditrepo.NewMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	seedDevice(t, devices, "AA:BB:CC:DD:EE:01", true, "KEY11-KEY11-KEY11-KEY11-KEY11", &future)
	seedDevice(t, devices, "AA:BB:CC:DD:EE:02", true, "KEY22-KEY22-KEY22-KEY22-KEY22", nil)
	seedDevice(t, devices, "AA:BB:CC:DD:EE:03", true, "KEY33-KEY33-KEY33-KEY33-KEY33", &past)
	seedDevice(t, devices, "AA:BB:CC:DD:EE:04", false, "", nil)

	if err := users.Create(ctx, &userdomain.User{ID: "u1", Username: "alice", PasswordHash: "h", Role: userdomain.RoleAdmin, CreatedAt: now}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i := 0; i < 12; i++ {
		err := logs.Append(ctx, auditdomain.NewLoginEntry("u1", "alice", now.Add(time.Duration(i)*time.Minute)))
		if err != nil {
			t.Fatalf("seed log: %v", err)
		}
	}

	svc := NewService(devices, users, logs, func() time.Time { return now })
	stats, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if stats.TotalDevices != 4 {
		t.Errorf("TotalDevices = %d, want 4", stats.TotalDevices)
	}
	if stats.ActiveDevices != 2 || stats.ExpiredDevices != 1 || stats.PendingDevices != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", stats.ActiveDevices, stats.ExpiredDevices, stats.PendingDevices)
	}
	if sum := stats.ActiveDevices + stats.ExpiredDevices + stats.PendingDevices; sum != stats.TotalDevices {
		t.Errorf("status counts sum to %d, want %d", sum, stats.TotalDevices)
	}
	if stats.TotalUsers != 1 {
		t.Errorf("TotalUsers = %d, want 1", stats.TotalUsers)
	}
	if len(stats.RecentActivity) != 10 {
		t.Errorf("RecentActivity = %d entries, want 10", len(stats.RecentActivity))
	}
}

func TestService_Snapshot_Empty(t *testing.T) {
	svc := NewService(devicerepo.NewMemoryRepository(), userrepo.NewMemoryRepository(), auditrepo.NewMemoryRepository(), nil)
	stats, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if stats.TotalDevices != 0 || stats.TotalUsers != 0 || len(stats.RecentActivity) != 0 {
		t.Errorf("empty snapshot = %+v", stats)
	}
}
