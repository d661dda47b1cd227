package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	"license-desk/backend/internal/db"
	devicerepo "license-desk/backend/internal/device/repository"
	"license-desk/backend/internal/license"
)

var testActor = Actor{ID: "u1", Username: "admin"}

type fixture struct {
	svc     *Service
	devices *devicerepo.MemoryRepository
	logs    *auditrepo.MemoryRepository
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		devices: devicerepo.NewMemoryRepository(),
		logs:    auditrepo.NewMemoryRepository(),
		now:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.devices, f.logs, db.NewMutexTxManager(), nil, func() time.Time { return f.now })
	return f
}

func TestService_Register(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Register(ctx, testActor, "aa:bb:cc:dd:ee:01", "H1", "1day")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if d.MAC != "AA:BB:CC:DD:EE:01" {
		t.Errorf("MAC = %q, want normalized", d.MAC)
	}
	if !d.Active {
		t.Error("device should be active after registration")
	}
	if groups := strings.Split(d.KeyCode, "-"); len(groups) != 5 {
		t.Errorf("key %q should have 5 groups", d.KeyCode)
	}
	if d.ExpiresAt == nil || !d.ExpiresAt.Equal(f.now.Add(24*time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+24h", d.ExpiresAt)
	}
	if d.AddedBy != "u1" {
		t.Errorf("AddedBy = %q, want u1", d.AddedBy)
	}

	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(entries))
	}
	if entries[0].Action != auditdomain.ActionIssueKey {
		t.Errorf("audit action = %q, want issue_key", entries[0].Action)
	}
	if entries[0].DeviceID != d.ID {
		t.Errorf("audit device id = %q, want %q", entries[0].DeviceID, d.ID)
	}
}

func TestService_Register_Forever(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Register(context.Background(), testActor, "AA:BB:CC:DD:EE:01", "H1", "forever")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if d.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want nil for forever", d.ExpiresAt)
	}
	// a forever key never reads as expired
	if got := d.Status(f.now.AddDate(100, 0, 0)); got != license.StatusActive {
		t.Errorf("status at +100y = %q, want active", got)
	}
}

func TestService_Register_DuplicateMAC(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1month"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// same MAC, different formatting
	_, err := f.svc.Register(ctx, testActor, "aa-bb-cc-dd-ee-01", "H2", "1month")
	if !errors.Is(err, ErrDuplicateDevice) {
		t.Fatalf("err = %v, want ErrDuplicateDevice", err)
	}
	// the failed attempt must not leave an audit entry
	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 1 {
		t.Errorf("audit entries = %d, want 1", len(entries))
	}
}

func TestService_Register_ValidationFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name               string
		mac, host, duration string
	}{
		{"bad mac", "nope", "H1", "1day"},
		{"empty hostname", "AA:BB:CC:DD:EE:01", "  ", "1day"},
		{"bad duration", "AA:BB:CC:DD:EE:01", "H1", "2weeks"},
		{"empty duration", "AA:BB:CC:DD:EE:01", "H1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Register(ctx, testActor, tt.mac, tt.host, tt.duration); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
	if entries, _ := f.logs.List(ctx, 0); len(entries) != 0 {
		t.Errorf("failed registrations must not log, got %d entries", len(entries))
	}
}

func TestService_OneDayLifecycle(t *testing.T) {
	f := newFixture(t)
	d, err := f.svc.Register(context.Background(), testActor, "AA:BB:CC:DD:EE:01", "H1", "1day")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := d.Status(f.now.Add(time.Hour)); got != license.StatusActive {
		t.Errorf("status at T+1h = %q, want active", got)
	}
	if got := d.Status(f.now.Add(25 * time.Hour)); got != license.StatusExpired {
		t.Errorf("status at T+25h = %q, want expired", got)
	}
}

func TestService_Reset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "6months")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.svc.Reset(ctx, testActor, d.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := f.svc.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.KeyCode != "" || got.Active || got.ExpiresAt != nil {
		t.Errorf("after reset: %+v, want cleared key/active/expiry", got)
	}
	if status := got.Status(f.now); status != license.StatusPending {
		t.Errorf("status after reset = %q, want pending", status)
	}
	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 2 || entries[0].Action != auditdomain.ActionReset {
		t.Errorf("most recent audit action = %v, want reset", entries[0].Action)
	}
}

func TestService_Reset_NotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Reset(context.Background(), testActor, "missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestService_ReissueAfterReset_OverwritesKey(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1month")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	firstKey := d.KeyCode
	if err := f.svc.Reset(ctx, testActor, d.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := f.svc.Delete(ctx, testActor, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	d2, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1month")
	if err != nil {
		t.Fatalf("re-Register: %v", err)
	}
	if d2.KeyCode == firstKey {
		t.Error("reissued key should differ from the original")
	}
}

func TestService_IssueKey_Overwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1day")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	firstKey := d.KeyCode

	f.now = f.now.Add(48 * time.Hour) // first key has expired
	reissued, err := f.svc.IssueKey(ctx, testActor, d.ID, "1month")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	if reissued.KeyCode == firstKey || reissued.KeyCode == "" {
		t.Errorf("key not overwritten: %q", reissued.KeyCode)
	}
	if got := reissued.Status(f.now); got != license.StatusActive {
		t.Errorf("status after reissue = %q, want active", got)
	}
	if reissued.ExpiresAt == nil || !reissued.ExpiresAt.Equal(f.now.Add(30*24*time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now+30d", reissued.ExpiresAt)
	}

	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].Action != auditdomain.ActionIssueKey {
		t.Errorf("most recent action = %q, want issue_key", entries[0].Action)
	}
}

func TestService_IssueKey_NotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.IssueKey(context.Background(), testActor, "missing", "1day"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestService_IssueKey_BadDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1day")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.svc.IssueKey(ctx, testActor, d.ID, "fortnight"); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestService_Delete_LogHistorySurvives(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "2years")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.svc.Delete(ctx, testActor, d.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	list, _ := f.svc.List(ctx)
	if len(list) != 0 {
		t.Errorf("list after delete = %d devices, want 0", len(list))
	}
	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2 (issue_key + delete)", len(entries))
	}
	for _, e := range entries {
		if e.DeviceID != d.ID {
			t.Errorf("entry %s lost its device reference", e.Action)
		}
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.Delete(context.Background(), testActor, "missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("err = %v, want ErrDeviceNotFound", err)
	}
}

func TestService_Activate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1month")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.svc.Activate(ctx, "aa:bb:cc:dd:ee:01", "H1", d.KeyCode); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	entries, _ := f.logs.List(ctx, 0)
	if len(entries) != 2 {
		t.Fatalf("audit entries = %d, want 2", len(entries))
	}
	if entries[0].UserID != "client" {
		t.Errorf("activation performer = %q, want client", entries[0].UserID)
	}
}

func TestService_Activate_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1day")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := f.svc.Activate(ctx, "AA:BB:CC:DD:EE:01", "H1", "WRONG-KEYXX-AAAAA-BBBBB-CCCCC"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("wrong key: err = %v, want ErrInvalidKey", err)
	}
	if err := f.svc.Activate(ctx, "AA:BB:CC:DD:EE:02", "H2", d.KeyCode); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("key for another MAC: err = %v, want ErrInvalidKey", err)
	}
	if err := f.svc.Activate(ctx, "AA:BB:CC:DD:EE:01", "H1", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty key: err = %v, want ErrValidation", err)
	}

	// expired key
	f.now = f.now.Add(48 * time.Hour)
	if err := f.svc.Activate(ctx, "AA:BB:CC:DD:EE:01", "H1", d.KeyCode); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expired key: err = %v, want ErrInvalidKey", err)
	}
}

func TestService_CheckActivation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.CheckActivation(ctx, "AA:BB:CC:DD:EE:01")
	if err != nil {
		t.Fatalf("CheckActivation: %v", err)
	}
	if status != license.StatusPending {
		t.Errorf("unregistered MAC status = %q, want pending", status)
	}

	if _, err := f.svc.Register(ctx, testActor, "AA:BB:CC:DD:EE:01", "H1", "1day"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	status, _ = f.svc.CheckActivation(ctx, "AA:BB:CC:DD:EE:01")
	if status != license.StatusActive {
		t.Errorf("status = %q, want active", status)
	}

	f.now = f.now.Add(48 * time.Hour)
	status, _ = f.svc.CheckActivation(ctx, "AA:BB:CC:DD:EE:01")
	if status != license.StatusExpired {
		t.Errorf("status after expiry = %q, want expired", status)
	}
}
