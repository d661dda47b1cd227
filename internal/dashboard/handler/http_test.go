package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	devicedomain "license-desk/backend/internal/device/domain"
	devicerepo "license-desk/backend/internal/device/repository"
	"license-desk/backend/internal/dashboard/service"
	userrepo "license-desk/backend/internal/user/repository"
)

func TestDashboardHandler_Stats(t *testing.T) {
	devices := devicerepo.NewMemoryRepository()
	logs := auditrepo.NewMemoryRepository()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	future := now.Add(24 * time.Hour)
	err := devices.Create(ctx, &devicedomain.Device{
		ID:          uuid.New().String(),
		MAC:         "AA:BB:CC:DD:EE:01",
		Hostname:    "office-pc",
		KeyCode:     "KEY11-KEY11-KEY11-KEY11-KEY11",
		Active:      true,
		ActivatedAt: &now,
		ExpiresAt:   &future,
		AddedBy:     "u1",
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("seed device: %v", err)
	}
	if err := logs.Append(ctx, auditdomain.NewLoginEntry("u1", "alice", now)); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	svc := service.NewService(devices, userrepo.NewMemoryRepository(), logs, func() time.Time { return now })
	h := NewDashboardHandler(svc)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var env struct {
		Data statsView `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.TotalDevices != 1 || env.Data.ActiveDevices != 1 {
		t.Errorf("stats = %+v", env.Data)
	}
	if len(env.Data.RecentActivity) != 1 || env.Data.RecentActivity[0].Action != "login" {
		t.Errorf("activity = %+v", env.Data.RecentActivity)
	}
}
