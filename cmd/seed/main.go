// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	auditdomain "license-desk/backend/internal/audit/domain"
	auditrepo "license-desk/backend/internal/audit/repository"
	"license-desk/backend/internal/config"
	"license-desk/backend/internal/db"
	devicedomain "license-desk/backend/internal/device/domain"
	devicerepo "license-desk/backend/internal/device/repository"
	"license-desk/backend/internal/license"
	"license-desk/backend/internal/security"
	userdomain "license-desk/backend/internal/user/domain"
	userrepo "license-desk/backend/internal/user/repository"
)

const (
	adminUsername = "admin"
	staffUsername = "staff"
	devPassword   = "password123"
	adminUserID   = "dev-user-001"
	staffUserID   = "dev-user-002"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	devices := devicerepo.NewPostgresRepository(conn)
	logs := auditrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByUsername(ctx, adminUsername)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	for _, u := range []*userdomain.User{
		{ID: adminUserID, Username: adminUsername, PasswordHash: passwordHash, Role: userdomain.RoleAdmin, CreatedAt: now},
		{ID: staffUserID, Username: staffUsername, PasswordHash: passwordHash, Role: userdomain.RoleStaff, CreatedAt: now},
	} {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Username, err)
		}
	}

	expiry := now.AddDate(0, 0, 30)
	key, err := license.GenerateKey()
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	sample := []*devicedomain.Device{
		{
			ID: uuid.New().String(), MAC: "AA:BB:CC:DD:EE:01", Hostname: "office-pc",
			KeyCode: key, Active: true, ActivatedAt: &now, ExpiresAt: &expiry,
			AddedBy: adminUserID, CreatedAt: now,
		},
		{
			ID: uuid.New().String(), MAC: "AA:BB:CC:DD:EE:02", Hostname: "reception-pc",
			AddedBy: adminUserID, CreatedAt: now,
		},
	}
	for _, d := range sample {
		if err := devices.Create(ctx, d); err != nil {
			log.Fatalf("create device %s: %v", d.Hostname, err)
		}
	}

	entry := auditdomain.NewIssueKeyEntry(adminUserID, adminUsername,
		auditdomain.DeviceRef{ID: sample[0].ID, MAC: sample[0].MAC, Hostname: sample[0].Hostname}, now)
	if err := logs.Append(ctx, entry); err != nil {
		log.Fatalf("append log: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminUsername, devPassword)
	fmt.Printf("Staff login: %s / %s\n", staffUsername, devPassword)
}
