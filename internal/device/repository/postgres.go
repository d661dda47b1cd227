package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"license-desk/backend/internal/db"
	"license-desk/backend/internal/device/domain"
)

// PostgresRepository persists devices in the devices table. It resolves its
// querier per call so the same methods run inside a db.TxManager unit.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a device repository backed by conn.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

const deviceColumns = "id, mac, hostname, key_code, active, activated_at, expires_at, added_by, created_at"

// GetByID returns the device for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	row := db.QuerierFrom(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id = $1", id)
	return scanDevice(row)
}

// GetByMAC returns the device for the normalized MAC, or nil if not found.
func (r *PostgresRepository) GetByMAC(ctx context.Context, mac string) (*domain.Device, error) {
	row := db.QuerierFrom(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE mac = $1", mac)
	return scanDevice(row)
}

// GetByKey returns the device holding keyCode, or nil if none does.
func (r *PostgresRepository) GetByKey(ctx context.Context, keyCode string) (*domain.Device, error) {
	if keyCode == "" {
		return nil, nil
	}
	row := db.QuerierFrom(ctx, r.db).QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE key_code = $1", keyCode)
	return scanDevice(row)
}

// List returns all devices in insertion order.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Device, error) {
	rows, err := db.QuerierFrom(ctx, r.db).QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices ORDER BY seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Create persists the device. The device must have ID and normalized MAC set.
func (r *PostgresRepository) Create(ctx context.Context, d *domain.Device) error {
	_, err := db.QuerierFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO devices (id, mac, hostname, key_code, active, activated_at, expires_at, added_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.MAC, d.Hostname, d.KeyCode, d.Active,
		nullTime(d.ActivatedAt), nullTime(d.ExpiresAt),
		sql.NullString{String: d.AddedBy, Valid: d.AddedBy != ""}, d.CreatedAt)
	return err
}

// SetKey records an issued key on the device, overwriting any previous key.
func (r *PostgresRepository) SetKey(ctx context.Context, id, keyCode string, activatedAt time.Time, expiresAt *time.Time) error {
	_, err := db.QuerierFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE devices SET key_code = $2, active = TRUE, activated_at = $3, expires_at = $4 WHERE id = $1`,
		id, keyCode, activatedAt, nullTime(expiresAt))
	return err
}

// ClearKey returns the device to pending.
func (r *PostgresRepository) ClearKey(ctx context.Context, id string) error {
	_, err := db.QuerierFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE devices SET key_code = '', active = FALSE, activated_at = NULL, expires_at = NULL WHERE id = $1`, id)
	return err
}

// Delete removes the device row. Audit log rows referencing it are untouched.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := db.QuerierFrom(ctx, r.db).ExecContext(ctx, "DELETE FROM devices WHERE id = $1", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*domain.Device, error) {
	var d domain.Device
	var activatedAt, expiresAt sql.NullTime
	var addedBy sql.NullString
	err := row.Scan(&d.ID, &d.MAC, &d.Hostname, &d.KeyCode, &d.Active,
		&activatedAt, &expiresAt, &addedBy, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if activatedAt.Valid {
		d.ActivatedAt = &activatedAt.Time
	}
	if expiresAt.Valid {
		d.ExpiresAt = &expiresAt.Time
	}
	d.AddedBy = addedBy.String
	return &d, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
