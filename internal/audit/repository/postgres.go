package repository

import (
	"context"
	"database/sql"

	"license-desk/backend/internal/audit/domain"
	"license-desk/backend/internal/db"
)

// PostgresRepository persists audit entries in the logs table. The table has
// no UPDATE or DELETE statements anywhere in the codebase.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository backed by conn.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: conn}
}

// Append persists the entry.
func (r *PostgresRepository) Append(ctx context.Context, e *domain.Entry) error {
	_, err := db.QuerierFrom(ctx, r.db).ExecContext(ctx,
		`INSERT INTO logs (id, action, performed_by, username, device_id, mac, hostname, ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, string(e.Action), e.UserID, e.Username,
		nullString(e.DeviceID), nullString(e.MAC), nullString(e.Hostname), e.Timestamp)
	return err
}

// List returns up to limit entries, timestamp descending; the seq tiebreak
// puts the most recent insertion first among equal timestamps.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*domain.Entry, error) {
	query := "SELECT id, action, performed_by, username, device_id, mac, hostname, ts FROM logs ORDER BY ts DESC, seq DESC"
	var (
		rows *sql.Rows
		err  error
	)
	q := db.QuerierFrom(ctx, r.db)
	if limit > 0 {
		rows, err = q.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = q.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Entry
	for rows.Next() {
		var e domain.Entry
		var action string
		var deviceID, mac, hostname sql.NullString
		if err := rows.Scan(&e.ID, &action, &e.UserID, &e.Username, &deviceID, &mac, &hostname, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Action = domain.Action(action)
		e.DeviceID = deviceID.String
		e.MAC = mac.String
		e.Hostname = hostname.String
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
