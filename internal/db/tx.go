package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// TxManager runs a function as one atomic unit. A device mutation and its
// audit log append always go through WithinTx together so a failure between
// the two steps cannot leave an activated device with no audit trail.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// SQLTxManager implements TxManager over database/sql transactions.
type SQLTxManager struct {
	db *sql.DB
}

// NewSQLTxManager returns a TxManager that opens a transaction per WithinTx call.
func NewSQLTxManager(conn *sql.DB) *SQLTxManager {
	return &SQLTxManager{db: conn}
}

// WithinTx begins a transaction, stores it in ctx for QuerierFrom, and runs fn.
// Commits when fn returns nil; rolls back otherwise.
func (m *SQLTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// QuerierFrom returns the transaction stored in ctx by WithinTx, or fallback.
func QuerierFrom(ctx context.Context, fallback Querier) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return fallback
}

// MutexTxManager implements TxManager for the in-memory store: one exclusive
// lock held across the whole unit. The in-memory repositories share no other
// cross-collection coordination, so every multi-step mutation must go through it.
type MutexTxManager struct {
	mu sync.Mutex
}

// NewMutexTxManager returns a TxManager that serializes units with a single lock.
func NewMutexTxManager() *MutexTxManager {
	return &MutexTxManager{}
}

// WithinTx runs fn while holding the store lock. There is no rollback: callers
// order their steps so validation happens before the first write.
func (m *MutexTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx)
}
