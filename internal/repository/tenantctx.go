package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autoshop-admin/internal/domain"
)

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories run against the request's tenant-scoped transaction when one
// is in the context, and fall back to the pool otherwise (platform-level
// tables only).
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// NewTxContext returns ctx carrying the request transaction.
func NewTxContext(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom returns the request transaction, or nil.
func TxFrom(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

func dbtx(ctx context.Context, db *sql.DB) DBTX {
	if tx := TxFrom(ctx); tx != nil {
		return tx
	}
	return db
}

// BeginTenantTx opens a transaction and binds app.tenant_id for its
// duration. set_config(..., true) is transaction-local, so a pooled
// connection returns to the pool with no tenant attached: one request can
// never observe another's tenant.
func BeginTenantTx(ctx context.Context, db *sql.DB, tenantID string) (*sql.Tx, error) {
	if tenantID == "" {
		return nil, domain.ErrNoTenant
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`SELECT set_config('app.tenant_id', $1, true)`, tenantID,
	); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to set tenant context: %w", err)
	}
	return tx, nil
}

// WithTenantTx runs fn inside a tenant-scoped transaction, committing on
// nil error and rolling back otherwise. fn receives a context carrying the
// transaction, so repository calls inside it hit the scoped tx.
func WithTenantTx(ctx context.Context, db *sql.DB, tenantID string, fn func(ctx context.Context) error) error {
	tx, err := BeginTenantTx(ctx, db, tenantID)
	if err != nil {
		return err
	}
	if err := fn(NewTxContext(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// TxRunner is the unit-of-work boundary services run their operations in:
// one tenant-scoped transaction per request.
type TxRunner interface {
	InTenantTx(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error
}

// PostgresTxRunner binds units of work to tenant-scoped SQL transactions.
type PostgresTxRunner struct {
	db *sql.DB
}

func NewPostgresTxRunner(db *sql.DB) *PostgresTxRunner { return &PostgresTxRunner{db: db} }

func (r *PostgresTxRunner) InTenantTx(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	return WithTenantTx(ctx, r.db, tenantID, fn)
}

// NoTxRunner runs units of work directly, for the memory repositories.
type NoTxRunner struct{}

func (NoTxRunner) InTenantTx(ctx context.Context, tenantID string, fn func(ctx context.Context) error) error {
	if tenantID == "" {
		return domain.ErrNoTenant
	}
	return fn(ctx)
}
