package database

import (
	"database/sql"
	"fmt"

	"autoshop-admin/internal/config"

	_ "github.com/lib/pq"
)

// OpenPostgresDB opens a pooled PostgreSQL connection. Used directly by
// migration tooling, which runs as the schema owner.
func OpenPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewPostgresDB opens a pooled PostgreSQL connection and verifies that the
// connected role is safe for row-level security enforcement.
func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := OpenPostgresDB(cfg)
	if err != nil {
		return nil, err
	}

	if err := CheckRLSEnforceable(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// CheckRLSEnforceable fails fast when the connected role could bypass
// row-level security. Tenant isolation relies entirely on RLS policies, so a
// superuser or BYPASSRLS role would silently disable the only enforcement
// boundary. Provision a dedicated app role instead of reusing postgres.
func CheckRLSEnforceable(db *sql.DB) error {
	var super, bypass bool
	err := db.QueryRow(
		`SELECT rolsuper, rolbypassrls FROM pg_roles WHERE rolname = current_user`,
	).Scan(&super, &bypass)
	if err != nil {
		return fmt.Errorf("failed to inspect current role: %w", err)
	}
	if super {
		return fmt.Errorf("database role %q is a superuser; row-level security would not apply", currentUser(db))
	}
	if bypass {
		return fmt.Errorf("database role %q has BYPASSRLS; row-level security would not apply", currentUser(db))
	}
	return nil
}

func currentUser(db *sql.DB) string {
	var name string
	_ = db.QueryRow(`SELECT current_user`).Scan(&name)
	return name
}

// Close closes the database connection.
func Close(db *sql.DB) error {
	if db != nil {
		return db.Close()
	}
	return nil
}
