//go:build integration
// +build integration

package repository

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strconv"
	"testing"

	"autoshop-admin/internal/config"
	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/platform/database"
)

// These tests need a migrated database and a role WITHOUT superuser or
// BYPASSRLS, since they verify the RLS boundary itself. They skip when no
// database is reachable or the configured role could bypass RLS.
//
//	TEST_DB_HOST / TEST_DB_PORT / TEST_DB_USER / TEST_DB_PASSWORD /
//	TEST_DB_NAME / TEST_DB_SSLMODE

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "autoshop_app"),
		Password: getEnv("TEST_DB_PASSWORD", "autoshop_app"),
		Database: getEnv("TEST_DB_NAME", "autoshop_test"),
		SSLMode:  getEnv("TEST_DB_SSLMODE", "disable"),
	}

	db, err := database.OpenPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping integration test: cannot connect to database: %v", err)
		return nil
	}
	if err := database.CheckRLSEnforceable(db); err != nil {
		db.Close()
		t.Skipf("Skipping integration test: %v", err)
		return nil
	}
	return db
}

// createTestTenant inserts directly; the tenants table is not RLS scoped.
func createTestTenant(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var id string
	err := db.QueryRow(
		`INSERT INTO tenants (tenant_name, status) VALUES ($1, 'active') RETURNING tenant_id::text`,
		name,
	).Scan(&id)
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	t.Cleanup(func() {
		db.Exec(`DELETE FROM tenants WHERE tenant_id = $1::uuid`, id)
	})
	return id
}

func inTenant(t *testing.T, db *sql.DB, tenantID string, fn func(ctx context.Context) error) error {
	t.Helper()
	runner := NewPostgresTxRunner(db)
	return runner.InTenantTx(context.Background(), tenantID, fn)
}

func createTestCustomer(t *testing.T, db *sql.DB, tenantID, lastName string) string {
	t.Helper()
	repo := NewPostgresCustomersRepository(db)
	var id string
	err := inTenant(t, db, tenantID, func(ctx context.Context) error {
		var err error
		id, err = repo.CreateCustomer(ctx, &domain.Customer{
			FirstName: "Test",
			LastName:  lastName,
		})
		return err
	})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return id
}

func TestRLSCrossTenantIsolation(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	tenantA := createTestTenant(t, db, "Shop A")
	tenantB := createTestTenant(t, db, "Shop B")
	customerA := createTestCustomer(t, db, tenantA, "Alpha")

	repo := NewPostgresCustomersRepository(db)

	// tenant A sees its customer
	err := inTenant(t, db, tenantA, func(ctx context.Context) error {
		_, err := repo.GetCustomer(ctx, customerA)
		return err
	})
	if err != nil {
		t.Fatalf("tenant A should see its own customer: %v", err)
	}

	// tenant B gets not-found for the same id, indistinguishable from absent
	err = inTenant(t, db, tenantB, func(ctx context.Context) error {
		_, err := repo.GetCustomer(ctx, customerA)
		return err
	})
	if err != domain.ErrNotFound {
		t.Fatalf("expected ErrNotFound across tenants, got %v", err)
	}

	// and B's list does not include it
	err = inTenant(t, db, tenantB, func(ctx context.Context) error {
		items, total, err := repo.ListCustomers(ctx, CustomerFilters{}, 1, 100)
		if err != nil {
			return err
		}
		for _, c := range items {
			if c.CustomerID == customerA {
				t.Fatalf("tenant B list leaked tenant A customer (total=%d)", total)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
}

func TestRLSFailsClosedWithoutTenant(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	tenantA := createTestTenant(t, db, "Shop A")
	customerA := createTestCustomer(t, db, tenantA, "Alpha")

	// raw transaction with no app.tenant_id bound: zero rows visible
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(
		`SELECT count(*) FROM customers WHERE customer_id = $1::uuid`, customerA,
	).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("unscoped transaction saw %d rows, want 0", n)
	}

	// and inserts are rejected by the WITH CHECK clause
	_, err = tx.Exec(
		`INSERT INTO customers (tenant_id, first_name, last_name) VALUES ($1::uuid, 'No', 'Tenant')`,
		tenantA,
	)
	if err == nil {
		t.Fatal("unscoped insert should violate the RLS policy")
	}
}

func TestStatusTransitionTrigger(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	tenantA := createTestTenant(t, db, "Shop A")
	customerA := createTestCustomer(t, db, tenantA, "Alpha")

	vehiclesRepo := NewPostgresVehiclesRepository(db)
	appointmentsRepo := NewPostgresAppointmentsRepository(db)

	var vehicleID, appointmentID string
	err := inTenant(t, db, tenantA, func(ctx context.Context) error {
		var err error
		vehicleID, err = vehiclesRepo.CreateVehicle(ctx, &domain.Vehicle{
			CustomerID: customerA, Make: "Honda", Model: "Civic",
		})
		if err != nil {
			return err
		}
		appointmentID, err = appointmentsRepo.CreateAppointment(ctx, &domain.Appointment{
			CustomerID: customerA, VehicleID: vehicleID,
		})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// direct SQL skipping the graph: the trigger must refuse
	err = inTenant(t, db, tenantA, func(ctx context.Context) error {
		_, err := dbtx(ctx, db).ExecContext(ctx,
			`UPDATE appointments SET status = 'COMPLETED' WHERE appointment_id = $1::uuid`,
			appointmentID)
		return err
	})
	if err == nil {
		t.Fatal("trigger should reject SCHEDULED -> COMPLETED")
	}

	// a legal move works and bumps the version
	err = inTenant(t, db, tenantA, func(ctx context.Context) error {
		return appointmentsRepo.ApplyStatusChange(ctx, appointmentID, StatusChange{
			To: domain.StatusInProgress, ExpectedVersion: 1, MarkCheckIn: true,
		})
	})
	if err != nil {
		t.Fatalf("legal transition failed: %v", err)
	}

	err = inTenant(t, db, tenantA, func(ctx context.Context) error {
		a, err := appointmentsRepo.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		if a.Status != domain.StatusInProgress {
			t.Fatalf("status = %s, want IN_PROGRESS", a.Status)
		}
		if a.Version != 2 {
			t.Fatalf("version = %d, want 2", a.Version)
		}
		if a.CheckInAt == nil {
			t.Fatal("check_in_at not stamped")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestOptimisticVersionConflict(t *testing.T) {
	db := getTestDB(t)
	if db == nil {
		return
	}
	defer db.Close()

	tenantA := createTestTenant(t, db, "Shop A")
	customerA := createTestCustomer(t, db, tenantA, "Alpha")

	vehiclesRepo := NewPostgresVehiclesRepository(db)
	appointmentsRepo := NewPostgresAppointmentsRepository(db)

	var appointmentID string
	err := inTenant(t, db, tenantA, func(ctx context.Context) error {
		vehicleID, err := vehiclesRepo.CreateVehicle(ctx, &domain.Vehicle{
			CustomerID: customerA, Make: "Honda", Model: "Civic",
		})
		if err != nil {
			return err
		}
		appointmentID, err = appointmentsRepo.CreateAppointment(ctx, &domain.Appointment{
			CustomerID: customerA, VehicleID: vehicleID,
		})
		return err
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// stale version: conflict, not not-found
	err = inTenant(t, db, tenantA, func(ctx context.Context) error {
		return appointmentsRepo.UpdateAppointment(ctx, appointmentID, 99, map[string]any{
			"note": "stale write",
		})
	})
	if err == nil {
		t.Fatal("stale update should conflict")
	}
	var cErr *domain.ConflictError
	if !errors.As(err, &cErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}
