package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
)

// PostgresVehiclesRepository backs vehicles with raw SQL.
type PostgresVehiclesRepository struct {
	db *sql.DB
}

func NewPostgresVehiclesRepository(db *sql.DB) *PostgresVehiclesRepository {
	return &PostgresVehiclesRepository{db: db}
}

var _ VehiclesRepository = (*PostgresVehiclesRepository)(nil)

const vehicleColumns = `
	vehicle_id::text,
	tenant_id::text,
	customer_id::text,
	make,
	model,
	COALESCE(year, 0) AS year,
	COALESCE(vin, '') AS vin,
	COALESCE(plate, '') AS plate,
	created_at,
	updated_at`

func scanVehicle(row interface{ Scan(...any) error }) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(
		&v.VehicleID,
		&v.TenantID,
		&v.CustomerID,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.VIN,
		&v.Plate,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVehicle fetches one vehicle by id.
func (r *PostgresVehiclesRepository) GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	if vehicleID == "" {
		return nil, fmt.Errorf("vehicle_id is required")
	}
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE vehicle_id = $1::uuid`
	v, err := scanVehicle(dbtx(ctx, r.db).QueryRowContext(ctx, query, vehicleID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return v, nil
}

// ListVehicles lists vehicles with paging, customer filter and search.
func (r *PostgresVehiclesRepository) ListVehicles(ctx context.Context, filter VehicleFilters, page, size int) ([]*domain.Vehicle, int, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	offset := (page - 1) * size

	where := []string{}
	args := []any{}
	argIdx := 1

	if filter.CustomerID != "" {
		where = append(where, fmt.Sprintf("customer_id = $%d::uuid", argIdx))
		args = append(args, filter.CustomerID)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf(
			"(make ILIKE $%d OR model ILIKE $%d OR plate ILIKE $%d OR vin ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	q := dbtx(ctx, r.db)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM vehicles %s`, whereClause)
	var total int
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicles: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+vehicleColumns+`
		FROM vehicles
		%s
		ORDER BY make, model
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []*domain.Vehicle{}
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate vehicles: %w", err)
	}

	return vehicles, total, nil
}

// CreateVehicle inserts a vehicle and returns its id. The referenced
// customer must be visible in the tenant scope (FK + RLS both enforce it).
func (r *PostgresVehiclesRepository) CreateVehicle(ctx context.Context, v *domain.Vehicle) (string, error) {
	if v == nil {
		return "", fmt.Errorf("vehicle is required")
	}
	if v.CustomerID == "" {
		return "", &domain.ValidationError{Field: "customer_id", Message: "is required"}
	}
	if v.Make == "" {
		return "", &domain.ValidationError{Field: "make", Message: "is required"}
	}
	if v.Model == "" {
		return "", &domain.ValidationError{Field: "model", Message: "is required"}
	}

	var vehicleID string
	err := dbtx(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO vehicles (tenant_id, customer_id, make, model, year, vin, plate)
		 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2, $3, NULLIF($4, 0), NULLIF($5, ''), NULLIF($6, ''))
		 RETURNING vehicle_id::text`,
		v.CustomerID,
		v.Make,
		v.Model,
		v.Year,
		v.VIN,
		v.Plate,
	).Scan(&vehicleID)
	if err != nil {
		return "", fmt.Errorf("failed to create vehicle: %w", err)
	}
	return vehicleID, nil
}

// UpdateVehicle applies a partial update. customer_id is not updatable
// here; ownership changes go through TransferVehicle.
func (r *PostgresVehiclesRepository) UpdateVehicle(ctx context.Context, vehicleID string, fields map[string]any) error {
	if vehicleID == "" {
		return fmt.Errorf("vehicle_id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1
	for _, col := range []string{"make", "model", "year", "vin", "plate"} {
		if v, ok := fields[col]; ok {
			set = append(set, fmt.Sprintf("%s = $%d", col, argIdx))
			args = append(args, v)
			argIdx++
		}
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = now()")

	args = append(args, vehicleID)
	query := fmt.Sprintf(`UPDATE vehicles SET %s WHERE vehicle_id = $%d::uuid`,
		strings.Join(set, ", "), argIdx)

	res, err := dbtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// TransferVehicle moves a vehicle to another customer of the same tenant.
// The subquery verifies the target customer is visible under RLS; a
// cross-tenant target reads as absent.
func (r *PostgresVehiclesRepository) TransferVehicle(ctx context.Context, vehicleID, newCustomerID string) error {
	if vehicleID == "" {
		return fmt.Errorf("vehicle_id is required")
	}
	if newCustomerID == "" {
		return &domain.ValidationError{Field: "customer_id", Message: "is required"}
	}

	var exists bool
	if err := dbtx(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM customers WHERE customer_id = $1::uuid AND status = 'active')`,
		newCustomerID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check transfer target: %w", err)
	}
	if !exists {
		return &domain.ValidationError{Field: "customer_id", Message: "unknown or archived customer"}
	}

	res, err := dbtx(ctx, r.db).ExecContext(ctx,
		`UPDATE vehicles SET customer_id = $2::uuid, updated_at = now() WHERE vehicle_id = $1::uuid`,
		vehicleID, newCustomerID,
	)
	if err != nil {
		return fmt.Errorf("failed to transfer vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
