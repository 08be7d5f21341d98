package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"

	"github.com/lib/pq"
)

// PostgresCatalogRepository backs the service catalog with raw SQL.
type PostgresCatalogRepository struct {
	db *sql.DB
}

func NewPostgresCatalogRepository(db *sql.DB) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{db: db}
}

var _ CatalogRepository = (*PostgresCatalogRepository)(nil)

const operationColumns = `
	operation_id::text,
	tenant_id::text,
	op_code,
	op_name,
	default_price_cents,
	default_hours,
	active`

func scanOperation(row interface{ Scan(...any) error }) (*domain.ServiceOperation, error) {
	var op domain.ServiceOperation
	err := row.Scan(
		&op.OperationID,
		&op.TenantID,
		&op.OpCode,
		&op.OpName,
		&op.DefaultPriceCents,
		&op.DefaultHours,
		&op.Active,
	)
	if err != nil {
		return nil, err
	}
	return &op, nil
}

// GetOperation fetches one catalog operation.
func (r *PostgresCatalogRepository) GetOperation(ctx context.Context, operationID string) (*domain.ServiceOperation, error) {
	if operationID == "" {
		return nil, fmt.Errorf("operation_id is required")
	}
	query := `SELECT ` + operationColumns + ` FROM service_operations WHERE operation_id = $1::uuid`
	op, err := scanOperation(dbtx(ctx, r.db).QueryRowContext(ctx, query, operationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service operation: %w", err)
	}
	return op, nil
}

// GetOperations fetches a batch of operations keyed by id. Missing ids are
// simply absent from the map; callers decide whether that is an error.
func (r *PostgresCatalogRepository) GetOperations(ctx context.Context, operationIDs []string) (map[string]*domain.ServiceOperation, error) {
	out := map[string]*domain.ServiceOperation{}
	if len(operationIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + operationColumns + ` FROM service_operations WHERE operation_id = ANY($1::uuid[])`
	rows, err := dbtx(ctx, r.db).QueryContext(ctx, query, pq.Array(operationIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get service operations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service operation: %w", err)
		}
		out[op.OperationID] = op
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service operations: %w", err)
	}
	return out, nil
}

// ListOperations lists the catalog, optionally active entries only.
func (r *PostgresCatalogRepository) ListOperations(ctx context.Context, activeOnly bool) ([]*domain.ServiceOperation, error) {
	query := `SELECT ` + operationColumns + ` FROM service_operations`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY op_code`

	rows, err := dbtx(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list service operations: %w", err)
	}
	defer rows.Close()

	ops := []*domain.ServiceOperation{}
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service operations: %w", err)
	}
	return ops, nil
}

// CreateOperation inserts a catalog operation and returns its id.
func (r *PostgresCatalogRepository) CreateOperation(ctx context.Context, op *domain.ServiceOperation) (string, error) {
	if op == nil {
		return "", fmt.Errorf("operation is required")
	}
	if op.OpCode == "" {
		return "", &domain.ValidationError{Field: "op_code", Message: "is required"}
	}
	if op.OpName == "" {
		return "", &domain.ValidationError{Field: "op_name", Message: "is required"}
	}

	var operationID string
	err := dbtx(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO service_operations (tenant_id, op_code, op_name, default_price_cents, default_hours, active)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, TRUE)
		 RETURNING operation_id::text`,
		op.OpCode, op.OpName, op.DefaultPriceCents, op.DefaultHours,
	).Scan(&operationID)
	if err != nil {
		return "", fmt.Errorf("failed to create service operation: %w", err)
	}
	return operationID, nil
}

// UpdateOperation applies a partial update. Unknown keys are ignored.
func (r *PostgresCatalogRepository) UpdateOperation(ctx context.Context, operationID string, fields map[string]any) error {
	if operationID == "" {
		return fmt.Errorf("operation_id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1
	for _, col := range []string{"op_name", "default_price_cents", "default_hours", "active"} {
		if v, ok := fields[col]; ok {
			set = append(set, fmt.Sprintf("%s = $%d", col, argIdx))
			args = append(args, v)
			argIdx++
		}
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, operationID)
	query := fmt.Sprintf(`UPDATE service_operations SET %s WHERE operation_id = $%d::uuid`,
		strings.Join(set, ", "), argIdx)

	res, err := dbtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update service operation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetPackage fetches one package with its items.
func (r *PostgresCatalogRepository) GetPackage(ctx context.Context, packageID string) (*domain.ServicePackage, error) {
	if packageID == "" {
		return nil, fmt.Errorf("package_id is required")
	}
	q := dbtx(ctx, r.db)

	var pkg domain.ServicePackage
	err := q.QueryRowContext(ctx,
		`SELECT package_id::text, tenant_id::text, package_code, package_name, active
		 FROM service_packages WHERE package_id = $1::uuid`,
		packageID,
	).Scan(&pkg.PackageID, &pkg.TenantID, &pkg.PackageCode, &pkg.PackageName, &pkg.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service package: %w", err)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT package_id::text, operation_id::text, quantity
		 FROM package_items WHERE package_id = $1::uuid ORDER BY operation_id`,
		packageID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load package items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.PackageItem
		if err := rows.Scan(&item.PackageID, &item.OperationID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan package item: %w", err)
		}
		pkg.Items = append(pkg.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate package items: %w", err)
	}

	return &pkg, nil
}

// ListPackages lists packages without items.
func (r *PostgresCatalogRepository) ListPackages(ctx context.Context, activeOnly bool) ([]*domain.ServicePackage, error) {
	query := `SELECT package_id::text, tenant_id::text, package_code, package_name, active FROM service_packages`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY package_code`

	rows, err := dbtx(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list service packages: %w", err)
	}
	defer rows.Close()

	pkgs := []*domain.ServicePackage{}
	for rows.Next() {
		var pkg domain.ServicePackage
		if err := rows.Scan(&pkg.PackageID, &pkg.TenantID, &pkg.PackageCode, &pkg.PackageName, &pkg.Active); err != nil {
			return nil, fmt.Errorf("failed to scan service package: %w", err)
		}
		pkgs = append(pkgs, &pkg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate service packages: %w", err)
	}
	return pkgs, nil
}

// CreatePackage inserts a package and its items.
func (r *PostgresCatalogRepository) CreatePackage(ctx context.Context, pkg *domain.ServicePackage) (string, error) {
	if pkg == nil {
		return "", fmt.Errorf("package is required")
	}
	if pkg.PackageCode == "" {
		return "", &domain.ValidationError{Field: "package_code", Message: "is required"}
	}
	if pkg.PackageName == "" {
		return "", &domain.ValidationError{Field: "package_name", Message: "is required"}
	}
	if len(pkg.Items) == 0 {
		return "", &domain.ValidationError{Field: "items", Message: "at least one item is required"}
	}

	q := dbtx(ctx, r.db)

	var packageID string
	err := q.QueryRowContext(ctx,
		`INSERT INTO service_packages (tenant_id, package_code, package_name, active)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, TRUE)
		 RETURNING package_id::text`,
		pkg.PackageCode, pkg.PackageName,
	).Scan(&packageID)
	if err != nil {
		return "", fmt.Errorf("failed to create service package: %w", err)
	}

	for _, item := range pkg.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO package_items (tenant_id, package_id, operation_id, quantity)
			 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2::uuid, $3)`,
			packageID, item.OperationID, qty,
		); err != nil {
			return "", fmt.Errorf("failed to insert package item: %w", err)
		}
	}

	return packageID, nil
}
