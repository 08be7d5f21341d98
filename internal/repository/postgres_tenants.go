package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
)

// PostgresTenantsRepository backs tenant management with the tenants table.
type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

var _ TenantsRepository = (*PostgresTenantsRepository)(nil)

const tenantColumns = `
	tenant_id::text,
	tenant_name,
	COALESCE(domain, '') AS domain,
	COALESCE(email, '') AS email,
	COALESCE(phone, '') AS phone,
	COALESCE(status, 'active') AS status,
	COALESCE(metadata, '{}'::jsonb) AS metadata`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var metadataRaw json.RawMessage
	err := row.Scan(
		&tenant.TenantID,
		&tenant.TenantName,
		&tenant.Domain,
		&tenant.Email,
		&tenant.Phone,
		&tenant.Status,
		&metadataRaw,
	)
	if err != nil {
		return nil, err
	}
	tenant.Metadata = metadataRaw
	return &tenant, nil
}

// GetTenant fetches one tenant by id.
func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1::uuid`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}

// GetTenantByDomain fetches one tenant by its login domain.
func (r *PostgresTenantsRepository) GetTenantByDomain(ctx context.Context, domainName string) (*domain.Tenant, error) {
	if domainName == "" {
		return nil, fmt.Errorf("domain is required")
	}

	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE domain = $1`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, domainName))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant by domain: %w", err)
	}
	return tenant, nil
}

// ListTenants lists tenants with paging, status filter and name search.
func (r *PostgresTenantsRepository) ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
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

	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, filter.Status)
		argIdx++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("tenant_name ILIKE $%d", argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tenants %s`, whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tenants: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+tenantColumns+`
		FROM tenants
		%s
		ORDER BY tenant_name
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*domain.Tenant{}
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan tenant: %w", err)
		}
		tenants = append(tenants, tenant)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate tenants: %w", err)
	}

	return tenants, total, nil
}

// CreateTenant inserts a new tenant and returns its id.
func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil {
		return "", fmt.Errorf("tenant is required")
	}
	if tenant.TenantName == "" {
		return "", &domain.ValidationError{Field: "tenant_name", Message: "is required"}
	}

	status := tenant.Status
	if status == "" {
		status = "active"
	}
	metadataArg := "{}"
	if len(tenant.Metadata) > 0 {
		metadataArg = string(tenant.Metadata)
	}

	var tenantID string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tenants (tenant_name, domain, email, phone, status, metadata)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6::jsonb)
		 RETURNING tenant_id::text`,
		tenant.TenantName,
		tenant.Domain,
		tenant.Email,
		tenant.Phone,
		status,
		metadataArg,
	).Scan(&tenantID)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenantID, nil
}

// UpdateTenant applies a partial update. Unknown keys are ignored.
func (r *PostgresTenantsRepository) UpdateTenant(ctx context.Context, tenantID string, fields map[string]any) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1
	for _, col := range []string{"tenant_name", "domain", "email", "phone", "status"} {
		if v, ok := fields[col]; ok {
			set = append(set, fmt.Sprintf("%s = $%d", col, argIdx))
			args = append(args, v)
			argIdx++
		}
	}
	if v, ok := fields["metadata"]; ok {
		b, err := json.Marshal(v)
		if err != nil {
			return &domain.ValidationError{Field: "metadata", Message: "must be a JSON object"}
		}
		set = append(set, fmt.Sprintf("metadata = $%d::jsonb", argIdx))
		args = append(args, string(b))
		argIdx++
	}
	if len(set) == 0 {
		return nil
	}

	args = append(args, tenantID)
	query := fmt.Sprintf(`UPDATE tenants SET %s WHERE tenant_id = $%d::uuid`,
		strings.Join(set, ", "), argIdx)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
