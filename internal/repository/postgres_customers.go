package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
)

// PostgresCustomersRepository backs customers with raw SQL. tenant_id is
// written by the database: the INSERT takes it from the session GUC so a
// handler can never write a row into another tenant.
type PostgresCustomersRepository struct {
	db *sql.DB
}

func NewPostgresCustomersRepository(db *sql.DB) *PostgresCustomersRepository {
	return &PostgresCustomersRepository{db: db}
}

var _ CustomersRepository = (*PostgresCustomersRepository)(nil)

const customerColumns = `
	customer_id::text,
	tenant_id::text,
	first_name,
	last_name,
	COALESCE(email, '') AS email,
	COALESCE(phone, '') AS phone,
	sms_consent,
	COALESCE(note, '') AS note,
	status,
	created_at,
	updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.CustomerID,
		&c.TenantID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&c.SMSConsent,
		&c.Note,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCustomer fetches one customer by id.
func (r *PostgresCustomersRepository) GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer_id is required")
	}
	query := `SELECT ` + customerColumns + ` FROM customers WHERE customer_id = $1::uuid`
	c, err := scanCustomer(dbtx(ctx, r.db).QueryRowContext(ctx, query, customerID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return c, nil
}

// ListCustomers lists customers with paging, status filter and search.
func (r *PostgresCustomersRepository) ListCustomers(ctx context.Context, filter CustomerFilters, page, size int) ([]*domain.Customer, int, error) {
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
		where = append(where, fmt.Sprintf(
			"(first_name || ' ' || last_name ILIKE $%d OR email ILIKE $%d OR phone ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+filter.Search+"%")
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	q := dbtx(ctx, r.db)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM customers %s`, whereClause)
	var total int
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+customerColumns+`
		FROM customers
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []*domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate customers: %w", err)
	}

	return customers, total, nil
}

// CreateCustomer inserts a customer and returns its id.
func (r *PostgresCustomersRepository) CreateCustomer(ctx context.Context, c *domain.Customer) (string, error) {
	if c == nil {
		return "", fmt.Errorf("customer is required")
	}
	if c.FirstName == "" {
		return "", &domain.ValidationError{Field: "first_name", Message: "is required"}
	}
	if c.LastName == "" {
		return "", &domain.ValidationError{Field: "last_name", Message: "is required"}
	}

	var customerID string
	err := dbtx(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO customers (tenant_id, first_name, last_name, email, phone, sms_consent, note, status)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), 'active')
		 RETURNING customer_id::text`,
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.SMSConsent,
		c.Note,
	).Scan(&customerID)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return customerID, nil
}

// UpdateCustomer applies a partial update. Unknown keys are ignored.
func (r *PostgresCustomersRepository) UpdateCustomer(ctx context.Context, customerID string, fields map[string]any) error {
	if customerID == "" {
		return fmt.Errorf("customer_id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1
	for _, col := range []string{"first_name", "last_name", "email", "phone", "sms_consent", "note"} {
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

	args = append(args, customerID)
	query := fmt.Sprintf(`UPDATE customers SET %s WHERE customer_id = $%d::uuid`,
		strings.Join(set, ", "), argIdx)

	res, err := dbtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ArchiveCustomer soft-deletes: customers are never removed, appointment
// history references them forever.
func (r *PostgresCustomersRepository) ArchiveCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		return fmt.Errorf("customer_id is required")
	}
	res, err := dbtx(ctx, r.db).ExecContext(ctx,
		`UPDATE customers SET status = 'archived', updated_at = now() WHERE customer_id = $1::uuid`,
		customerID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
