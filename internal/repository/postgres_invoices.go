package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
)

// PostgresInvoicesRepository backs invoices and payments with raw SQL.
type PostgresInvoicesRepository struct {
	db *sql.DB
}

func NewPostgresInvoicesRepository(db *sql.DB) *PostgresInvoicesRepository {
	return &PostgresInvoicesRepository{db: db}
}

var _ InvoicesRepository = (*PostgresInvoicesRepository)(nil)

const invoiceColumns = `
	invoice_id::text,
	tenant_id::text,
	appointment_id::text,
	invoice_number,
	total_cents,
	paid_cents,
	status,
	issued_at`

func scanInvoice(row interface{ Scan(...any) error }) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := row.Scan(
		&inv.InvoiceID,
		&inv.TenantID,
		&inv.AppointmentID,
		&inv.InvoiceNumber,
		&inv.TotalCents,
		&inv.PaidCents,
		&inv.Status,
		&inv.IssuedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetInvoice fetches one invoice by id.
func (r *PostgresInvoicesRepository) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("invoice_id is required")
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE invoice_id = $1::uuid`
	inv, err := scanInvoice(dbtx(ctx, r.db).QueryRowContext(ctx, query, invoiceID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// GetInvoiceByAppointment fetches the invoice derived from an appointment.
func (r *PostgresInvoicesRepository) GetInvoiceByAppointment(ctx context.Context, appointmentID string) (*domain.Invoice, error) {
	if appointmentID == "" {
		return nil, fmt.Errorf("appointment_id is required")
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE appointment_id = $1::uuid`
	inv, err := scanInvoice(dbtx(ctx, r.db).QueryRowContext(ctx, query, appointmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice by appointment: %w", err)
	}
	return inv, nil
}

// ListInvoices lists invoices with paging and filters.
func (r *PostgresInvoicesRepository) ListInvoices(ctx context.Context, filter InvoiceFilters, page, size int) ([]*domain.Invoice, int, error) {
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
	if filter.CustomerID != "" {
		where = append(where, fmt.Sprintf(
			"appointment_id IN (SELECT appointment_id FROM appointments WHERE customer_id = $%d::uuid)", argIdx))
		args = append(args, filter.CustomerID)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	q := dbtx(ctx, r.db)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM invoices %s`, whereClause)
	var total int
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+invoiceColumns+`
		FROM invoices
		%s
		ORDER BY issued_at DESC
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*domain.Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate invoices: %w", err)
	}

	return invoices, total, nil
}

// CreateInvoice inserts an invoice for a completed appointment. The unique
// constraint on appointment_id makes creation idempotent under retries:
// ON CONFLICT DO NOTHING plus a re-read returns the existing invoice id.
func (r *PostgresInvoicesRepository) CreateInvoice(ctx context.Context, inv *domain.Invoice) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("invoice is required")
	}
	if inv.AppointmentID == "" {
		return "", &domain.ValidationError{Field: "appointment_id", Message: "is required"}
	}

	q := dbtx(ctx, r.db)

	var invoiceID string
	err := q.QueryRowContext(ctx,
		`INSERT INTO invoices (tenant_id, appointment_id, invoice_number, total_cents, paid_cents, status)
		 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2, $3, 0, 'open')
		 ON CONFLICT (appointment_id) DO NOTHING
		 RETURNING invoice_id::text`,
		inv.AppointmentID, inv.InvoiceNumber, inv.TotalCents,
	).Scan(&invoiceID)
	if err == sql.ErrNoRows {
		// already invoiced; return the existing one
		existing, err := r.GetInvoiceByAppointment(ctx, inv.AppointmentID)
		if err != nil {
			return "", err
		}
		return existing.InvoiceID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoiceID, nil
}

// RecordPayment appends a payment and rolls the amount into paid_cents.
// SELECT ... FOR UPDATE serializes concurrent payments on one invoice, so
// the overpayment check always sees the latest paid total.
func (r *PostgresInvoicesRepository) RecordPayment(ctx context.Context, invoiceID string, amountCents int64, method string) (*domain.Invoice, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("invoice_id is required")
	}
	if amountCents <= 0 {
		return nil, &domain.ValidationError{Field: "amount_cents", Message: "must be positive"}
	}
	if method == "" {
		method = "other"
	}

	q := dbtx(ctx, r.db)

	var total, paid int64
	err := q.QueryRowContext(ctx,
		`SELECT total_cents, paid_cents FROM invoices WHERE invoice_id = $1::uuid FOR UPDATE`,
		invoiceID,
	).Scan(&total, &paid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock invoice: %w", err)
	}
	if paid+amountCents > total {
		return nil, &domain.ValidationError{
			Field:   "amount_cents",
			Message: fmt.Sprintf("payment of %d would exceed invoice total (%d of %d already paid)", amountCents, paid, total),
		}
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO payments (tenant_id, invoice_id, amount_cents, method)
		 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2, $3)`,
		invoiceID, amountCents, method,
	); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	query := `UPDATE invoices
		 SET paid_cents = paid_cents + $2,
		     status = CASE WHEN paid_cents + $2 >= total_cents THEN 'paid' ELSE status END
		 WHERE invoice_id = $1::uuid
		 RETURNING ` + invoiceColumns
	inv, err := scanInvoice(q.QueryRowContext(ctx, query, invoiceID, amountCents))
	if err != nil {
		return nil, fmt.Errorf("failed to update invoice paid total: %w", err)
	}
	return inv, nil
}

// ListPayments lists payments for one invoice, oldest first.
func (r *PostgresInvoicesRepository) ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error) {
	if invoiceID == "" {
		return nil, fmt.Errorf("invoice_id is required")
	}
	rows, err := dbtx(ctx, r.db).QueryContext(ctx,
		`SELECT payment_id::text, tenant_id::text, invoice_id::text, amount_cents, method, received_at
		 FROM payments WHERE invoice_id = $1::uuid ORDER BY received_at`,
		invoiceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.PaymentID, &p.TenantID, &p.InvoiceID, &p.AmountCents, &p.Method, &p.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}
