package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"autoshop-admin/internal/domain"
)

// PostgresAppointmentsRepository backs the board with raw SQL. Every write
// is guarded by the version column; the status trigger in the schema
// re-checks transition legality below the application.
type PostgresAppointmentsRepository struct {
	db *sql.DB
}

func NewPostgresAppointmentsRepository(db *sql.DB) *PostgresAppointmentsRepository {
	return &PostgresAppointmentsRepository{db: db}
}

var _ AppointmentsRepository = (*PostgresAppointmentsRepository)(nil)

const appointmentColumns = `
	appointment_id::text,
	tenant_id::text,
	customer_id::text,
	vehicle_id::text,
	status,
	start_ts,
	end_ts,
	COALESCE(primary_operation_id::text, '') AS primary_operation_id,
	total_cents,
	paid_cents,
	check_in_at,
	check_out_at,
	COALESCE(note, '') AS note,
	version,
	created_at,
	updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.AppointmentID,
		&a.TenantID,
		&a.CustomerID,
		&a.VehicleID,
		&a.Status,
		&a.StartTS,
		&a.EndTS,
		&a.PrimaryOperationID,
		&a.TotalCents,
		&a.PaidCents,
		&a.CheckInAt,
		&a.CheckOutAt,
		&a.Note,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAppointment fetches one appointment with its line items.
func (r *PostgresAppointmentsRepository) GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error) {
	if appointmentID == "" {
		return nil, fmt.Errorf("appointment_id is required")
	}
	q := dbtx(ctx, r.db)

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_id = $1::uuid`
	a, err := scanAppointment(q.QueryRowContext(ctx, query, appointmentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	if a.Services, err = r.loadServices(ctx, q, appointmentID); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *PostgresAppointmentsRepository) loadServices(ctx context.Context, q DBTX, appointmentID string) ([]domain.AppointmentService, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT appointment_id::text, operation_id::text, quantity, price_cents, hours
		 FROM appointment_services
		 WHERE appointment_id = $1::uuid
		 ORDER BY operation_id`,
		appointmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointment services: %w", err)
	}
	defer rows.Close()

	services := []domain.AppointmentService{}
	for rows.Next() {
		var s domain.AppointmentService
		if err := rows.Scan(&s.AppointmentID, &s.OperationID, &s.Quantity, &s.PriceCents, &s.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan appointment service: %w", err)
		}
		services = append(services, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointment services: %w", err)
	}
	return services, nil
}

// ListAppointments lists appointments with paging and board filters.
// Line items are not loaded for list views.
func (r *PostgresAppointmentsRepository) ListAppointments(ctx context.Context, filter AppointmentFilters, page, size int) ([]*domain.Appointment, int, error) {
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
		where = append(where, fmt.Sprintf("customer_id = $%d::uuid", argIdx))
		args = append(args, filter.CustomerID)
		argIdx++
	}
	if filter.VehicleID != "" {
		where = append(where, fmt.Sprintf("vehicle_id = $%d::uuid", argIdx))
		args = append(args, filter.VehicleID)
		argIdx++
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("start_ts >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("start_ts < $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	q := dbtx(ctx, r.db)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM appointments %s`, whereClause)
	var total int
	if err := q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+appointmentColumns+`
		FROM appointments
		%s
		ORDER BY start_ts NULLS LAST, created_at
		LIMIT $%d OFFSET $%d`, whereClause, argIdx, argIdx+1)
	args = append(args, size, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	appointments := []*domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate appointments: %w", err)
	}

	return appointments, total, nil
}

// CreateAppointment inserts the appointment and its line items in the
// request transaction. Status always starts as SCHEDULED, version at 1.
func (r *PostgresAppointmentsRepository) CreateAppointment(ctx context.Context, a *domain.Appointment) (string, error) {
	if a == nil {
		return "", fmt.Errorf("appointment is required")
	}
	if a.CustomerID == "" {
		return "", &domain.ValidationError{Field: "customer_id", Message: "is required"}
	}
	if a.VehicleID == "" {
		return "", &domain.ValidationError{Field: "vehicle_id", Message: "is required"}
	}
	if a.StartTS != nil && a.EndTS != nil && a.EndTS.Before(*a.StartTS) {
		return "", &domain.ValidationError{Field: "end_ts", Message: "must not be before start_ts"}
	}

	q := dbtx(ctx, r.db)

	var appointmentID string
	err := q.QueryRowContext(ctx,
		`INSERT INTO appointments (tenant_id, customer_id, vehicle_id, status, start_ts, end_ts, primary_operation_id, total_cents, note)
		 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2::uuid, 'SCHEDULED', $3, $4, NULLIF($5, '')::uuid, $6, NULLIF($7, ''))
		 RETURNING appointment_id::text`,
		a.CustomerID,
		a.VehicleID,
		a.StartTS,
		a.EndTS,
		a.PrimaryOperationID,
		a.TotalCents,
		a.Note,
	).Scan(&appointmentID)
	if err != nil {
		return "", fmt.Errorf("failed to create appointment: %w", err)
	}

	for _, s := range a.Services {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO appointment_services (tenant_id, appointment_id, operation_id, quantity, price_cents, hours)
			 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2::uuid, $3, $4, $5)`,
			appointmentID, s.OperationID, s.Quantity, s.PriceCents, s.Hours,
		); err != nil {
			return "", fmt.Errorf("failed to insert appointment service: %w", err)
		}
	}

	return appointmentID, nil
}

// UpdateAppointment applies a version-checked partial update and bumps the
// version. 0 rows affected means either the row is gone (not found) or the
// version moved (conflict); a follow-up read disambiguates.
func (r *PostgresAppointmentsRepository) UpdateAppointment(ctx context.Context, appointmentID string, expectedVersion int, fields map[string]any) error {
	if appointmentID == "" {
		return fmt.Errorf("appointment_id is required")
	}

	set := []string{}
	args := []any{}
	argIdx := 1
	for _, col := range []string{"start_ts", "end_ts", "note"} {
		if v, ok := fields[col]; ok {
			set = append(set, fmt.Sprintf("%s = $%d", col, argIdx))
			args = append(args, v)
			argIdx++
		}
	}
	if v, ok := fields["primary_operation_id"]; ok {
		set = append(set, fmt.Sprintf("primary_operation_id = NULLIF($%d, '')::uuid", argIdx))
		args = append(args, v)
		argIdx++
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "version = version + 1", "updated_at = now()")

	args = append(args, appointmentID, expectedVersion)
	query := fmt.Sprintf(
		`UPDATE appointments SET %s WHERE appointment_id = $%d::uuid AND version = $%d`,
		strings.Join(set, ", "), argIdx, argIdx+1)

	res, err := dbtx(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.staleOrMissing(ctx, appointmentID, expectedVersion)
	}
	return nil
}

// ReplaceServices swaps the full line-item set and the derived total.
func (r *PostgresAppointmentsRepository) ReplaceServices(ctx context.Context, appointmentID string, services []domain.AppointmentService, totalCents int64) error {
	if appointmentID == "" {
		return fmt.Errorf("appointment_id is required")
	}
	q := dbtx(ctx, r.db)

	if _, err := q.ExecContext(ctx,
		`DELETE FROM appointment_services WHERE appointment_id = $1::uuid`, appointmentID,
	); err != nil {
		return fmt.Errorf("failed to clear appointment services: %w", err)
	}
	for _, s := range services {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO appointment_services (tenant_id, appointment_id, operation_id, quantity, price_cents, hours)
			 VALUES (current_setting('app.tenant_id')::uuid, $1::uuid, $2::uuid, $3, $4, $5)`,
			appointmentID, s.OperationID, s.Quantity, s.PriceCents, s.Hours,
		); err != nil {
			return fmt.Errorf("failed to insert appointment service: %w", err)
		}
	}

	res, err := q.ExecContext(ctx,
		`UPDATE appointments SET total_cents = $2, updated_at = now() WHERE appointment_id = $1::uuid`,
		appointmentID, totalCents,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment total: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ApplyStatusChange moves the appointment to change.To under the version
// check. check_in_at/check_out_at only ever fill in once: COALESCE keeps
// the first value, so repeating a move cannot duplicate the side effect.
func (r *PostgresAppointmentsRepository) ApplyStatusChange(ctx context.Context, appointmentID string, change StatusChange) error {
	if appointmentID == "" {
		return fmt.Errorf("appointment_id is required")
	}

	set := []string{"status = $2", "version = version + 1", "updated_at = now()"}
	if change.MarkCheckIn {
		set = append(set, "check_in_at = COALESCE(check_in_at, now())")
	}
	if change.MarkCheckOut {
		set = append(set, "check_out_at = COALESCE(check_out_at, now())")
	}

	query := fmt.Sprintf(
		`UPDATE appointments SET %s WHERE appointment_id = $1::uuid AND version = $3`,
		strings.Join(set, ", "))

	res, err := dbtx(ctx, r.db).ExecContext(ctx, query, appointmentID, string(change.To), change.ExpectedVersion)
	if err != nil {
		return fmt.Errorf("failed to apply status change: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return r.staleOrMissing(ctx, appointmentID, change.ExpectedVersion)
	}
	return nil
}

func (r *PostgresAppointmentsRepository) staleOrMissing(ctx context.Context, appointmentID string, expectedVersion int) error {
	var exists bool
	if err := dbtx(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE appointment_id = $1::uuid)`, appointmentID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("failed to re-check appointment: %w", err)
	}
	if exists {
		return &domain.ConflictError{Entity: "appointment", ExpectedVersion: expectedVersion}
	}
	return domain.ErrNotFound
}
