package repository

import (
	"context"
	"time"

	"autoshop-admin/internal/domain"
)

// AppointmentFilters narrows ListAppointments. From/To bound start_ts.
type AppointmentFilters struct {
	Status     string
	CustomerID string
	VehicleID  string
	From       *time.Time
	To         *time.Time
}

// StatusChange is one validated board move, applied atomically.
type StatusChange struct {
	To              domain.AppointmentStatus
	ExpectedVersion int
	// MarkCheckIn/MarkCheckOut request the transition timestamps; the SQL
	// only fills them when still unset, which keeps repeats idempotent.
	MarkCheckIn  bool
	MarkCheckOut bool
}

// AppointmentsRepository manages appointments and their line items.
// Version-checked writes return ConflictError when the row moved under the
// caller.
type AppointmentsRepository interface {
	GetAppointment(ctx context.Context, appointmentID string) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilters, page, size int) ([]*domain.Appointment, int, error)
	CreateAppointment(ctx context.Context, a *domain.Appointment) (string, error)
	UpdateAppointment(ctx context.Context, appointmentID string, expectedVersion int, fields map[string]any) error
	ReplaceServices(ctx context.Context, appointmentID string, services []domain.AppointmentService, totalCents int64) error
	ApplyStatusChange(ctx context.Context, appointmentID string, change StatusChange) error
}
