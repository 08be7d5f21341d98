package service

import (
	"context"
	"fmt"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"go.uber.org/zap"
)

// AppointmentService owns the board: booking, edits, status moves and the
// side effects that hang off them. Every operation runs in one
// tenant-scoped transaction; SMS goes out only after commit.
type AppointmentService struct {
	appointments repository.AppointmentsRepository
	customers    repository.CustomersRepository
	vehicles     repository.VehiclesRepository
	catalog      repository.CatalogRepository
	invoices     repository.InvoicesRepository
	tx           repository.TxRunner
	notifier     Notifier
	logger       *zap.Logger
}

func NewAppointmentService(
	appointments repository.AppointmentsRepository,
	customers repository.CustomersRepository,
	vehicles repository.VehiclesRepository,
	catalog repository.CatalogRepository,
	invoices repository.InvoicesRepository,
	tx repository.TxRunner,
	notifier Notifier,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		appointments: appointments,
		customers:    customers,
		vehicles:     vehicles,
		catalog:      catalog,
		invoices:     invoices,
		tx:           tx,
		notifier:     notifier,
		logger:       logger,
	}
}

// ServiceLineInput is one requested line item. Price and hours fall back
// to the catalog defaults when nil.
type ServiceLineInput struct {
	OperationID string
	Quantity    int
	PriceCents  *int64
	Hours       *float64
}

// CreateAppointmentRequest books a new SCHEDULED appointment.
type CreateAppointmentRequest struct {
	TenantID           string
	CustomerID         string
	VehicleID          string
	StartTS            *time.Time
	EndTS              *time.Time
	PrimaryOperationID string
	Note               string
	Services           []ServiceLineInput
}

// CreateAppointment books the appointment, pricing line items from the
// catalog, and sends a confirmation SMS when the customer consented.
func (s *AppointmentService) CreateAppointment(ctx context.Context, req CreateAppointmentRequest) (*domain.Appointment, error) {
	var created *domain.Appointment
	var smsTo string

	err := s.tx.InTenantTx(ctx, req.TenantID, func(ctx context.Context) error {
		customer, err := s.customers.GetCustomer(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		vehicle, err := s.vehicles.GetVehicle(ctx, req.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.CustomerID != customer.CustomerID {
			return &domain.ValidationError{Field: "vehicle_id", Message: "vehicle does not belong to the customer"}
		}

		lines, total, err := s.priceLines(ctx, req.Services)
		if err != nil {
			return err
		}

		id, err := s.appointments.CreateAppointment(ctx, &domain.Appointment{
			CustomerID:         req.CustomerID,
			VehicleID:          req.VehicleID,
			StartTS:            req.StartTS,
			EndTS:              req.EndTS,
			PrimaryOperationID: req.PrimaryOperationID,
			TotalCents:         total,
			Note:               req.Note,
			Services:           lines,
		})
		if err != nil {
			return err
		}

		if created, err = s.appointments.GetAppointment(ctx, id); err != nil {
			return err
		}
		if customer.SMSConsent && customer.Phone != "" {
			smsTo = customer.Phone
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment created",
		zap.String("tenant_id", req.TenantID),
		zap.String("appointment_id", created.AppointmentID))

	if smsTo != "" {
		s.sendSMS(smsTo, appointmentScheduledMessage(created))
	}
	return created, nil
}

func (s *AppointmentService) priceLines(ctx context.Context, inputs []ServiceLineInput) ([]domain.AppointmentService, int64, error) {
	if len(inputs) == 0 {
		return nil, 0, nil
	}

	ids := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if in.OperationID == "" {
			return nil, 0, &domain.ValidationError{Field: "services", Message: "operation_id is required on every line"}
		}
		ids = append(ids, in.OperationID)
	}
	ops, err := s.catalog.GetOperations(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	lines := make([]domain.AppointmentService, 0, len(inputs))
	var total int64
	for _, in := range inputs {
		op, ok := ops[in.OperationID]
		if !ok {
			return nil, 0, &domain.ValidationError{Field: "services", Message: fmt.Sprintf("unknown operation %s", in.OperationID)}
		}
		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		price := op.DefaultPriceCents
		if in.PriceCents != nil {
			if *in.PriceCents < 0 {
				return nil, 0, &domain.ValidationError{Field: "services", Message: "price_cents must not be negative"}
			}
			price = *in.PriceCents
		}
		hours := op.DefaultHours
		if in.Hours != nil {
			hours = *in.Hours
		}
		lines = append(lines, domain.AppointmentService{
			OperationID: in.OperationID,
			Quantity:    qty,
			PriceCents:  price,
			Hours:       hours,
		})
		total += price * int64(qty)
	}
	return lines, total, nil
}

// GetAppointment fetches one appointment in the tenant scope.
func (s *AppointmentService) GetAppointment(ctx context.Context, tenantID, appointmentID string) (*domain.Appointment, error) {
	var out *domain.Appointment
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		a, err := s.appointments.GetAppointment(ctx, appointmentID)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAppointments lists appointments for board and calendar views.
func (s *AppointmentService) ListAppointments(ctx context.Context, tenantID string, filter repository.AppointmentFilters, page, size int) ([]*domain.Appointment, int, error) {
	var items []*domain.Appointment
	var total int
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		var err error
		items, total, err = s.appointments.ListAppointments(ctx, filter, page, size)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateAppointmentRequest edits schedule fields and/or the line-item set.
// Version must match the caller's last read.
type UpdateAppointmentRequest struct {
	TenantID      string
	AppointmentID string
	Version       int
	Fields        map[string]any
	Services      []ServiceLineInput // nil = leave lines untouched
}

// UpdateAppointment applies a version-checked edit.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, req UpdateAppointmentRequest) (*domain.Appointment, error) {
	var out *domain.Appointment
	err := s.tx.InTenantTx(ctx, req.TenantID, func(ctx context.Context) error {
		current, err := s.appointments.GetAppointment(ctx, req.AppointmentID)
		if err != nil {
			return err
		}
		if err := validateSchedule(current, req.Fields); err != nil {
			return err
		}

		if len(req.Fields) > 0 {
			if err := s.appointments.UpdateAppointment(ctx, req.AppointmentID, req.Version, req.Fields); err != nil {
				return err
			}
		} else if current.Version != req.Version {
			return &domain.ConflictError{Entity: "appointment", ExpectedVersion: req.Version}
		}

		if req.Services != nil {
			lines, total, err := s.priceLines(ctx, req.Services)
			if err != nil {
				return err
			}
			if err := s.appointments.ReplaceServices(ctx, req.AppointmentID, lines, total); err != nil {
				return err
			}
		}

		out, err = s.appointments.GetAppointment(ctx, req.AppointmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// validateSchedule checks end_ts >= start_ts against the merged view of
// current values and requested changes.
func validateSchedule(current *domain.Appointment, fields map[string]any) error {
	start, end := current.StartTS, current.EndTS
	if v, ok := fields["start_ts"]; ok {
		start, _ = v.(*time.Time)
	}
	if v, ok := fields["end_ts"]; ok {
		end, _ = v.(*time.Time)
	}
	if start != nil && end != nil && end.Before(*start) {
		return &domain.ValidationError{Field: "end_ts", Message: "must not be before start_ts"}
	}
	return nil
}

// ChangeStatusRequest is one board move.
type ChangeStatusRequest struct {
	TenantID      string
	AppointmentID string
	To            domain.AppointmentStatus
	Version       int
}

// ChangeStatus moves an appointment along the transition graph.
// Repeating the current status is an idempotent no-op. IN_PROGRESS stamps
// check_in_at, COMPLETED stamps check_out_at and creates the invoice, all
// in the same transaction. The vehicle-ready SMS fires after commit.
func (s *AppointmentService) ChangeStatus(ctx context.Context, req ChangeStatusRequest) (*domain.Appointment, error) {
	if !domain.ValidStatus(req.To) {
		return nil, &domain.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", req.To)}
	}

	var out *domain.Appointment
	var smsTo string

	err := s.tx.InTenantTx(ctx, req.TenantID, func(ctx context.Context) error {
		current, err := s.appointments.GetAppointment(ctx, req.AppointmentID)
		if err != nil {
			return err
		}

		if current.Status == req.To {
			// Idempotent repeat: no version bump, no side effects.
			out = current
			return nil
		}
		if err := domain.ValidateTransition(current.Status, req.To); err != nil {
			return err
		}

		change := repository.StatusChange{
			To:              req.To,
			ExpectedVersion: req.Version,
			MarkCheckIn:     req.To == domain.StatusInProgress,
			MarkCheckOut:    req.To == domain.StatusCompleted,
		}
		if err := s.appointments.ApplyStatusChange(ctx, req.AppointmentID, change); err != nil {
			return err
		}

		if out, err = s.appointments.GetAppointment(ctx, req.AppointmentID); err != nil {
			return err
		}

		switch req.To {
		case domain.StatusCompleted:
			if _, err := s.invoices.CreateInvoice(ctx, &domain.Invoice{
				AppointmentID: out.AppointmentID,
				InvoiceNumber: invoiceNumber(out),
				TotalCents:    out.TotalCents,
			}); err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
		case domain.StatusReady:
			customer, err := s.customers.GetCustomer(ctx, out.CustomerID)
			if err != nil {
				return err
			}
			if customer.SMSConsent && customer.Phone != "" {
				smsTo = customer.Phone
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Appointment status changed",
		zap.String("tenant_id", req.TenantID),
		zap.String("appointment_id", req.AppointmentID),
		zap.String("status", string(out.Status)))

	if smsTo != "" {
		s.sendSMS(smsTo, vehicleReadyMessage(out))
	}
	return out, nil
}

// invoiceNumber derives a stable per-appointment number, so a retried
// completion cannot mint a second one.
func invoiceNumber(a *domain.Appointment) string {
	short := a.AppointmentID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("INV-%s-%s", time.Now().Format("20060102"), short)
}

func (s *AppointmentService) sendSMS(to, message string) {
	if err := s.notifier.SendSMS(to, message); err != nil {
		s.logger.Warn("Failed to send SMS", zap.Error(err))
	}
}

func appointmentScheduledMessage(a *domain.Appointment) string {
	when := "soon"
	if a.StartTS != nil {
		when = a.StartTS.Format("Mon Jan 2 15:04")
	}
	return fmt.Sprintf("Your appointment is scheduled for %s. Reply STOP to opt out.", when)
}

func vehicleReadyMessage(_ *domain.Appointment) string {
	return "Your vehicle is ready for pickup. Reply STOP to opt out."
}
