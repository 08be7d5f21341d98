package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"autoshop-admin/internal/domain"

	"github.com/google/uuid"
)

// MemoryAppointmentsRepository supports unit tests and local development
// without Postgres. It mirrors the version-check semantics of the SQL
// implementation, including conflict-vs-missing disambiguation.
// NOTE: no RLS here; single-tenant by construction.
type MemoryAppointmentsRepository struct {
	mu           sync.RWMutex
	appointments map[string]*domain.Appointment
}

func NewMemoryAppointmentsRepository() *MemoryAppointmentsRepository {
	return &MemoryAppointmentsRepository{
		appointments: map[string]*domain.Appointment{},
	}
}

var _ AppointmentsRepository = (*MemoryAppointmentsRepository)(nil)

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	c := *a
	c.Services = append([]domain.AppointmentService(nil), a.Services...)
	return &c
}

func (r *MemoryAppointmentsRepository) GetAppointment(_ context.Context, appointmentID string) (*domain.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.appointments[appointmentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneAppointment(a), nil
}

func (r *MemoryAppointmentsRepository) ListAppointments(_ context.Context, filter AppointmentFilters, page, size int) ([]*domain.Appointment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := []*domain.Appointment{}
	for _, a := range r.appointments {
		if filter.Status != "" && string(a.Status) != filter.Status {
			continue
		}
		if filter.CustomerID != "" && a.CustomerID != filter.CustomerID {
			continue
		}
		if filter.VehicleID != "" && a.VehicleID != filter.VehicleID {
			continue
		}
		if filter.From != nil && (a.StartTS == nil || a.StartTS.Before(*filter.From)) {
			continue
		}
		if filter.To != nil && (a.StartTS == nil || !a.StartTS.Before(*filter.To)) {
			continue
		}
		all = append(all, cloneAppointment(a))
	}
	sort.Slice(all, func(i, j int) bool {
		ti, tj := all[i].StartTS, all[j].StartTS
		if ti == nil || tj == nil {
			return ti != nil
		}
		return ti.Before(*tj)
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryAppointmentsRepository) CreateAppointment(_ context.Context, a *domain.Appointment) (string, error) {
	if a.CustomerID == "" {
		return "", &domain.ValidationError{Field: "customer_id", Message: "is required"}
	}
	if a.VehicleID == "" {
		return "", &domain.ValidationError{Field: "vehicle_id", Message: "is required"}
	}
	if a.StartTS != nil && a.EndTS != nil && a.EndTS.Before(*a.StartTS) {
		return "", &domain.ValidationError{Field: "end_ts", Message: "must not be before start_ts"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := cloneAppointment(a)
	stored.AppointmentID = uuid.NewString()
	stored.Status = domain.StatusScheduled
	stored.Version = 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.appointments[stored.AppointmentID] = stored
	return stored.AppointmentID, nil
}

func (r *MemoryAppointmentsRepository) UpdateAppointment(_ context.Context, appointmentID string, expectedVersion int, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[appointmentID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Version != expectedVersion {
		return &domain.ConflictError{Entity: "appointment", ExpectedVersion: expectedVersion}
	}

	if v, ok := fields["start_ts"]; ok {
		a.StartTS, _ = v.(*time.Time)
	}
	if v, ok := fields["end_ts"]; ok {
		a.EndTS, _ = v.(*time.Time)
	}
	if v, ok := fields["note"]; ok {
		a.Note, _ = v.(string)
	}
	if v, ok := fields["primary_operation_id"]; ok {
		a.PrimaryOperationID, _ = v.(string)
	}
	a.Version++
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryAppointmentsRepository) ReplaceServices(_ context.Context, appointmentID string, services []domain.AppointmentService, totalCents int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[appointmentID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Services = append([]domain.AppointmentService(nil), services...)
	a.TotalCents = totalCents
	a.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryAppointmentsRepository) ApplyStatusChange(_ context.Context, appointmentID string, change StatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[appointmentID]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Version != change.ExpectedVersion {
		return &domain.ConflictError{Entity: "appointment", ExpectedVersion: change.ExpectedVersion}
	}

	now := time.Now()
	a.Status = change.To
	if change.MarkCheckIn && a.CheckInAt == nil {
		a.CheckInAt = &now
	}
	if change.MarkCheckOut && a.CheckOutAt == nil {
		a.CheckOutAt = &now
	}
	a.Version++
	a.UpdatedAt = now
	return nil
}
