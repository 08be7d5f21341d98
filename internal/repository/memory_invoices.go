package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"autoshop-admin/internal/domain"

	"github.com/google/uuid"
)

// MemoryInvoicesRepository supports unit tests without Postgres.
type MemoryInvoicesRepository struct {
	mu       sync.Mutex
	invoices map[string]*domain.Invoice
	payments map[string][]*domain.Payment // invoiceID -> payments
}

func NewMemoryInvoicesRepository() *MemoryInvoicesRepository {
	return &MemoryInvoicesRepository{
		invoices: map[string]*domain.Invoice{},
		payments: map[string][]*domain.Payment{},
	}
}

var _ InvoicesRepository = (*MemoryInvoicesRepository)(nil)

func (r *MemoryInvoicesRepository) GetInvoice(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *inv
	return &c, nil
}

func (r *MemoryInvoicesRepository) GetInvoiceByAppointment(_ context.Context, appointmentID string) (*domain.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.invoices {
		if inv.AppointmentID == appointmentID {
			c := *inv
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MemoryInvoicesRepository) ListInvoices(_ context.Context, filter InvoiceFilters, page, size int) ([]*domain.Invoice, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := []*domain.Invoice{}
	for _, inv := range r.invoices {
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		c := *inv
		all = append(all, &c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].IssuedAt.After(all[j].IssuedAt) })

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

func (r *MemoryInvoicesRepository) CreateInvoice(_ context.Context, inv *domain.Invoice) (string, error) {
	if inv.AppointmentID == "" {
		return "", &domain.ValidationError{Field: "appointment_id", Message: "is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// idempotent per appointment, like the unique constraint in SQL
	for _, existing := range r.invoices {
		if existing.AppointmentID == inv.AppointmentID {
			return existing.InvoiceID, nil
		}
	}

	stored := *inv
	stored.InvoiceID = uuid.NewString()
	stored.PaidCents = 0
	stored.Status = domain.InvoiceOpen
	stored.IssuedAt = time.Now()
	r.invoices[stored.InvoiceID] = &stored
	return stored.InvoiceID, nil
}

func (r *MemoryInvoicesRepository) RecordPayment(_ context.Context, invoiceID string, amountCents int64, method string) (*domain.Invoice, error) {
	if amountCents <= 0 {
		return nil, &domain.ValidationError{Field: "amount_cents", Message: "must be positive"}
	}
	if method == "" {
		method = "other"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[invoiceID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if inv.PaidCents+amountCents > inv.TotalCents {
		return nil, &domain.ValidationError{
			Field:   "amount_cents",
			Message: fmt.Sprintf("payment of %d would exceed invoice total (%d of %d already paid)", amountCents, inv.PaidCents, inv.TotalCents),
		}
	}

	r.payments[invoiceID] = append(r.payments[invoiceID], &domain.Payment{
		PaymentID:   uuid.NewString(),
		TenantID:    inv.TenantID,
		InvoiceID:   invoiceID,
		AmountCents: amountCents,
		Method:      method,
		ReceivedAt:  time.Now(),
	})
	inv.PaidCents += amountCents
	if inv.PaidCents >= inv.TotalCents {
		inv.Status = domain.InvoicePaid
	}
	c := *inv
	return &c, nil
}

func (r *MemoryInvoicesRepository) ListPayments(_ context.Context, invoiceID string) ([]*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Payment{}
	for _, p := range r.payments[invoiceID] {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}
