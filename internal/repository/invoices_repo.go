package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// InvoiceFilters narrows ListInvoices.
type InvoiceFilters struct {
	Status     string
	CustomerID string
}

// InvoicesRepository manages invoices and payments. RecordPayment locks
// the invoice row for the rest of the transaction so two concurrent
// payments cannot both pass the overpayment check.
type InvoicesRepository interface {
	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	GetInvoiceByAppointment(ctx context.Context, appointmentID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilters, page, size int) ([]*domain.Invoice, int, error)
	CreateInvoice(ctx context.Context, inv *domain.Invoice) (string, error)
	RecordPayment(ctx context.Context, invoiceID string, amountCents int64, method string) (*domain.Invoice, error)
	ListPayments(ctx context.Context, invoiceID string) ([]*domain.Payment, error)
}
