package service

import (
	"context"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"go.uber.org/zap"
)

// InvoiceService reads invoices and records payments. Invoices are only
// ever created by AppointmentService when a job completes.
type InvoiceService struct {
	invoices repository.InvoicesRepository
	tx       repository.TxRunner
	logger   *zap.Logger
}

func NewInvoiceService(invoices repository.InvoicesRepository, tx repository.TxRunner, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{invoices: invoices, tx: tx, logger: logger}
}

func (s *InvoiceService) GetInvoice(ctx context.Context, tenantID, invoiceID string) (*domain.Invoice, error) {
	var out *domain.Invoice
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		inv, err := s.invoices.GetInvoice(ctx, invoiceID)
		if err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, tenantID string, filter repository.InvoiceFilters, page, size int) ([]*domain.Invoice, int, error) {
	var items []*domain.Invoice
	var total int
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		var err error
		items, total, err = s.invoices.ListInvoices(ctx, filter, page, size)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *InvoiceService) ListPayments(ctx context.Context, tenantID, invoiceID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		// existence check first so an unknown invoice reads as 404
		if _, err := s.invoices.GetInvoice(ctx, invoiceID); err != nil {
			return err
		}
		var err error
		out, err = s.invoices.ListPayments(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RecordPayment posts a payment against an invoice. Overpayment is a
// validation error; the repository serializes concurrent posts.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, invoiceID string, amountCents int64, method string) (*domain.Invoice, error) {
	var out *domain.Invoice
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		inv, err := s.invoices.RecordPayment(ctx, invoiceID, amountCents, method)
		if err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Payment recorded",
		zap.String("tenant_id", tenantID),
		zap.String("invoice_id", invoiceID),
		zap.Int64("amount_cents", amountCents),
		zap.String("status", out.Status))
	return out, nil
}
