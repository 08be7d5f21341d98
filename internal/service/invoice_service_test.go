package service

import (
	"context"
	"testing"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInvoiceFixture(t *testing.T, totalCents int64) (*InvoiceService, string) {
	t.Helper()
	repo := repository.NewMemoryInvoicesRepository()
	svc := NewInvoiceService(repo, repository.NoTxRunner{}, zap.NewNop())

	id, err := repo.CreateInvoice(context.Background(), &domain.Invoice{
		AppointmentID: "55555555-5555-5555-5555-555555555555",
		InvoiceNumber: "INV-20260829-55555555",
		TotalCents:    totalCents,
	})
	require.NoError(t, err)
	return svc, id
}

func TestRecordPayment(t *testing.T) {
	svc, invoiceID := newInvoiceFixture(t, 10000)
	ctx := context.Background()

	inv, err := svc.RecordPayment(ctx, testTenantID, invoiceID, 4000, "cash")
	require.NoError(t, err)
	assert.Equal(t, int64(4000), inv.PaidCents)
	assert.Equal(t, domain.InvoiceOpen, inv.Status)

	inv, err = svc.RecordPayment(ctx, testTenantID, invoiceID, 6000, "card")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), inv.PaidCents)
	assert.Equal(t, domain.InvoicePaid, inv.Status)

	payments, err := svc.ListPayments(ctx, testTenantID, invoiceID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestRecordPaymentOverpaymentRejected(t *testing.T) {
	svc, invoiceID := newInvoiceFixture(t, 10000)
	ctx := context.Background()

	_, err := svc.RecordPayment(ctx, testTenantID, invoiceID, 4000, "cash")
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, testTenantID, invoiceID, 7000, "cash")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "amount_cents", vErr.Field)

	// the failed post changed nothing
	inv, err := svc.GetInvoice(ctx, testTenantID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), inv.PaidCents)
	assert.Equal(t, domain.InvoiceOpen, inv.Status)
}

func TestRecordPaymentNonPositiveAmount(t *testing.T) {
	svc, invoiceID := newInvoiceFixture(t, 10000)

	_, err := svc.RecordPayment(context.Background(), testTenantID, invoiceID, 0, "cash")
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestListPaymentsUnknownInvoice(t *testing.T) {
	svc, _ := newInvoiceFixture(t, 10000)

	_, err := svc.ListPayments(context.Background(), testTenantID, "66666666-6666-6666-6666-666666666666")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
