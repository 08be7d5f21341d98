package service

import (
	"context"
	"sync"
	"testing"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testTenantID = "11111111-1111-1111-1111-111111111111"

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendSMS(to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type appointmentFixture struct {
	svc      *AppointmentService
	invoices *repository.MemoryInvoicesRepository
	notifier *fakeNotifier

	customerID string
	vehicleID  string
	oilChange  string // operation id
}

func newAppointmentFixture(t *testing.T, consent bool) *appointmentFixture {
	t.Helper()
	ctx := context.Background()

	customers := repository.NewMemoryCustomersRepository()
	vehicles := repository.NewMemoryVehiclesRepository()
	catalog := repository.NewMemoryCatalogRepository()
	appointments := repository.NewMemoryAppointmentsRepository()
	invoices := repository.NewMemoryInvoicesRepository()
	notifier := &fakeNotifier{}

	customerID, err := customers.CreateCustomer(ctx, &domain.Customer{
		FirstName:  "Dana",
		LastName:   "Reyes",
		Phone:      "+15550100",
		SMSConsent: consent,
	})
	require.NoError(t, err)

	vehicleID, err := vehicles.CreateVehicle(ctx, &domain.Vehicle{
		CustomerID: customerID,
		Make:       "Toyota",
		Model:      "Corolla",
		Year:       2019,
	})
	require.NoError(t, err)

	opID, err := catalog.CreateOperation(ctx, &domain.ServiceOperation{
		OpCode:            "OIL",
		OpName:            "Oil change",
		DefaultPriceCents: 4999,
		DefaultHours:      0.5,
		Active:            true,
	})
	require.NoError(t, err)

	svc := NewAppointmentService(
		appointments, customers, vehicles, catalog, invoices,
		repository.NoTxRunner{}, notifier, zap.NewNop())

	return &appointmentFixture{
		svc:        svc,
		invoices:   invoices,
		notifier:   notifier,
		customerID: customerID,
		vehicleID:  vehicleID,
		oilChange:  opID,
	}
}

func (f *appointmentFixture) book(t *testing.T) *domain.Appointment {
	t.Helper()
	a, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		TenantID:   testTenantID,
		CustomerID: f.customerID,
		VehicleID:  f.vehicleID,
		Services:   []ServiceLineInput{{OperationID: f.oilChange, Quantity: 2}},
	})
	require.NoError(t, err)
	return a
}

func TestCreateAppointment(t *testing.T) {
	f := newAppointmentFixture(t, true)

	a := f.book(t)
	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.Equal(t, 1, a.Version)
	assert.Equal(t, int64(2*4999), a.TotalCents)
	assert.Len(t, a.Services, 1)
	assert.Equal(t, 2, a.Services[0].Quantity)
	assert.Equal(t, int64(4999), a.Services[0].PriceCents)
	assert.Nil(t, a.CheckInAt)

	// consented customer gets the booking confirmation
	assert.Equal(t, 1, f.notifier.count())
}

func TestCreateAppointmentNoConsentNoSMS(t *testing.T) {
	f := newAppointmentFixture(t, false)
	f.book(t)
	assert.Equal(t, 0, f.notifier.count())
}

func TestCreateAppointmentPriceOverride(t *testing.T) {
	f := newAppointmentFixture(t, false)
	override := int64(3000)

	a, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		TenantID:   testTenantID,
		CustomerID: f.customerID,
		VehicleID:  f.vehicleID,
		Services:   []ServiceLineInput{{OperationID: f.oilChange, PriceCents: &override}},
	})
	require.NoError(t, err)
	assert.Equal(t, override, a.TotalCents)
	assert.Equal(t, 1, a.Services[0].Quantity) // defaulted
}

func TestCreateAppointmentVehicleOwnershipMismatch(t *testing.T) {
	f := newAppointmentFixture(t, false)
	ctx := context.Background()

	otherID, err := f.svc.customers.CreateCustomer(ctx, &domain.Customer{
		FirstName: "Sam",
		LastName:  "Ortiz",
	})
	require.NoError(t, err)

	_, err = f.svc.CreateAppointment(ctx, CreateAppointmentRequest{
		TenantID:   testTenantID,
		CustomerID: otherID,
		VehicleID:  f.vehicleID, // belongs to the fixture customer
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "vehicle_id", vErr.Field)
}

func TestCreateAppointmentUnknownOperation(t *testing.T) {
	f := newAppointmentFixture(t, false)

	_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		TenantID:   testTenantID,
		CustomerID: f.customerID,
		VehicleID:  f.vehicleID,
		Services:   []ServiceLineInput{{OperationID: "22222222-2222-2222-2222-222222222222"}},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "services", vErr.Field)
}

func TestChangeStatusFullLifecycle(t *testing.T) {
	f := newAppointmentFixture(t, true)
	ctx := context.Background()
	a := f.book(t)

	a, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusInProgress, Version: a.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, a.Status)
	assert.Equal(t, 2, a.Version)
	require.NotNil(t, a.CheckInAt)
	checkIn := *a.CheckInAt

	a, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusReady, Version: a.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, a.Status)

	a, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusCompleted, Version: a.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, a.Status)
	require.NotNil(t, a.CheckOutAt)
	assert.Equal(t, checkIn, *a.CheckInAt) // check-in not re-stamped

	// completion created exactly one invoice for the appointment total
	inv, err := f.invoices.GetInvoiceByAppointment(ctx, a.AppointmentID)
	require.NoError(t, err)
	assert.Equal(t, a.TotalCents, inv.TotalCents)
	assert.Equal(t, domain.InvoiceOpen, inv.Status)

	// booking confirmation + vehicle-ready
	assert.Equal(t, 2, f.notifier.count())
}

func TestChangeStatusIllegalTransition(t *testing.T) {
	f := newAppointmentFixture(t, false)
	a := f.book(t)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusCompleted, Version: a.Version,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "status", vErr.Field)
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	f := newAppointmentFixture(t, false)
	a := f.book(t)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: "CANCELLED", Version: a.Version,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestChangeStatusIdempotentRepeat(t *testing.T) {
	f := newAppointmentFixture(t, false)
	ctx := context.Background()
	a := f.book(t)

	a, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusInProgress, Version: a.Version,
	})
	require.NoError(t, err)

	// repeating the move is a no-op, even with the stale pre-move version
	again, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusInProgress, Version: a.Version - 1,
	})
	require.NoError(t, err)
	assert.Equal(t, a.Version, again.Version)
	assert.Equal(t, *a.CheckInAt, *again.CheckInAt)
}

func TestChangeStatusStaleVersion(t *testing.T) {
	f := newAppointmentFixture(t, false)
	a := f.book(t)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusInProgress, Version: a.Version + 5,
	})
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestChangeStatusNoShowIsTerminal(t *testing.T) {
	f := newAppointmentFixture(t, false)
	ctx := context.Background()
	a := f.book(t)

	a, err := f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusNoShow, Version: a.Version,
	})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, ChangeStatusRequest{
		TenantID: testTenantID, AppointmentID: a.AppointmentID,
		To: domain.StatusInProgress, Version: a.Version,
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)

	// no invoice for a no-show
	_, err = f.invoices.GetInvoiceByAppointment(ctx, a.AppointmentID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChangeStatusMissingAppointment(t *testing.T) {
	f := newAppointmentFixture(t, false)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusRequest{
		TenantID:      testTenantID,
		AppointmentID: "33333333-3333-3333-3333-333333333333",
		To:            domain.StatusInProgress,
		Version:       1,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateAppointmentStaleVersion(t *testing.T) {
	f := newAppointmentFixture(t, false)
	a := f.book(t)

	_, err := f.svc.UpdateAppointment(context.Background(), UpdateAppointmentRequest{
		TenantID:      testTenantID,
		AppointmentID: a.AppointmentID,
		Version:       a.Version + 1,
		Fields:        map[string]any{"note": "call first"},
	})
	var cErr *domain.ConflictError
	require.ErrorAs(t, err, &cErr)
}

func TestUpdateAppointmentReplacesServices(t *testing.T) {
	f := newAppointmentFixture(t, false)
	ctx := context.Background()
	a := f.book(t)

	updated, err := f.svc.UpdateAppointment(ctx, UpdateAppointmentRequest{
		TenantID:      testTenantID,
		AppointmentID: a.AppointmentID,
		Version:       a.Version,
		Services:      []ServiceLineInput{{OperationID: f.oilChange, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4999), updated.TotalCents)
	assert.Len(t, updated.Services, 1)
}

func TestNoTenantFailsClosed(t *testing.T) {
	f := newAppointmentFixture(t, false)

	_, err := f.svc.CreateAppointment(context.Background(), CreateAppointmentRequest{
		CustomerID: f.customerID,
		VehicleID:  f.vehicleID,
	})
	assert.ErrorIs(t, err, domain.ErrNoTenant)
}
