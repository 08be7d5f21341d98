package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerFixture struct {
	handler    *AppointmentHandler
	customerID string
	vehicleID  string
	oilChange  string
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	ctx := context.Background()

	customers := repository.NewMemoryCustomersRepository()
	vehicles := repository.NewMemoryVehiclesRepository()
	catalog := repository.NewMemoryCatalogRepository()
	appointments := repository.NewMemoryAppointmentsRepository()
	invoices := repository.NewMemoryInvoicesRepository()

	customerID, err := customers.CreateCustomer(ctx, &domain.Customer{
		FirstName: "Dana", LastName: "Reyes",
	})
	require.NoError(t, err)
	vehicleID, err := vehicles.CreateVehicle(ctx, &domain.Vehicle{
		CustomerID: customerID, Make: "Toyota", Model: "Corolla",
	})
	require.NoError(t, err)
	opID, err := catalog.CreateOperation(ctx, &domain.ServiceOperation{
		OpCode: "OIL", OpName: "Oil change", DefaultPriceCents: 4999, Active: true,
	})
	require.NoError(t, err)

	svc := service.NewAppointmentService(
		appointments, customers, vehicles, catalog, invoices,
		repository.NoTxRunner{}, service.NoopNotifier{}, zap.NewNop())

	return &handlerFixture{
		handler:    NewAppointmentHandler(svc, zap.NewNop()),
		customerID: customerID,
		vehicleID:  vehicleID,
		oilChange:  opID,
	}
}

// authedRequest builds a request carrying a principal, as the middleware
// would after a successful token check.
func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	p := &Principal{UserID: testUserID, TenantID: testTenantID, Role: domain.RoleAdvisor, JTI: "jti"}
	return req.WithContext(NewPrincipalContext(req.Context(), p))
}

func (f *handlerFixture) book(t *testing.T) *domain.Appointment {
	t.Helper()
	body := fmt.Sprintf(`{"customer_id":%q,"vehicle_id":%q,"services":[{"operation_id":%q,"quantity":1}]}`,
		f.customerID, f.vehicleID, f.oilChange)

	rec := httptest.NewRecorder()
	f.handler.Collection(rec, authedRequest(http.MethodPost, "/api/admin/appointments", body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var a domain.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	return &a
}

func TestAppointmentCreateAndGet(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)
	assert.Equal(t, domain.StatusScheduled, a.Status)
	assert.Equal(t, int64(4999), a.TotalCents)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodGet, "/api/admin/appointments/"+a.AppointmentID, ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), a.AppointmentID)
}

func TestAppointmentGetUnknownIs404(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodGet,
		"/api/admin/appointments/77777777-7777-7777-7777-777777777777", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeNotFound)
}

func TestAppointmentStatusChange(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodPatch,
		"/api/admin/appointments/"+a.AppointmentID+"/status",
		fmt.Sprintf(`{"status":"IN_PROGRESS","version":%d}`, a.Version)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var moved domain.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	assert.Equal(t, domain.StatusInProgress, moved.Status)
	assert.NotNil(t, moved.CheckInAt)
	assert.Equal(t, a.Version+1, moved.Version)
}

func TestAppointmentStatusChangeIllegalIs400(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodPatch,
		"/api/admin/appointments/"+a.AppointmentID+"/status",
		fmt.Sprintf(`{"status":"COMPLETED","version":%d}`, a.Version)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeValidation)
}

func TestAppointmentStatusChangeStaleVersionIs409(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodPatch,
		"/api/admin/appointments/"+a.AppointmentID+"/status",
		fmt.Sprintf(`{"status":"IN_PROGRESS","version":%d}`, a.Version+5)))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeConflict)
	assert.Contains(t, rec.Body.String(), "expected_version")
}

func TestAppointmentStatusChangeMissingVersionIs400(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodPatch,
		"/api/admin/appointments/"+a.AppointmentID+"/status",
		`{"status":"IN_PROGRESS"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "version")
}

func TestAppointmentUpdateRejectsUnknownFields(t *testing.T) {
	f := newHandlerFixture(t)
	a := f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Item(rec, authedRequest(http.MethodPut,
		"/api/admin/appointments/"+a.AppointmentID,
		fmt.Sprintf(`{"version":%d,"status":"COMPLETED"}`, a.Version)))
	// status is not an editable field on PUT; only the transition endpoint moves it
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentListFilterValidation(t *testing.T) {
	f := newHandlerFixture(t)

	rec := httptest.NewRecorder()
	f.handler.Collection(rec, authedRequest(http.MethodGet,
		"/api/admin/appointments?from=yesterday", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentExport(t *testing.T) {
	f := newHandlerFixture(t)
	f.book(t)

	rec := httptest.NewRecorder()
	f.handler.Export(rec, authedRequest(http.MethodGet, "/api/admin/appointments/export", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestAppointmentNoPrincipalIsForbidden(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/appointments", nil)
	rec := httptest.NewRecorder()
	f.handler.Collection(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
