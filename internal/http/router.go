package httpapi

import (
	"net/http"
	"time"

	"autoshop-admin/internal/domain"

	"go.uber.org/zap"
)

// Router wires the admin API. Route shape:
//
//	POST   /api/admin/auth/login
//	POST   /api/admin/auth/logout
//	GET    /api/admin/customers            POST creates
//	GET    /api/admin/customers/{id}       PUT updates, DELETE archives
//	GET    /api/admin/vehicles             POST creates
//	GET    /api/admin/vehicles/{id}        PUT updates
//	POST   /api/admin/vehicles/{id}/transfer
//	GET    /api/admin/service-operations   POST creates
//	PUT    /api/admin/service-operations/{id}
//	GET    /api/admin/service-packages     POST creates
//	GET    /api/admin/service-packages/{id}
//	GET    /api/admin/appointments         POST creates
//	GET    /api/admin/appointments/export
//	GET    /api/admin/appointments/{id}    PUT updates
//	PATCH  /api/admin/appointments/{id}/status
//	GET    /api/admin/invoices
//	GET    /api/admin/invoices/export
//	GET    /api/admin/invoices/{id}
//	GET    /api/admin/invoices/{id}/payments   POST records
//	GET    /api/admin/tenants              POST creates (SystemAdmin)
//	GET    /api/admin/tenants/{id}         PUT updates (SystemAdmin)
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

type Handlers struct {
	Auth         *AuthHandler
	Customers    *CustomerHandler
	Vehicles     *VehicleHandler
	Catalog      *CatalogHandler
	Appointments *AppointmentHandler
	Invoices     *InvoiceHandler
	Tenants      *TenantHandler
}

func NewRouter(h Handlers, auth *AuthMiddleware, logger *zap.Logger) *Router {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("/api/admin/auth/login", h.Auth.Login)
	mux.HandleFunc("/api/admin/auth/logout", auth.Wrap(h.Auth.Logout))

	mux.HandleFunc("/api/admin/customers", auth.Wrap(h.Customers.Collection))
	mux.HandleFunc("/api/admin/customers/", auth.Wrap(h.Customers.Item))

	mux.HandleFunc("/api/admin/vehicles", auth.Wrap(h.Vehicles.Collection))
	mux.HandleFunc("/api/admin/vehicles/", auth.Wrap(h.Vehicles.Item))

	mux.HandleFunc("/api/admin/service-operations", auth.Wrap(h.Catalog.Operations))
	mux.HandleFunc("/api/admin/service-operations/", auth.Wrap(h.Catalog.OperationItem))
	mux.HandleFunc("/api/admin/service-packages", auth.Wrap(h.Catalog.Packages))
	mux.HandleFunc("/api/admin/service-packages/", auth.Wrap(h.Catalog.PackageItem))

	mux.HandleFunc("/api/admin/appointments", auth.Wrap(h.Appointments.Collection))
	mux.HandleFunc("/api/admin/appointments/export", auth.Wrap(h.Appointments.Export))
	mux.HandleFunc("/api/admin/appointments/", auth.Wrap(h.Appointments.Item))

	mux.HandleFunc("/api/admin/invoices", auth.Wrap(h.Invoices.Collection))
	mux.HandleFunc("/api/admin/invoices/export", auth.Wrap(h.Invoices.Export))
	mux.HandleFunc("/api/admin/invoices/", auth.Wrap(h.Invoices.Item))

	mux.HandleFunc("/api/admin/tenants", auth.RequireRole(domain.RoleSystemAdmin, h.Tenants.Collection))
	mux.HandleFunc("/api/admin/tenants/", auth.RequireRole(domain.RoleSystemAdmin, h.Tenants.Item))

	return &Router{mux: mux, logger: logger}
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	rt.mux.ServeHTTP(rec, r)

	rt.logger.Info("Request",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", time.Since(start)),
		zap.String("ip", getClientIP(r)),
	)
}
