package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type AppointmentHandler struct {
	appointments *service.AppointmentService
	logger       *zap.Logger
}

func NewAppointmentHandler(appointments *service.AppointmentService, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, logger: logger}
}

// Collection handles /api/admin/appointments (GET list, POST create).
func (h *AppointmentHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// Item handles /api/admin/appointments/{id} and {id}/status.
func (h *AppointmentHandler) Item(w http.ResponseWriter, r *http.Request) {
	appointmentID, action := splitAction(r.URL.Path, "/api/admin/appointments/")
	if appointmentID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}

	switch {
	case action == "status" && r.Method == http.MethodPatch:
		h.changeStatus(w, r, appointmentID)
	case action != "":
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
	case r.Method == http.MethodGet:
		h.get(w, r, appointmentID)
	case r.Method == http.MethodPut, r.Method == http.MethodPatch:
		h.update(w, r, appointmentID)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

func appointmentFilters(r *http.Request) (repository.AppointmentFilters, error) {
	q := r.URL.Query()
	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		return repository.AppointmentFilters{}, &domain.ValidationError{Field: "from", Message: err.Error()}
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		return repository.AppointmentFilters{}, &domain.ValidationError{Field: "to", Message: err.Error()}
	}
	return repository.AppointmentFilters{
		Status:     q.Get("status"),
		CustomerID: q.Get("customer_id"),
		VehicleID:  q.Get("vehicle_id"),
		From:       from,
		To:         to,
	}, nil
}

func (h *AppointmentHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	filter, err := appointmentFilters(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	page := parseInt(r.URL.Query().Get("page"), 1)
	size := parseInt(r.URL.Query().Get("size"), 20)

	items, total, err := h.appointments.ListAppointments(r.Context(), tenantID, filter, page, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  page,
		"size":  size,
	})
}

func (h *AppointmentHandler) get(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a, err := h.appointments.GetAppointment(r.Context(), tenantID, appointmentID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type serviceLineBody struct {
	OperationID string   `json:"operation_id"`
	Quantity    int      `json:"quantity"`
	PriceCents  *int64   `json:"price_cents"`
	Hours       *float64 `json:"hours"`
}

func serviceLines(in []serviceLineBody) []service.ServiceLineInput {
	if in == nil {
		return nil
	}
	out := make([]service.ServiceLineInput, 0, len(in))
	for _, l := range in {
		out = append(out, service.ServiceLineInput{
			OperationID: l.OperationID,
			Quantity:    l.Quantity,
			PriceCents:  l.PriceCents,
			Hours:       l.Hours,
		})
	}
	return out
}

type createAppointmentBody struct {
	CustomerID         string            `json:"customer_id"`
	VehicleID          string            `json:"vehicle_id"`
	StartTS            *time.Time        `json:"start_ts"`
	EndTS              *time.Time        `json:"end_ts"`
	PrimaryOperationID string            `json:"primary_operation_id"`
	Note               string            `json:"note"`
	Services           []serviceLineBody `json:"services"`
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body createAppointmentBody
	if err := readBodyJSON(r, 256<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	a, err := h.appointments.CreateAppointment(r.Context(), service.CreateAppointmentRequest{
		TenantID:           tenantID,
		CustomerID:         body.CustomerID,
		VehicleID:          body.VehicleID,
		StartTS:            body.StartTS,
		EndTS:              body.EndTS,
		PrimaryOperationID: body.PrimaryOperationID,
		Note:               body.Note,
		Services:           serviceLines(body.Services),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type updateAppointmentBody struct {
	Version            *int              `json:"version"`
	StartTS            *time.Time        `json:"start_ts"`
	EndTS              *time.Time        `json:"end_ts"`
	PrimaryOperationID *string           `json:"primary_operation_id"`
	Note               *string           `json:"note"`
	Services           []serviceLineBody `json:"services"`
}

func (h *AppointmentHandler) update(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body updateAppointmentBody
	if err := readBodyJSON(r, 256<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}
	if body.Version == nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "version is required",
			map[string]any{"field": "version"})
		return
	}

	fields := map[string]any{}
	if body.StartTS != nil {
		fields["start_ts"] = body.StartTS
	}
	if body.EndTS != nil {
		fields["end_ts"] = body.EndTS
	}
	if body.PrimaryOperationID != nil {
		fields["primary_operation_id"] = *body.PrimaryOperationID
	}
	if body.Note != nil {
		fields["note"] = *body.Note
	}

	a, err := h.appointments.UpdateAppointment(r.Context(), service.UpdateAppointmentRequest{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Version:       *body.Version,
		Fields:        fields,
		Services:      serviceLines(body.Services),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type changeStatusBody struct {
	Status  string `json:"status"`
	Version *int   `json:"version"`
}

func (h *AppointmentHandler) changeStatus(w http.ResponseWriter, r *http.Request, appointmentID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body changeStatusBody
	if err := readBodyJSON(r, 4<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}
	if body.Version == nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "version is required",
			map[string]any{"field": "version"})
		return
	}

	a, err := h.appointments.ChangeStatus(r.Context(), service.ChangeStatusRequest{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		To:            domain.AppointmentStatus(body.Status),
		Version:       *body.Version,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Export handles GET /api/admin/appointments/export, streaming an xlsx of
// the filtered appointments.
func (h *AppointmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	filter, err := appointmentFilters(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// one page, export cap
	items, _, err := h.appointments.ListAppointments(r.Context(), tenantID, filter, 1, exportRowLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := buildAppointmentsWorkbook(items)
	if err != nil {
		h.logger.Error("Export workbook failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternal, "export failed", nil)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("appointments_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		h.logger.Warn("Export write failed", zap.Error(err))
	}
}
