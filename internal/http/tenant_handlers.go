package httpapi

import (
	"encoding/json"
	"net/http"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

// TenantHandler serves the platform-level tenants surface. Every route is
// gated on the SystemAdmin role by the router.
type TenantHandler struct {
	tenants *service.TenantService
	logger  *zap.Logger
}

func NewTenantHandler(tenants *service.TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{tenants: tenants, logger: logger}
}

// Collection handles /api/admin/tenants (GET list, POST create).
func (h *TenantHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// Item handles /api/admin/tenants/{id} (GET, PUT).
func (h *TenantHandler) Item(w http.ResponseWriter, r *http.Request) {
	tenantID := pathTail(r.URL.Path, "/api/admin/tenants/")
	if tenantID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, tenantID)
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, tenantID)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

func (h *TenantHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TenantFilters{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.tenants.ListTenants(r.Context(), filter, page, size)
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

func (h *TenantHandler) get(w http.ResponseWriter, r *http.Request, tenantID string) {
	t, err := h.tenants.GetTenant(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type tenantBody struct {
	TenantName string          `json:"tenant_name"`
	Domain     string          `json:"domain"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Metadata   json.RawMessage `json:"metadata"`
}

func (h *TenantHandler) create(w http.ResponseWriter, r *http.Request) {
	var body tenantBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	t, err := h.tenants.CreateTenant(r.Context(), &domain.Tenant{
		TenantName: body.TenantName,
		Domain:     body.Domain,
		Email:      body.Email,
		Phone:      body.Phone,
		Metadata:   body.Metadata,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type tenantUpdateBody struct {
	TenantName *string         `json:"tenant_name"`
	Domain     *string         `json:"domain"`
	Email      *string         `json:"email"`
	Phone      *string         `json:"phone"`
	Status     *string         `json:"status"`
	Metadata   json.RawMessage `json:"metadata"`
}

func (h *TenantHandler) update(w http.ResponseWriter, r *http.Request, tenantID string) {
	var body tenantUpdateBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	fields := map[string]any{}
	if body.TenantName != nil {
		fields["tenant_name"] = *body.TenantName
	}
	if body.Domain != nil {
		fields["domain"] = *body.Domain
	}
	if body.Email != nil {
		fields["email"] = *body.Email
	}
	if body.Phone != nil {
		fields["phone"] = *body.Phone
	}
	if body.Status != nil {
		fields["status"] = *body.Status
	}
	if body.Metadata != nil {
		fields["metadata"] = []byte(body.Metadata)
	}

	t, err := h.tenants.UpdateTenant(r.Context(), tenantID, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
