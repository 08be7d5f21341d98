package httpapi

import (
	"net/http"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type CustomerHandler struct {
	customers *service.CustomerService
	logger    *zap.Logger
}

func NewCustomerHandler(customers *service.CustomerService, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, logger: logger}
}

// Collection handles /api/admin/customers (GET list, POST create).
func (h *CustomerHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// Item handles /api/admin/customers/{id} (GET, PUT, DELETE=archive).
func (h *CustomerHandler) Item(w http.ResponseWriter, r *http.Request) {
	customerID := pathTail(r.URL.Path, "/api/admin/customers/")
	if customerID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, customerID)
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, customerID)
	case http.MethodDelete:
		h.archive(w, r, customerID)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

func (h *CustomerHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.CustomerFilters{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.customers.ListCustomers(r.Context(), tenantID, filter, page, size)
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

func (h *CustomerHandler) get(w http.ResponseWriter, r *http.Request, customerID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	c, err := h.customers.GetCustomer(r.Context(), tenantID, customerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type customerBody struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	SMSConsent bool   `json:"sms_consent"`
	Note       string `json:"note"`
}

func (h *CustomerHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body customerBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	c, err := h.customers.CreateCustomer(r.Context(), tenantID, &domain.Customer{
		FirstName:  body.FirstName,
		LastName:   body.LastName,
		Email:      body.Email,
		Phone:      body.Phone,
		SMSConsent: body.SMSConsent,
		Note:       body.Note,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type customerUpdateBody struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	SMSConsent *bool   `json:"sms_consent"`
	Note       *string `json:"note"`
	Status     *string `json:"status"`
}

func (h *CustomerHandler) update(w http.ResponseWriter, r *http.Request, customerID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body customerUpdateBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	fields := map[string]any{}
	if body.FirstName != nil {
		fields["first_name"] = *body.FirstName
	}
	if body.LastName != nil {
		fields["last_name"] = *body.LastName
	}
	if body.Email != nil {
		fields["email"] = *body.Email
	}
	if body.Phone != nil {
		fields["phone"] = *body.Phone
	}
	if body.SMSConsent != nil {
		fields["sms_consent"] = *body.SMSConsent
	}
	if body.Note != nil {
		fields["note"] = *body.Note
	}
	if body.Status != nil {
		fields["status"] = *body.Status
	}

	c, err := h.customers.UpdateCustomer(r.Context(), tenantID, customerID, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) archive(w http.ResponseWriter, r *http.Request, customerID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := h.customers.ArchiveCustomer(r.Context(), tenantID, customerID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "archived"})
}
