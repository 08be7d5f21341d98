package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type InvoiceHandler struct {
	invoices *service.InvoiceService
	logger   *zap.Logger
}

func NewInvoiceHandler(invoices *service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, logger: logger}
}

// Collection handles /api/admin/invoices (GET list). Invoices are only
// ever created by completing an appointment, never by direct POST.
func (h *InvoiceHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}
	h.list(w, r)
}

// Item handles /api/admin/invoices/{id} and {id}/payments.
func (h *InvoiceHandler) Item(w http.ResponseWriter, r *http.Request) {
	invoiceID, action := splitAction(r.URL.Path, "/api/admin/invoices/")
	if invoiceID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}

	switch {
	case action == "payments" && r.Method == http.MethodGet:
		h.listPayments(w, r, invoiceID)
	case action == "payments" && r.Method == http.MethodPost:
		h.recordPayment(w, r, invoiceID)
	case action != "":
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
	case r.Method == http.MethodGet:
		h.get(w, r, invoiceID)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

func (h *InvoiceHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.InvoiceFilters{
		Status:     q.Get("status"),
		CustomerID: q.Get("customer_id"),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.invoices.ListInvoices(r.Context(), tenantID, filter, page, size)
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

func (h *InvoiceHandler) get(w http.ResponseWriter, r *http.Request, invoiceID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	inv, err := h.invoices.GetInvoice(r.Context(), tenantID, invoiceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) listPayments(w http.ResponseWriter, r *http.Request, invoiceID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	payments, err := h.invoices.ListPayments(r.Context(), tenantID, invoiceID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": payments, "total": len(payments)})
}

type paymentBody struct {
	AmountCents int64  `json:"amount_cents"`
	Method      string `json:"method"`
}

func (h *InvoiceHandler) recordPayment(w http.ResponseWriter, r *http.Request, invoiceID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body paymentBody
	if err := readBodyJSON(r, 4<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	inv, err := h.invoices.RecordPayment(r.Context(), tenantID, invoiceID, body.AmountCents, body.Method)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Export handles GET /api/admin/invoices/export.
func (h *InvoiceHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.InvoiceFilters{
		Status:     q.Get("status"),
		CustomerID: q.Get("customer_id"),
	}

	items, _, err := h.invoices.ListInvoices(r.Context(), tenantID, filter, 1, exportRowLimit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	f, err := buildInvoicesWorkbook(items)
	if err != nil {
		h.logger.Error("Export workbook failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, CodeInternal, "export failed", nil)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("invoices_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if err := f.Write(w); err != nil {
		h.logger.Warn("Export write failed", zap.Error(err))
	}
}
