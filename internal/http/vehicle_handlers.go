package httpapi

import (
	"net/http"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type VehicleHandler struct {
	vehicles *service.VehicleService
	logger   *zap.Logger
}

func NewVehicleHandler(vehicles *service.VehicleService, logger *zap.Logger) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, logger: logger}
}

// Collection handles /api/admin/vehicles (GET list, POST create).
func (h *VehicleHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// Item handles /api/admin/vehicles/{id} and /api/admin/vehicles/{id}/transfer.
func (h *VehicleHandler) Item(w http.ResponseWriter, r *http.Request) {
	vehicleID, action := splitAction(r.URL.Path, "/api/admin/vehicles/")
	if vehicleID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}

	switch {
	case action == "transfer" && r.Method == http.MethodPost:
		h.transfer(w, r, vehicleID)
	case action != "":
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
	case r.Method == http.MethodGet:
		h.get(w, r, vehicleID)
	case r.Method == http.MethodPut, r.Method == http.MethodPatch:
		h.update(w, r, vehicleID)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

func (h *VehicleHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	q := r.URL.Query()
	filter := repository.VehicleFilters{
		CustomerID: q.Get("customer_id"),
		Search:     q.Get("search"),
	}
	page := parseInt(q.Get("page"), 1)
	size := parseInt(q.Get("size"), 20)

	items, total, err := h.vehicles.ListVehicles(r.Context(), tenantID, filter, page, size)
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

func (h *VehicleHandler) get(w http.ResponseWriter, r *http.Request, vehicleID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	v, err := h.vehicles.GetVehicle(r.Context(), tenantID, vehicleID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type vehicleBody struct {
	CustomerID string `json:"customer_id"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	VIN        string `json:"vin"`
	Plate      string `json:"plate"`
}

func (h *VehicleHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body vehicleBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	v, err := h.vehicles.CreateVehicle(r.Context(), tenantID, &domain.Vehicle{
		CustomerID: body.CustomerID,
		Make:       body.Make,
		Model:      body.Model,
		Year:       body.Year,
		VIN:        body.VIN,
		Plate:      body.Plate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type vehicleUpdateBody struct {
	Make  *string `json:"make"`
	Model *string `json:"model"`
	Year  *int    `json:"year"`
	VIN   *string `json:"vin"`
	Plate *string `json:"plate"`
}

func (h *VehicleHandler) update(w http.ResponseWriter, r *http.Request, vehicleID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body vehicleUpdateBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	fields := map[string]any{}
	if body.Make != nil {
		fields["make"] = *body.Make
	}
	if body.Model != nil {
		fields["model"] = *body.Model
	}
	if body.Year != nil {
		fields["year"] = *body.Year
	}
	if body.VIN != nil {
		fields["vin"] = *body.VIN
	}
	if body.Plate != nil {
		fields["plate"] = *body.Plate
	}

	v, err := h.vehicles.UpdateVehicle(r.Context(), tenantID, vehicleID, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

type transferBody struct {
	NewCustomerID string `json:"customer_id"`
}

// transfer moves a vehicle to another customer within the same shop.
func (h *VehicleHandler) transfer(w http.ResponseWriter, r *http.Request, vehicleID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body transferBody
	if err := readBodyJSON(r, 4<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}
	if body.NewCustomerID == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "customer_id is required",
			map[string]any{"field": "customer_id"})
		return
	}

	v, err := h.vehicles.TransferVehicle(r.Context(), tenantID, vehicleID, body.NewCustomerID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
