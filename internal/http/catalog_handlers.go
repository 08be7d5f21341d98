package httpapi

import (
	"net/http"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewCatalogHandler(catalog *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Operations handles /api/admin/service-operations (GET list, POST create).
func (h *CatalogHandler) Operations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listOperations(w, r)
	case http.MethodPost:
		h.createOperation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// OperationItem handles /api/admin/service-operations/{id} (PUT).
func (h *CatalogHandler) OperationItem(w http.ResponseWriter, r *http.Request) {
	operationID := pathTail(r.URL.Path, "/api/admin/service-operations/")
	if operationID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}
	h.updateOperation(w, r, operationID)
}

// Packages handles /api/admin/service-packages (GET list, POST create).
func (h *CatalogHandler) Packages(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listPackages(w, r)
	case http.MethodPost:
		h.createPackage(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
	}
}

// PackageItem handles /api/admin/service-packages/{id} (GET).
func (h *CatalogHandler) PackageItem(w http.ResponseWriter, r *http.Request) {
	packageID := pathTail(r.URL.Path, "/api/admin/service-packages/")
	if packageID == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}

	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkg, err := h.catalog.GetPackage(r.Context(), tenantID, packageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

func (h *CatalogHandler) listOperations(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ops, err := h.catalog.ListOperations(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ops, "total": len(ops)})
}

type operationBody struct {
	OpCode            string  `json:"op_code"`
	OpName            string  `json:"op_name"`
	DefaultPriceCents int64   `json:"default_price_cents"`
	DefaultHours      float64 `json:"default_hours"`
}

func (h *CatalogHandler) createOperation(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body operationBody
	if err := readBodyJSON(r, 16<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	op, err := h.catalog.CreateOperation(r.Context(), tenantID, &domain.ServiceOperation{
		OpCode:            body.OpCode,
		OpName:            body.OpName,
		DefaultPriceCents: body.DefaultPriceCents,
		DefaultHours:      body.DefaultHours,
		Active:            true,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, op)
}

type operationUpdateBody struct {
	OpName            *string  `json:"op_name"`
	DefaultPriceCents *int64   `json:"default_price_cents"`
	DefaultHours      *float64 `json:"default_hours"`
	Active            *bool    `json:"active"`
}

func (h *CatalogHandler) updateOperation(w http.ResponseWriter, r *http.Request, operationID string) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body operationUpdateBody
	if err := readBodyJSON(r, 16<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	fields := map[string]any{}
	if body.OpName != nil {
		fields["op_name"] = *body.OpName
	}
	if body.DefaultPriceCents != nil {
		fields["default_price_cents"] = *body.DefaultPriceCents
	}
	if body.DefaultHours != nil {
		fields["default_hours"] = *body.DefaultHours
	}
	if body.Active != nil {
		fields["active"] = *body.Active
	}

	op, err := h.catalog.UpdateOperation(r.Context(), tenantID, operationID, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, op)
}

func (h *CatalogHandler) listPackages(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	pkgs, err := h.catalog.ListPackages(r.Context(), tenantID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": pkgs, "total": len(pkgs)})
}

type packageBody struct {
	PackageCode string `json:"package_code"`
	PackageName string `json:"package_name"`
	Items       []struct {
		OperationID string `json:"operation_id"`
		Quantity    int    `json:"quantity"`
	} `json:"items"`
}

func (h *CatalogHandler) createPackage(w http.ResponseWriter, r *http.Request) {
	tenantID, err := tenantOf(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var body packageBody
	if err := readBodyJSON(r, 64<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}

	pkg := &domain.ServicePackage{
		PackageCode: body.PackageCode,
		PackageName: body.PackageName,
		Active:      true,
	}
	for _, item := range body.Items {
		pkg.Items = append(pkg.Items, domain.PackageItem{
			OperationID: item.OperationID,
			Quantity:    item.Quantity,
		})
	}

	created, err := h.catalog.CreatePackage(r.Context(), tenantID, pkg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
