package httpapi

import (
	"errors"
	"net/http"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/service"
)

// Error codes surfaced in the error envelope.
const (
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInternal       = "INTERNAL"
)

// ErrorBody is the uniform error envelope: {"error":{code,message,details?}}.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message, Details: details}})
}

// writeServiceError translates service/domain errors to the envelope.
// NotFound covers both truly absent rows and rows hidden by RLS; the two
// must stay indistinguishable to the client.
func writeServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError
	var cErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "not found", nil)
	case errors.Is(err, domain.ErrNoTenant):
		writeError(w, http.StatusForbidden, CodeAuthorization, "no tenant resolved for request", nil)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "invalid credentials", nil)
	case errors.As(err, &vErr):
		details := map[string]any{}
		if vErr.Field != "" {
			details["field"] = vErr.Field
		}
		writeError(w, http.StatusBadRequest, CodeValidation, vErr.Error(), details)
	case errors.As(err, &cErr):
		writeError(w, http.StatusConflict, CodeConflict, cErr.Error(), map[string]any{
			"expected_version": cErr.ExpectedVersion,
		})
	default:
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
	}
}
