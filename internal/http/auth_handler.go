package httpapi

import (
	"net/http"

	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginBody struct {
	TenantDomain string `json:"tenant_domain"`
	TenantID     string `json:"tenant_id"`
	Account      string `json:"account"`
	Password     string `json:"password"`
}

// Login handles POST /api/admin/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}

	var body loginBody
	if err := readBodyJSON(r, 4<<10, &body); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return
	}
	if body.Account == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, CodeValidation, "account and password are required", nil)
		return
	}

	resp, err := h.auth.Login(r.Context(), service.LoginRequest{
		TenantDomain: body.TenantDomain,
		TenantID:     body.TenantID,
		Account:      body.Account,
		Password:     body.Password,
		IPAddress:    getClientIP(r),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Logout handles POST /api/admin/auth/logout. Runs behind auth middleware:
// the session to revoke is the caller's own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed", nil)
		return
	}

	p := PrincipalFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusUnauthorized, CodeAuthentication, "not authenticated", nil)
		return
	}
	if err := h.auth.Logout(r.Context(), p.JTI); err != nil {
		h.logger.Warn("Logout failed", zap.String("user_id", p.UserID), zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
