package httpapi

import (
	"context"
	"net/http"
	"strings"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/service"

	"go.uber.org/zap"
)

// Principal is the authenticated caller. TenantID comes from the signed
// token; nothing the client sends in headers or body can change it.
type Principal struct {
	UserID   string
	TenantID string
	Role     string
	JTI      string
}

type principalKey struct{}

// PrincipalFrom returns the request principal, or nil before auth.
func PrincipalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

// NewPrincipalContext is exported for handler tests.
func NewPrincipalContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// AuthMiddleware authenticates requests and fails closed: no valid token,
// no live session, or no tenant means the handler (and the database) is
// never reached.
type AuthMiddleware struct {
	tokens *service.TokenManager
	auth   service.AuthService
	logger *zap.Logger
}

func NewAuthMiddleware(tokens *service.TokenManager, auth service.AuthService, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, auth: auth, logger: logger}
}

// Wrap enforces authentication on a handler.
func (m *AuthMiddleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, CodeAuthentication, "missing bearer token", nil)
			return
		}

		claims, err := m.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			m.logger.Debug("Token rejected", zap.Error(err))
			writeError(w, http.StatusUnauthorized, CodeAuthentication, "invalid or expired token", nil)
			return
		}
		if !m.auth.SessionAlive(r.Context(), claims.ID) {
			writeError(w, http.StatusUnauthorized, CodeAuthentication, "session revoked or expired", nil)
			return
		}
		if claims.TenantID == "" {
			// fail closed before any query can run unscoped
			writeError(w, http.StatusForbidden, CodeAuthorization, "no tenant resolved for principal", nil)
			return
		}

		p := &Principal{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Role:     claims.Role,
			JTI:      claims.ID,
		}
		next(w, r.WithContext(NewPrincipalContext(r.Context(), p)))
	}
}

// RequireRole additionally gates a handler on the principal's role.
func (m *AuthMiddleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.Wrap(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFrom(r.Context())
		if p == nil || p.Role != role {
			writeError(w, http.StatusForbidden, CodeAuthorization, "insufficient role", nil)
			return
		}
		next(w, r)
	})
}

// tenantOf is the single way handlers obtain the tenant id.
func tenantOf(r *http.Request) (string, error) {
	p := PrincipalFrom(r.Context())
	if p == nil || p.TenantID == "" {
		return "", domain.ErrNoTenant
	}
	return p.TenantID, nil
}
