package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testTenantID = "11111111-1111-1111-1111-111111111111"
	testUserID   = "99999999-9999-9999-9999-999999999999"
)

// fakeAuthService lets the middleware tests control session liveness
// without redis.
type fakeAuthService struct {
	dead map[string]bool
}

func (f *fakeAuthService) Login(context.Context, service.LoginRequest) (*service.LoginResponse, error) {
	return nil, service.ErrInvalidCredentials
}

func (f *fakeAuthService) Logout(_ context.Context, jti string) error {
	if f.dead == nil {
		f.dead = map[string]bool{}
	}
	f.dead[jti] = true
	return nil
}

func (f *fakeAuthService) SessionAlive(_ context.Context, jti string) bool {
	return !f.dead[jti]
}

func newTestAuth(t *testing.T) (*AuthMiddleware, *service.TokenManager, *fakeAuthService) {
	t.Helper()
	tokens := service.NewTokenManager("test-secret", time.Hour)
	auth := &fakeAuthService{}
	return NewAuthMiddleware(tokens, auth, zap.NewNop()), tokens, auth
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"tenant_id": p.TenantID, "role": p.Role})
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	mw, _, _ := newTestAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
	rec := httptest.NewRecorder()
	mw.Wrap(okHandler)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeAuthentication)
}

func TestAuthMiddlewareBadToken(t *testing.T) {
	mw, _, _ := newTestAuth(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	mw.Wrap(okHandler)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareWrongSecret(t *testing.T) {
	mw, _, _ := newTestAuth(t)

	other := service.NewTokenManager("other-secret", time.Hour)
	token, _, err := other.Issue(testUserID, testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Wrap(okHandler)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	mw, tokens, _ := newTestAuth(t)

	token, _, err := tokens.Issue(testUserID, testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Wrap(okHandler)(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), testTenantID)
}

func TestAuthMiddlewareRevokedSession(t *testing.T) {
	mw, tokens, auth := newTestAuth(t)

	token, jti, err := tokens.Issue(testUserID, testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)
	require.NoError(t, auth.Logout(context.Background(), jti))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	mw.Wrap(okHandler)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	mw, tokens, _ := newTestAuth(t)

	advisor, _, err := tokens.Issue(testUserID, testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)
	sysadmin, _, err := tokens.Issue(testUserID, testTenantID, domain.RoleSystemAdmin)
	require.NoError(t, err)

	handler := mw.RequireRole(domain.RoleSystemAdmin, okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+advisor)
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeAuthorization)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/tenants", nil)
	req.Header.Set("Authorization", "Bearer "+sysadmin)
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
