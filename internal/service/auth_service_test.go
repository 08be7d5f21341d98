package service

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTenantsRepo struct {
	tenants map[string]*domain.Tenant
}

func (f *fakeTenantsRepo) GetTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	t, ok := f.tenants[tenantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (f *fakeTenantsRepo) GetTenantByDomain(_ context.Context, domainName string) (*domain.Tenant, error) {
	for _, t := range f.tenants {
		if t.Domain == domainName {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTenantsRepo) ListTenants(context.Context, repository.TenantFilters, int, int) ([]*domain.Tenant, int, error) {
	return nil, 0, nil
}

func (f *fakeTenantsRepo) CreateTenant(context.Context, *domain.Tenant) (string, error) {
	return "", nil
}

func (f *fakeTenantsRepo) UpdateTenant(context.Context, string, map[string]any) error {
	return nil
}

type fakeUsersRepo struct {
	users map[string]*domain.User // keyed by account
}

func (f *fakeUsersRepo) GetUserByAccount(_ context.Context, account string) (*domain.User, error) {
	u, ok := f.users[account]
	if !ok || u.Status != "active" {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUser(_ context.Context, userID string) (*domain.User, error) {
	for _, u := range f.users {
		if u.UserID == userID {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newAuthFixture(t *testing.T, tenantStatus, userStatus string) (AuthService, *TokenManager, *mapKV) {
	t.Helper()
	hash := sha256.Sum256([]byte("hunter2"))

	tenants := &fakeTenantsRepo{tenants: map[string]*domain.Tenant{
		testTenantID: {
			TenantID:   testTenantID,
			TenantName: "Shop A",
			Domain:     "shop-a.example.com",
			Status:     tenantStatus,
		},
	}}
	users := &fakeUsersRepo{users: map[string]*domain.User{
		"dana": {
			UserID:       "99999999-9999-9999-9999-999999999999",
			TenantID:     testTenantID,
			UserAccount:  "dana",
			PasswordHash: hash[:],
			Role:         domain.RoleAdvisor,
			Status:       userStatus,
		},
	}}

	tokens := NewTokenManager("test-secret", time.Hour)
	kv := newMapKV()
	svc := NewAuthService(tenants, users, repository.NoTxRunner{}, tokens, kv, zap.NewNop())
	return svc, tokens, kv
}

func TestLogin(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t, "active", "active")

	resp, err := svc.Login(context.Background(), LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "dana",
		Password:     "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, testTenantID, resp.TenantID)
	assert.Equal(t, domain.RoleAdvisor, resp.Role)

	claims, err := tokens.Parse(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, testTenantID, claims.TenantID)
	assert.Equal(t, resp.UserID, claims.UserID)

	assert.True(t, svc.SessionAlive(context.Background(), claims.ID))
}

func TestLoginByTenantID(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "active", "active")

	resp, err := svc.Login(context.Background(), LoginRequest{
		TenantID: testTenantID,
		Account:  "dana",
		Password: "hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, testTenantID, resp.TenantID)
}

func TestLoginBadPassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "active", "active")

	_, err := svc.Login(context.Background(), LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "dana",
		Password:     "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "active", "active")

	_, err := svc.Login(context.Background(), LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "nobody",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSuspendedTenant(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "suspended", "active")

	_, err := svc.Login(context.Background(), LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "dana",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledUser(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "active", "disabled")

	_, err := svc.Login(context.Background(), LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "dana",
		Password:     "hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginWithoutTenant(t *testing.T) {
	svc, _, _ := newAuthFixture(t, "active", "active")

	_, err := svc.Login(context.Background(), LoginRequest{
		Account:  "dana",
		Password: "hunter2",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, tokens, _ := newAuthFixture(t, "active", "active")
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{
		TenantDomain: "shop-a.example.com",
		Account:      "dana",
		Password:     "hunter2",
	})
	require.NoError(t, err)
	claims, err := tokens.Parse(resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))
	assert.False(t, svc.SessionAlive(ctx, claims.ID))

	// second logout is a no-op
	assert.NoError(t, svc.Logout(ctx, claims.ID))
}

func TestTokenRejectsTampering(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour)
	token, _, err := tokens.Issue("u", testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)

	_, err = tokens.Parse(token + "x")
	assert.Error(t, err)

	expired := NewTokenManager("test-secret", -time.Minute)
	token, _, err = expired.Issue("u", testTenantID, domain.RoleAdvisor)
	require.NoError(t, err)
	_, err = tokens.Parse(token)
	assert.Error(t, err)
}
