package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// TenantFilters narrows ListTenants.
type TenantFilters struct {
	Status string
	Search string
}

// TenantsRepository manages the platform-level tenants table (not RLS
// scoped; only reachable through SystemAdmin routes).
type TenantsRepository interface {
	GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	GetTenantByDomain(ctx context.Context, domainName string) (*domain.Tenant, error)
	ListTenants(ctx context.Context, filter TenantFilters, page, size int) ([]*domain.Tenant, int, error)
	CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error)
	UpdateTenant(ctx context.Context, tenantID string, fields map[string]any) error
}
