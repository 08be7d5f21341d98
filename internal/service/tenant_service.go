package service

import (
	"context"
	"strings"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"go.uber.org/zap"
)

// TenantService manages shops at the platform level. It deliberately does
// not run inside a tenant transaction: the tenants table is outside
// row-level security and only SystemAdmin routes reach this service.
type TenantService struct {
	tenants repository.TenantsRepository
	logger  *zap.Logger
}

func NewTenantService(tenants repository.TenantsRepository, logger *zap.Logger) *TenantService {
	return &TenantService{tenants: tenants, logger: logger}
}

func (s *TenantService) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return s.tenants.GetTenant(ctx, tenantID)
}

func (s *TenantService) ListTenants(ctx context.Context, filter repository.TenantFilters, page, size int) ([]*domain.Tenant, int, error) {
	return s.tenants.ListTenants(ctx, filter, page, size)
}

func (s *TenantService) CreateTenant(ctx context.Context, tenant *domain.Tenant) (*domain.Tenant, error) {
	tenant.TenantName = strings.TrimSpace(tenant.TenantName)
	if tenant.TenantName == "" {
		return nil, &domain.ValidationError{Field: "tenant_name", Message: "required"}
	}
	if tenant.Status == "" {
		tenant.Status = "active"
	}

	id, err := s.tenants.CreateTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Tenant created", zap.String("tenant_id", id), zap.String("tenant_name", tenant.TenantName))
	return s.tenants.GetTenant(ctx, id)
}

func (s *TenantService) UpdateTenant(ctx context.Context, tenantID string, fields map[string]any) (*domain.Tenant, error) {
	if len(fields) == 0 {
		return nil, &domain.ValidationError{Message: "no fields to update"}
	}
	if err := s.tenants.UpdateTenant(ctx, tenantID, fields); err != nil {
		return nil, err
	}
	return s.tenants.GetTenant(ctx, tenantID)
}
