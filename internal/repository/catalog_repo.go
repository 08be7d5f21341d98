package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// CatalogRepository manages the service catalog: operations and packages.
type CatalogRepository interface {
	GetOperation(ctx context.Context, operationID string) (*domain.ServiceOperation, error)
	GetOperations(ctx context.Context, operationIDs []string) (map[string]*domain.ServiceOperation, error)
	ListOperations(ctx context.Context, activeOnly bool) ([]*domain.ServiceOperation, error)
	CreateOperation(ctx context.Context, op *domain.ServiceOperation) (string, error)
	UpdateOperation(ctx context.Context, operationID string, fields map[string]any) error

	GetPackage(ctx context.Context, packageID string) (*domain.ServicePackage, error)
	ListPackages(ctx context.Context, activeOnly bool) ([]*domain.ServicePackage, error)
	CreatePackage(ctx context.Context, pkg *domain.ServicePackage) (string, error)
}
