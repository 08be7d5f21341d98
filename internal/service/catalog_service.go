package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/store"

	"go.uber.org/zap"
)

const catalogCacheTTL = 5 * time.Minute

// CatalogService manages the service catalog. The operations list is the
// hottest read in the admin UI (every booking form loads it), so it is
// cached in redis per tenant and invalidated on any catalog write.
type CatalogService struct {
	catalog repository.CatalogRepository
	tx      repository.TxRunner
	kv      store.KV
	logger  *zap.Logger
}

func NewCatalogService(catalog repository.CatalogRepository, tx repository.TxRunner, kv store.KV, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, tx: tx, kv: kv, logger: logger}
}

func operationsCacheKey(tenantID string) string {
	return fmt.Sprintf("catalog:%s:operations", tenantID)
}

// ListOperations serves the active catalog, from cache when possible.
// The tenant id is part of the cache key; entries can never cross tenants.
func (s *CatalogService) ListOperations(ctx context.Context, tenantID string) ([]*domain.ServiceOperation, error) {
	key := operationsCacheKey(tenantID)
	if cached, err := s.kv.Get(ctx, key); err == nil {
		var ops []*domain.ServiceOperation
		if err := json.Unmarshal([]byte(cached), &ops); err == nil {
			return ops, nil
		}
		// poisoned entry, drop it and fall through
		_ = s.kv.Del(ctx, key)
	}

	var ops []*domain.ServiceOperation
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		var err error
		ops, err = s.catalog.ListOperations(ctx, true)
		return err
	})
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(ops); err == nil {
		if err := s.kv.Set(ctx, key, string(b), catalogCacheTTL); err != nil {
			s.logger.Warn("Failed to cache catalog", zap.Error(err))
		}
	}
	return ops, nil
}

func (s *CatalogService) CreateOperation(ctx context.Context, tenantID string, op *domain.ServiceOperation) (*domain.ServiceOperation, error) {
	var out *domain.ServiceOperation
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		id, err := s.catalog.CreateOperation(ctx, op)
		if err != nil {
			return err
		}
		out, err = s.catalog.GetOperation(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.kv.Del(ctx, operationsCacheKey(tenantID))
	return out, nil
}

func (s *CatalogService) UpdateOperation(ctx context.Context, tenantID, operationID string, fields map[string]any) (*domain.ServiceOperation, error) {
	var out *domain.ServiceOperation
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		if err := s.catalog.UpdateOperation(ctx, operationID, fields); err != nil {
			return err
		}
		var err error
		out, err = s.catalog.GetOperation(ctx, operationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	_ = s.kv.Del(ctx, operationsCacheKey(tenantID))
	return out, nil
}

func (s *CatalogService) GetPackage(ctx context.Context, tenantID, packageID string) (*domain.ServicePackage, error) {
	var out *domain.ServicePackage
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		pkg, err := s.catalog.GetPackage(ctx, packageID)
		if err != nil {
			return err
		}
		out = pkg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CatalogService) ListPackages(ctx context.Context, tenantID string) ([]*domain.ServicePackage, error) {
	var out []*domain.ServicePackage
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		pkgs, err := s.catalog.ListPackages(ctx, true)
		if err != nil {
			return err
		}
		out = pkgs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePackage validates that every item references a known operation
// before inserting the package.
func (s *CatalogService) CreatePackage(ctx context.Context, tenantID string, pkg *domain.ServicePackage) (*domain.ServicePackage, error) {
	var out *domain.ServicePackage
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		ids := make([]string, 0, len(pkg.Items))
		for _, item := range pkg.Items {
			if item.OperationID == "" {
				return &domain.ValidationError{Field: "items", Message: "operation_id is required on every item"}
			}
			ids = append(ids, item.OperationID)
		}
		ops, err := s.catalog.GetOperations(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := ops[id]; !ok {
				return &domain.ValidationError{Field: "items", Message: fmt.Sprintf("unknown operation %s", id)}
			}
		}

		pkgID, err := s.catalog.CreatePackage(ctx, pkg)
		if err != nil {
			return err
		}
		out, err = s.catalog.GetPackage(ctx, pkgID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
