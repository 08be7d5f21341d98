package repository

import (
	"context"
	"sort"
	"sync"

	"autoshop-admin/internal/domain"

	"github.com/google/uuid"
)

// MemoryCatalogRepository supports unit tests without Postgres.
type MemoryCatalogRepository struct {
	mu         sync.RWMutex
	operations map[string]*domain.ServiceOperation
	packages   map[string]*domain.ServicePackage
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		operations: map[string]*domain.ServiceOperation{},
		packages:   map[string]*domain.ServicePackage{},
	}
}

var _ CatalogRepository = (*MemoryCatalogRepository)(nil)

func (r *MemoryCatalogRepository) GetOperation(_ context.Context, operationID string) (*domain.ServiceOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.operations[operationID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *op
	return &c, nil
}

func (r *MemoryCatalogRepository) GetOperations(_ context.Context, operationIDs []string) (map[string]*domain.ServiceOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := map[string]*domain.ServiceOperation{}
	for _, id := range operationIDs {
		if op, ok := r.operations[id]; ok {
			c := *op
			out[id] = &c
		}
	}
	return out, nil
}

func (r *MemoryCatalogRepository) ListOperations(_ context.Context, activeOnly bool) ([]*domain.ServiceOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.ServiceOperation{}
	for _, op := range r.operations {
		if activeOnly && !op.Active {
			continue
		}
		c := *op
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpCode < out[j].OpCode })
	return out, nil
}

func (r *MemoryCatalogRepository) CreateOperation(_ context.Context, op *domain.ServiceOperation) (string, error) {
	if op.OpCode == "" {
		return "", &domain.ValidationError{Field: "op_code", Message: "is required"}
	}
	if op.OpName == "" {
		return "", &domain.ValidationError{Field: "op_name", Message: "is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *op
	stored.OperationID = uuid.NewString()
	stored.Active = true
	r.operations[stored.OperationID] = &stored
	return stored.OperationID, nil
}

func (r *MemoryCatalogRepository) UpdateOperation(_ context.Context, operationID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	op, ok := r.operations[operationID]
	if !ok {
		return domain.ErrNotFound
	}
	if v, ok := fields["op_name"]; ok {
		op.OpName, _ = v.(string)
	}
	if v, ok := fields["default_price_cents"]; ok {
		if n, ok := v.(int64); ok {
			op.DefaultPriceCents = n
		}
	}
	if v, ok := fields["default_hours"]; ok {
		if f, ok := v.(float64); ok {
			op.DefaultHours = f
		}
	}
	if v, ok := fields["active"]; ok {
		op.Active, _ = v.(bool)
	}
	return nil
}

func (r *MemoryCatalogRepository) GetPackage(_ context.Context, packageID string) (*domain.ServicePackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[packageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *pkg
	c.Items = append([]domain.PackageItem(nil), pkg.Items...)
	return &c, nil
}

func (r *MemoryCatalogRepository) ListPackages(_ context.Context, activeOnly bool) ([]*domain.ServicePackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*domain.ServicePackage{}
	for _, pkg := range r.packages {
		if activeOnly && !pkg.Active {
			continue
		}
		c := *pkg
		c.Items = append([]domain.PackageItem(nil), pkg.Items...)
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PackageCode < out[j].PackageCode })
	return out, nil
}

func (r *MemoryCatalogRepository) CreatePackage(_ context.Context, pkg *domain.ServicePackage) (string, error) {
	if pkg.PackageCode == "" {
		return "", &domain.ValidationError{Field: "package_code", Message: "is required"}
	}
	if pkg.PackageName == "" {
		return "", &domain.ValidationError{Field: "package_name", Message: "is required"}
	}
	if len(pkg.Items) == 0 {
		return "", &domain.ValidationError{Field: "items", Message: "at least one item is required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *pkg
	stored.PackageID = uuid.NewString()
	stored.Active = true
	stored.Items = append([]domain.PackageItem(nil), pkg.Items...)
	r.packages[stored.PackageID] = &stored
	return stored.PackageID, nil
}
