package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mapKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapKV() *mapKV { return &mapKV{data: map[string]string{}} }

func (m *mapKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", store.ErrMiss
	}
	return v, nil
}

func (m *mapKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

var _ store.KV = (*mapKV)(nil)

func newCatalogFixture() (*CatalogService, *repository.MemoryCatalogRepository, *mapKV) {
	repo := repository.NewMemoryCatalogRepository()
	kv := newMapKV()
	svc := NewCatalogService(repo, repository.NoTxRunner{}, kv, zap.NewNop())
	return svc, repo, kv
}

func TestListOperationsCaches(t *testing.T) {
	svc, _, kv := newCatalogFixture()
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, testTenantID, &domain.ServiceOperation{
		OpCode: "OIL", OpName: "Oil change", DefaultPriceCents: 4999, Active: true,
	})
	require.NoError(t, err)

	ops, err := svc.ListOperations(ctx, testTenantID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, op.OperationID, ops[0].OperationID)

	// second read comes from the cache
	key := operationsCacheKey(testTenantID)
	_, cached := kv.data[key]
	assert.True(t, cached)

	ops, err = svc.ListOperations(ctx, testTenantID)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestCatalogWritesInvalidateCache(t *testing.T) {
	svc, _, kv := newCatalogFixture()
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, testTenantID, &domain.ServiceOperation{
		OpCode: "OIL", OpName: "Oil change", Active: true,
	})
	require.NoError(t, err)

	_, err = svc.ListOperations(ctx, testTenantID)
	require.NoError(t, err)

	_, err = svc.UpdateOperation(ctx, testTenantID, op.OperationID, map[string]any{"op_name": "Oil + filter"})
	require.NoError(t, err)

	_, cached := kv.data[operationsCacheKey(testTenantID)]
	assert.False(t, cached, "update must drop the cached list")

	ops, err := svc.ListOperations(ctx, testTenantID)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "Oil + filter", ops[0].OpName)
}

func TestListOperationsDropsPoisonedCache(t *testing.T) {
	svc, _, kv := newCatalogFixture()
	ctx := context.Background()

	_, err := svc.CreateOperation(ctx, testTenantID, &domain.ServiceOperation{
		OpCode: "OIL", OpName: "Oil change", Active: true,
	})
	require.NoError(t, err)

	require.NoError(t, kv.Set(ctx, operationsCacheKey(testTenantID), "{not json", 0))

	ops, err := svc.ListOperations(ctx, testTenantID)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestCreatePackageValidatesItems(t *testing.T) {
	svc, _, _ := newCatalogFixture()
	ctx := context.Background()

	op, err := svc.CreateOperation(ctx, testTenantID, &domain.ServiceOperation{
		OpCode: "OIL", OpName: "Oil change", Active: true,
	})
	require.NoError(t, err)

	pkg, err := svc.CreatePackage(ctx, testTenantID, &domain.ServicePackage{
		PackageCode: "BASIC",
		PackageName: "Basic service",
		Active:      true,
		Items:       []domain.PackageItem{{OperationID: op.OperationID, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Len(t, pkg.Items, 1)

	_, err = svc.CreatePackage(ctx, testTenantID, &domain.ServicePackage{
		PackageCode: "BOGUS",
		PackageName: "Bogus",
		Items:       []domain.PackageItem{{OperationID: "44444444-4444-4444-4444-444444444444"}},
	})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "items", vErr.Field)
}
