package service

import (
	"context"
	"testing"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCustomerArchiveIsSoftDelete(t *testing.T) {
	repo := repository.NewMemoryCustomersRepository()
	svc := NewCustomerService(repo, repository.NoTxRunner{}, zap.NewNop())
	ctx := context.Background()

	c, err := svc.CreateCustomer(ctx, testTenantID, &domain.Customer{
		FirstName: "Dana", LastName: "Reyes",
	})
	require.NoError(t, err)
	assert.Equal(t, "active", c.Status)

	require.NoError(t, svc.ArchiveCustomer(ctx, testTenantID, c.CustomerID))

	// the row survives, archived
	got, err := svc.GetCustomer(ctx, testTenantID, c.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, "archived", got.Status)

	// and drops out of the active listing
	items, _, err := svc.ListCustomers(ctx, testTenantID, repository.CustomerFilters{Status: "active"}, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCustomerArchiveUnknown(t *testing.T) {
	svc := NewCustomerService(repository.NewMemoryCustomersRepository(), repository.NoTxRunner{}, zap.NewNop())

	err := svc.ArchiveCustomer(context.Background(), testTenantID, "88888888-8888-8888-8888-888888888888")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVehicleTransfer(t *testing.T) {
	customers := repository.NewMemoryCustomersRepository()
	vehicles := repository.NewMemoryVehiclesRepository()
	svc := NewVehicleService(vehicles, repository.NoTxRunner{}, zap.NewNop())
	ctx := context.Background()

	fromID, err := customers.CreateCustomer(ctx, &domain.Customer{FirstName: "Dana", LastName: "Reyes"})
	require.NoError(t, err)
	toID, err := customers.CreateCustomer(ctx, &domain.Customer{FirstName: "Sam", LastName: "Ortiz"})
	require.NoError(t, err)

	v, err := svc.CreateVehicle(ctx, testTenantID, &domain.Vehicle{
		CustomerID: fromID, Make: "Toyota", Model: "Corolla",
	})
	require.NoError(t, err)

	moved, err := svc.TransferVehicle(ctx, testTenantID, v.VehicleID, toID)
	require.NoError(t, err)
	assert.Equal(t, toID, moved.CustomerID)

	items, _, err := svc.ListVehicles(ctx, testTenantID, repository.VehicleFilters{CustomerID: toID}, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, v.VehicleID, items[0].VehicleID)
}
