package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// VehicleFilters narrows ListVehicles.
type VehicleFilters struct {
	CustomerID string
	Search     string // matches make, model, plate, VIN
}

// VehiclesRepository manages vehicles. Transfer rewrites ownership as a
// distinct operation so it can be validated against the target customer.
type VehiclesRepository interface {
	GetVehicle(ctx context.Context, vehicleID string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, filter VehicleFilters, page, size int) ([]*domain.Vehicle, int, error)
	CreateVehicle(ctx context.Context, v *domain.Vehicle) (string, error)
	UpdateVehicle(ctx context.Context, vehicleID string, fields map[string]any) error
	TransferVehicle(ctx context.Context, vehicleID, newCustomerID string) error
}
