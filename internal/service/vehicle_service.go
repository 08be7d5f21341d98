package service

import (
	"context"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"go.uber.org/zap"
)

// VehicleService is CRUD plus the ownership-transfer operation.
type VehicleService struct {
	vehicles repository.VehiclesRepository
	tx       repository.TxRunner
	logger   *zap.Logger
}

func NewVehicleService(vehicles repository.VehiclesRepository, tx repository.TxRunner, logger *zap.Logger) *VehicleService {
	return &VehicleService{vehicles: vehicles, tx: tx, logger: logger}
}

func (s *VehicleService) GetVehicle(ctx context.Context, tenantID, vehicleID string) (*domain.Vehicle, error) {
	var out *domain.Vehicle
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		v, err := s.vehicles.GetVehicle(ctx, vehicleID)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *VehicleService) ListVehicles(ctx context.Context, tenantID string, filter repository.VehicleFilters, page, size int) ([]*domain.Vehicle, int, error) {
	var items []*domain.Vehicle
	var total int
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		var err error
		items, total, err = s.vehicles.ListVehicles(ctx, filter, page, size)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *VehicleService) CreateVehicle(ctx context.Context, tenantID string, v *domain.Vehicle) (*domain.Vehicle, error) {
	var out *domain.Vehicle
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		id, err := s.vehicles.CreateVehicle(ctx, v)
		if err != nil {
			return err
		}
		out, err = s.vehicles.GetVehicle(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Vehicle created",
		zap.String("tenant_id", tenantID),
		zap.String("vehicle_id", out.VehicleID))
	return out, nil
}

func (s *VehicleService) UpdateVehicle(ctx context.Context, tenantID, vehicleID string, fields map[string]any) (*domain.Vehicle, error) {
	var out *domain.Vehicle
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		if err := s.vehicles.UpdateVehicle(ctx, vehicleID, fields); err != nil {
			return err
		}
		var err error
		out, err = s.vehicles.GetVehicle(ctx, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransferVehicle moves a vehicle to another customer inside the tenant.
func (s *VehicleService) TransferVehicle(ctx context.Context, tenantID, vehicleID, newCustomerID string) (*domain.Vehicle, error) {
	var out *domain.Vehicle
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		if err := s.vehicles.TransferVehicle(ctx, vehicleID, newCustomerID); err != nil {
			return err
		}
		var err error
		out, err = s.vehicles.GetVehicle(ctx, vehicleID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Vehicle transferred",
		zap.String("tenant_id", tenantID),
		zap.String("vehicle_id", vehicleID),
		zap.String("customer_id", newCustomerID))
	return out, nil
}
