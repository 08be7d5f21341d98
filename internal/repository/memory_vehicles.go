package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"autoshop-admin/internal/domain"

	"github.com/google/uuid"
)

// MemoryVehiclesRepository supports unit tests and local development
// without Postgres. Transfer validation against the target customer lives
// in the SQL implementation; here the service layer is expected to have
// checked already.
type MemoryVehiclesRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle
}

func NewMemoryVehiclesRepository() *MemoryVehiclesRepository {
	return &MemoryVehiclesRepository{vehicles: map[string]*domain.Vehicle{}}
}

var _ VehiclesRepository = (*MemoryVehiclesRepository)(nil)

func cloneVehicle(v *domain.Vehicle) *domain.Vehicle {
	cp := *v
	return &cp
}

func (r *MemoryVehiclesRepository) GetVehicle(_ context.Context, vehicleID string) (*domain.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[vehicleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVehicle(v), nil
}

func (r *MemoryVehiclesRepository) ListVehicles(_ context.Context, filter VehicleFilters, page, size int) ([]*domain.Vehicle, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(filter.Search)
	all := []*domain.Vehicle{}
	for _, v := range r.vehicles {
		if filter.CustomerID != "" && v.CustomerID != filter.CustomerID {
			continue
		}
		if needle != "" {
			hay := strings.ToLower(v.Make + " " + v.Model + " " + v.Plate + " " + v.VIN)
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		all = append(all, cloneVehicle(v))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	total := len(all)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 50
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *MemoryVehiclesRepository) CreateVehicle(_ context.Context, v *domain.Vehicle) (string, error) {
	if v.CustomerID == "" {
		return "", &domain.ValidationError{Field: "customer_id", Message: "is required"}
	}
	if v.Make == "" || v.Model == "" {
		return "", &domain.ValidationError{Field: "make", Message: "make and model are required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := cloneVehicle(v)
	stored.VehicleID = uuid.NewString()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.vehicles[stored.VehicleID] = stored
	return stored.VehicleID, nil
}

func (r *MemoryVehiclesRepository) UpdateVehicle(_ context.Context, vehicleID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vehicles[vehicleID]
	if !ok {
		return domain.ErrNotFound
	}

	if f, ok := fields["make"]; ok {
		v.Make, _ = f.(string)
	}
	if f, ok := fields["model"]; ok {
		v.Model, _ = f.(string)
	}
	if f, ok := fields["year"]; ok {
		v.Year, _ = f.(int)
	}
	if f, ok := fields["vin"]; ok {
		v.VIN, _ = f.(string)
	}
	if f, ok := fields["plate"]; ok {
		v.Plate, _ = f.(string)
	}
	v.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryVehiclesRepository) TransferVehicle(_ context.Context, vehicleID, newCustomerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.vehicles[vehicleID]
	if !ok {
		return domain.ErrNotFound
	}
	v.CustomerID = newCustomerID
	v.UpdatedAt = time.Now()
	return nil
}
