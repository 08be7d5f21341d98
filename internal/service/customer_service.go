package service

import (
	"context"

	"autoshop-admin/internal/domain"
	"autoshop-admin/internal/repository"

	"go.uber.org/zap"
)

// CustomerService is thin CRUD over the customers repository; the database
// does the tenant scoping.
type CustomerService struct {
	customers repository.CustomersRepository
	tx        repository.TxRunner
	logger    *zap.Logger
}

func NewCustomerService(customers repository.CustomersRepository, tx repository.TxRunner, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, tx: tx, logger: logger}
}

func (s *CustomerService) GetCustomer(ctx context.Context, tenantID, customerID string) (*domain.Customer, error) {
	var out *domain.Customer
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		c, err := s.customers.GetCustomer(ctx, customerID)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, tenantID string, filter repository.CustomerFilters, page, size int) ([]*domain.Customer, int, error) {
	var items []*domain.Customer
	var total int
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		var err error
		items, total, err = s.customers.ListCustomers(ctx, filter, page, size)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *CustomerService) CreateCustomer(ctx context.Context, tenantID string, c *domain.Customer) (*domain.Customer, error) {
	var out *domain.Customer
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		id, err := s.customers.CreateCustomer(ctx, c)
		if err != nil {
			return err
		}
		out, err = s.customers.GetCustomer(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Customer created",
		zap.String("tenant_id", tenantID),
		zap.String("customer_id", out.CustomerID))
	return out, nil
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, tenantID, customerID string, fields map[string]any) (*domain.Customer, error) {
	var out *domain.Customer
	err := s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		if err := s.customers.UpdateCustomer(ctx, customerID, fields); err != nil {
			return err
		}
		var err error
		out, err = s.customers.GetCustomer(ctx, customerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *CustomerService) ArchiveCustomer(ctx context.Context, tenantID, customerID string) error {
	return s.tx.InTenantTx(ctx, tenantID, func(ctx context.Context) error {
		return s.customers.ArchiveCustomer(ctx, customerID)
	})
}
