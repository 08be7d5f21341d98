package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// CustomerFilters narrows ListCustomers.
type CustomerFilters struct {
	Status string
	Search string // matches name, email, phone
}

// CustomersRepository manages customers. All methods run inside the
// request's tenant transaction; RLS supplies the tenant predicate.
type CustomersRepository interface {
	GetCustomer(ctx context.Context, customerID string) (*domain.Customer, error)
	ListCustomers(ctx context.Context, filter CustomerFilters, page, size int) ([]*domain.Customer, int, error)
	CreateCustomer(ctx context.Context, c *domain.Customer) (string, error)
	UpdateCustomer(ctx context.Context, customerID string, fields map[string]any) error
	ArchiveCustomer(ctx context.Context, customerID string) error
}
