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

// MemoryCustomersRepository supports unit tests and local development
// without Postgres.
type MemoryCustomersRepository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
}

func NewMemoryCustomersRepository() *MemoryCustomersRepository {
	return &MemoryCustomersRepository{customers: map[string]*domain.Customer{}}
}

var _ CustomersRepository = (*MemoryCustomersRepository)(nil)

func cloneCustomer(c *domain.Customer) *domain.Customer {
	cp := *c
	return &cp
}

func (r *MemoryCustomersRepository) GetCustomer(_ context.Context, customerID string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.customers[customerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneCustomer(c), nil
}

func (r *MemoryCustomersRepository) ListCustomers(_ context.Context, filter CustomerFilters, page, size int) ([]*domain.Customer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(filter.Search)
	all := []*domain.Customer{}
	for _, c := range r.customers {
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if needle != "" {
			hay := strings.ToLower(c.FirstName + " " + c.LastName + " " + c.Email + " " + c.Phone)
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		all = append(all, cloneCustomer(c))
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].LastName < all[j].LastName
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

func (r *MemoryCustomersRepository) CreateCustomer(_ context.Context, c *domain.Customer) (string, error) {
	if c.FirstName == "" || c.LastName == "" {
		return "", &domain.ValidationError{Field: "first_name", Message: "first and last name are required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	stored := cloneCustomer(c)
	stored.CustomerID = uuid.NewString()
	stored.Status = "active"
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.customers[stored.CustomerID] = stored
	return stored.CustomerID, nil
}

func (r *MemoryCustomersRepository) UpdateCustomer(_ context.Context, customerID string, fields map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[customerID]
	if !ok {
		return domain.ErrNotFound
	}

	if v, ok := fields["first_name"]; ok {
		c.FirstName, _ = v.(string)
	}
	if v, ok := fields["last_name"]; ok {
		c.LastName, _ = v.(string)
	}
	if v, ok := fields["email"]; ok {
		c.Email, _ = v.(string)
	}
	if v, ok := fields["phone"]; ok {
		c.Phone, _ = v.(string)
	}
	if v, ok := fields["sms_consent"]; ok {
		c.SMSConsent, _ = v.(bool)
	}
	if v, ok := fields["note"]; ok {
		c.Note, _ = v.(string)
	}
	if v, ok := fields["status"]; ok {
		c.Status, _ = v.(string)
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryCustomersRepository) ArchiveCustomer(_ context.Context, customerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.customers[customerID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = "archived"
	c.UpdatedAt = time.Now()
	return nil
}
