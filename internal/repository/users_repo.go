package repository

import (
	"context"

	"autoshop-admin/internal/domain"
)

// UsersRepository reads staff logins. Queries run inside the tenant
// transaction, so lookups only ever see the caller's tenant.
type UsersRepository interface {
	GetUserByAccount(ctx context.Context, account string) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}
