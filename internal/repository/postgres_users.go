package repository

import (
	"context"
	"database/sql"
	"fmt"

	"autoshop-admin/internal/domain"
)

// PostgresUsersRepository reads the users table.
type PostgresUsersRepository struct {
	db *sql.DB
}

func NewPostgresUsersRepository(db *sql.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `
	user_id::text,
	tenant_id::text,
	user_account,
	password_hash,
	COALESCE(nickname, '') AS nickname,
	role,
	status,
	created_at`

func scanUser(row interface{ Scan(...any) error }) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.UserID,
		&u.TenantID,
		&u.UserAccount,
		&u.PasswordHash,
		&u.Nickname,
		&u.Role,
		&u.Status,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByAccount fetches an active user by account name within the
// current tenant scope.
func (r *PostgresUsersRepository) GetUserByAccount(ctx context.Context, account string) (*domain.User, error) {
	if account == "" {
		return nil, fmt.Errorf("account is required")
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE user_account = $1 AND status = 'active'`
	u, err := scanUser(dbtx(ctx, r.db).QueryRowContext(ctx, query, account))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by account: %w", err)
	}
	return u, nil
}

// GetUser fetches one user by id.
func (r *PostgresUsersRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1::uuid`
	u, err := scanUser(dbtx(ctx, r.db).QueryRowContext(ctx, query, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
