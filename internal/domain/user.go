package domain

import "time"

// Staff roles.
const (
	RoleSystemAdmin = "SystemAdmin"
	RoleShopAdmin   = "ShopAdmin"
	RoleAdvisor     = "Advisor"
	RoleTechnician  = "Technician"
)

// User is a staff login scoped to a tenant.
type User struct {
	UserID   string `db:"user_id" json:"user_id"`     // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id" json:"tenant_id"` // UUID, NOT NULL

	UserAccount  string `db:"user_account" json:"user_account"` // UNIQUE(tenant_id, user_account)
	PasswordHash []byte `db:"password_hash" json:"-"`           // BYTEA, SHA-256 of password

	Nickname string `db:"nickname" json:"nickname,omitempty"`
	Role     string `db:"role" json:"role"`     // see Role* constants
	Status   string `db:"status" json:"status"` // active/disabled

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
