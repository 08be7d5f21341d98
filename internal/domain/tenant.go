package domain

import "encoding/json"

// Tenant is a shop (the product's customer). Platform-level data: the
// tenants table is the one table NOT covered by row-level security.
type Tenant struct {
	TenantID string `db:"tenant_id" json:"tenant_id"` // UUID, PRIMARY KEY

	TenantName string `db:"tenant_name" json:"tenant_name"`   // VARCHAR(255), NOT NULL
	Domain     string `db:"domain" json:"domain,omitempty"`   // VARCHAR(255), UNIQUE, nullable
	Email      string `db:"email" json:"email,omitempty"`     // VARCHAR(255), nullable
	Phone      string `db:"phone" json:"phone,omitempty"`     // VARCHAR(50), nullable

	Status string `db:"status" json:"status"` // active/suspended/deleted

	Metadata json.RawMessage `db:"metadata" json:"metadata,omitempty"` // JSONB, nullable
}
