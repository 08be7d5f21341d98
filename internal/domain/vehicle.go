package domain

import "time"

// Vehicle belongs to a customer. tenant_id is denormalized onto the row so
// the RLS policy stays a single-column predicate. Ownership changes go
// through an explicit transfer operation, not a plain field update.
type Vehicle struct {
	VehicleID  string `db:"vehicle_id" json:"vehicle_id"`   // UUID, PRIMARY KEY
	TenantID   string `db:"tenant_id" json:"tenant_id"`     // UUID, NOT NULL
	CustomerID string `db:"customer_id" json:"customer_id"` // UUID, NOT NULL, FK customers

	Make  string `db:"make" json:"make"`             // VARCHAR(100), NOT NULL
	Model string `db:"model" json:"model"`           // VARCHAR(100), NOT NULL
	Year  int    `db:"year" json:"year,omitempty"`   // SMALLINT, nullable (0 = unknown)
	VIN   string `db:"vin" json:"vin,omitempty"`     // VARCHAR(17), nullable
	Plate string `db:"plate" json:"plate,omitempty"` // VARCHAR(20), nullable

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
