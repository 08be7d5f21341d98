package domain

import "time"

// Appointment is one job on the board. Rows are retained indefinitely for
// history; status only ever moves forward along the transition graph.
type Appointment struct {
	AppointmentID string `db:"appointment_id" json:"appointment_id"` // UUID, PRIMARY KEY
	TenantID      string `db:"tenant_id" json:"tenant_id"`           // UUID, NOT NULL
	CustomerID    string `db:"customer_id" json:"customer_id"`       // UUID, NOT NULL
	VehicleID     string `db:"vehicle_id" json:"vehicle_id"`         // UUID, NOT NULL

	Status AppointmentStatus `db:"status" json:"status"` // see appointment_status.go

	StartTS *time.Time `db:"start_ts" json:"start_ts,omitempty"` // nullable; end_ts >= start_ts when both set
	EndTS   *time.Time `db:"end_ts" json:"end_ts,omitempty"`

	PrimaryOperationID string `db:"primary_operation_id" json:"primary_operation_id,omitempty"` // UUID, nullable

	TotalCents int64 `db:"total_cents" json:"total_cents"` // derived from line items
	PaidCents  int64 `db:"paid_cents" json:"paid_cents"`   // <= total_cents

	CheckInAt  *time.Time `db:"check_in_at" json:"check_in_at,omitempty"`   // set on first move to IN_PROGRESS
	CheckOutAt *time.Time `db:"check_out_at" json:"check_out_at,omitempty"` // set on move to COMPLETED

	Note string `db:"note" json:"note,omitempty"`

	// Version is the optimistic-concurrency token. Every mutation bumps it;
	// writers must present the version they read or get a conflict.
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Services []AppointmentService `db:"-" json:"services,omitempty"`
}

// AppointmentService is a line item: a catalog operation attached to an
// appointment, with price/hours defaulted from the catalog but overridable.
type AppointmentService struct {
	AppointmentID string  `db:"appointment_id" json:"appointment_id"`
	OperationID   string  `db:"operation_id" json:"operation_id"`
	Quantity      int     `db:"quantity" json:"quantity"`
	PriceCents    int64   `db:"price_cents" json:"price_cents"`
	Hours         float64 `db:"hours" json:"hours"`
}
