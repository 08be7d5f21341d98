package domain

import "time"

// Invoice statuses.
const (
	InvoiceOpen = "open"
	InvoicePaid = "paid"
)

// Invoice is derived from a COMPLETED appointment, exactly one per
// appointment. paid_cents never exceeds total_cents; the table carries a
// CHECK constraint for the same invariant.
type Invoice struct {
	InvoiceID     string `db:"invoice_id" json:"invoice_id"`         // UUID, PRIMARY KEY
	TenantID      string `db:"tenant_id" json:"tenant_id"`           // UUID, NOT NULL
	AppointmentID string `db:"appointment_id" json:"appointment_id"` // UUID, UNIQUE

	InvoiceNumber string `db:"invoice_number" json:"invoice_number"` // UNIQUE(tenant_id, invoice_number)

	TotalCents int64  `db:"total_cents" json:"total_cents"`
	PaidCents  int64  `db:"paid_cents" json:"paid_cents"`
	Status     string `db:"status" json:"status"` // open/paid

	IssuedAt time.Time `db:"issued_at" json:"issued_at"`
}

// Payment is one received amount against an invoice.
type Payment struct {
	PaymentID string `db:"payment_id" json:"payment_id"` // UUID, PRIMARY KEY
	TenantID  string `db:"tenant_id" json:"tenant_id"`   // UUID, NOT NULL
	InvoiceID string `db:"invoice_id" json:"invoice_id"` // UUID, NOT NULL

	AmountCents int64  `db:"amount_cents" json:"amount_cents"` // > 0
	Method      string `db:"method" json:"method"`             // cash/card/other

	ReceivedAt time.Time `db:"received_at" json:"received_at"`
}
