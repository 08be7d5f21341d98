package domain

import "time"

// Customer is a shop customer. Customers are never hard-deleted; DELETE
// archives the row so appointment history stays intact.
type Customer struct {
	CustomerID string `db:"customer_id" json:"customer_id"` // UUID, PRIMARY KEY
	TenantID   string `db:"tenant_id" json:"tenant_id"`     // UUID, NOT NULL

	FirstName string `db:"first_name" json:"first_name"` // VARCHAR(100), NOT NULL
	LastName  string `db:"last_name" json:"last_name"`   // VARCHAR(100), NOT NULL
	Email     string `db:"email" json:"email,omitempty"` // VARCHAR(255), nullable
	Phone     string `db:"phone" json:"phone,omitempty"` // VARCHAR(50), nullable

	// SMSConsent gates every outbound text. No consent, no SMS.
	SMSConsent bool `db:"sms_consent" json:"sms_consent"`

	Note   string `db:"note" json:"note,omitempty"` // TEXT, nullable
	Status string `db:"status" json:"status"`       // active/archived

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
