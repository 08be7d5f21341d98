package domain

// ServiceOperation is a catalog entry (oil change, brake job, ...).
// Defaults feed appointment line items unless overridden per line.
type ServiceOperation struct {
	OperationID string `db:"operation_id" json:"operation_id"` // UUID, PRIMARY KEY
	TenantID    string `db:"tenant_id" json:"tenant_id"`       // UUID, NOT NULL

	OpCode string `db:"op_code" json:"op_code"` // UNIQUE(tenant_id, op_code)
	OpName string `db:"op_name" json:"op_name"`

	DefaultPriceCents int64   `db:"default_price_cents" json:"default_price_cents"`
	DefaultHours      float64 `db:"default_hours" json:"default_hours"`

	Active bool `db:"active" json:"active"`
}

// ServicePackage bundles catalog operations sold as one unit.
type ServicePackage struct {
	PackageID string `db:"package_id" json:"package_id"` // UUID, PRIMARY KEY
	TenantID  string `db:"tenant_id" json:"tenant_id"`   // UUID, NOT NULL

	PackageCode string `db:"package_code" json:"package_code"` // UNIQUE(tenant_id, package_code)
	PackageName string `db:"package_name" json:"package_name"`

	Active bool `db:"active" json:"active"`

	Items []PackageItem `db:"-" json:"items,omitempty"`
}

// PackageItem is one operation inside a package.
type PackageItem struct {
	PackageID   string `db:"package_id" json:"package_id"`
	OperationID string `db:"operation_id" json:"operation_id"`
	Quantity    int    `db:"quantity" json:"quantity"`
}
