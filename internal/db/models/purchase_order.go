package models

import "time"

// PurchaseOrder represents an order placed by a customer. Licenses associate
// through purchase_order_licenses; the relationship is many-to-many.
type PurchaseOrder struct {
	ID           string    `db:"id" json:"id"`
	PoName       string    `db:"po_name" json:"poName"`
	PurchaseDate time.Time `db:"purchase_date" json:"purchaseDate"`
	CustomerID   string    `db:"customer_id" json:"customerId"`
	IsClosed     bool      `db:"is_closed" json:"isClosed"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// PurchaseOrderLicense is a single join row linking a license to a purchase
// order with a contracted duration in years (0 = perpetual). The same pair
// may appear in several rows; renewals add rows rather than updating them.
type PurchaseOrderLicense struct {
	ID              string `db:"id" json:"id"`
	PurchaseOrderID string `db:"purchase_order_id" json:"purchaseOrderId"`
	LicenseID       string `db:"license_id" json:"licenseId"`
	Duration        int    `db:"duration" json:"duration"`
}

// PurchaseOrderWithLicenses is a PurchaseOrder with its aggregated license
// list as returned by the purchase-order listing endpoint.
type PurchaseOrderWithLicenses struct {
	PurchaseOrder
	Licenses []LicenseWithDuration `json:"licenses"`
}
