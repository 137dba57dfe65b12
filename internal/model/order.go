package model

import (
	"time"
)

// Order statuses. "new" is reserved for draft orders mirroring an
// in-progress cart; real orders start at "pending".
const (
	OrderStatusNew        = "new"
	OrderStatusPending    = "pending"
	OrderStatusPaid       = "paid"
	OrderStatusProcessing = "processing"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"
)

// KnownOrderStatus reports whether s is one of the lifecycle statuses.
func KnownOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusPending, OrderStatusPaid,
		OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CustomerInfo is the customer snapshot attached to an order.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Address is a shipping or billing address snapshot.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// OrderItem is a frozen snapshot of the product at order-creation time,
// not a live reference.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Currency  string  `json:"currency"`
}

// Order is immutable after creation except for Status, TrackingNumber
// and UpdatedAt. Draft orders (status "new") are the one exception:
// their items are overwritten on every cart sync.
type Order struct {
	ID              string       `json:"id" gorm:"type:varchar(64);primarykey"`
	TenantID        uint         `json:"tenant_id" gorm:"index;not null"`
	MarketID        uint         `json:"market_id" gorm:"index"`
	OrderNumber     string       `json:"order_number" gorm:"type:varchar(40);index"`
	Status          string       `json:"status" gorm:"type:varchar(20);index;not null"`
	Customer        CustomerInfo `json:"customer" gorm:"serializer:json"`
	ShippingAddress Address      `json:"shipping_address" gorm:"serializer:json"`
	BillingAddress  Address      `json:"billing_address" gorm:"serializer:json"`
	Items           []OrderItem  `json:"items" gorm:"serializer:json"`
	Subtotal        float64      `json:"subtotal"`
	Tax             float64      `json:"tax"`
	ShippingCost    float64      `json:"shipping_cost"`
	Total           float64      `json:"total"`
	TrackingNumber  string       `json:"tracking_number,omitempty" gorm:"type:varchar(40)"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
