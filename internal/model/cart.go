package model

import "time"

// CartItem always reflects live product data; SKU and price are
// re-resolved on every mutation.
type CartItem struct {
	ProductID string  `json:"product_id"`
	VariantID string  `json:"variant_id,omitempty"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Currency  string  `json:"currency"`
}

// Cart is transient, keyed by session id, and has no persistence of its
// own beyond the draft order that mirrors it.
type Cart struct {
	SessionID string     `json:"session_id"`
	TenantID  uint       `json:"tenant_id"`
	MarketID  uint       `json:"market_id"`
	Items     []CartItem `json:"items"`
	Subtotal  float64    `json:"subtotal"`
	Tax       float64    `json:"tax"`
	Total     float64    `json:"total"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
