package domain

import "github.com/shopspring/decimal"

// Product is the catalog snapshot frozen into a guest line item at add time.
// It is a denormalized copy, not a live reference; the catalog may move on
// without it.
type Product struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Slug   string          `json:"slug"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images,omitempty"`
}

// LineItem is one entry of the guest cart. ProductID is the unique key
// within the cart.
type LineItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// RemoteItem is a server-owned cart record. The edge only reads quantities
// from it, never mutates it directly.
type RemoteItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartPayload is the body of GET /api/cart. ItemCount is optional; when the
// server omits it the count is derived from Items.
type CartPayload struct {
	Items     []RemoteItem `json:"items"`
	ItemCount *int         `json:"itemCount,omitempty"`
}

// Snapshot is the single derived value the syncer publishes. Recomputed on
// every refresh, never persisted.
type Snapshot struct {
	ItemCount int `json:"item_count"`
}
