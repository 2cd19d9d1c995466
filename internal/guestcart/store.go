package guestcart

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/shopspring/decimal"

	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
)

// Store owns the guest cart line items. Every mutation rewrites the whole
// value under the single key; there is no partial-write state to observe.
//
// Storage failures never propagate: reads degrade to an empty cart, write
// failures are logged and swallowed. A guest whose storage is broken sees an
// empty cart, not an error page.
type Store struct {
	kv KV
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Read returns the stored line items. Missing key, unreachable storage and
// unparseable data all come back as an empty slice.
func (s *Store) Read(ctx context.Context) []domain.LineItem {
	data, err := s.kv.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Printf("guest cart read error: %v", err)
		}
		return nil
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		log.Printf("guest cart parse error: %v", err)
		return nil
	}
	return items
}

// Write replaces the entire stored sequence.
func (s *Store) Write(ctx context.Context, items []domain.LineItem) {
	data, err := json.Marshal(items)
	if err != nil {
		log.Printf("guest cart marshal error: %v", err)
		return
	}
	if err := s.kv.Set(ctx, data); err != nil {
		log.Printf("guest cart write error: %v", err)
	}
}

// Add increments the quantity of an existing line item for the product, or
// appends a new one with the product snapshot frozen as given. Quantity is
// not validated here; callers gate on quantity > 0.
func (s *Store) Add(ctx context.Context, product domain.Product, quantity int) {
	items := s.Read(ctx)
	for i := range items {
		if items[i].ProductID == product.ID {
			items[i].Quantity += quantity
			s.Write(ctx, items)
			return
		}
	}
	items = append(items, domain.LineItem{
		ProductID: product.ID,
		Quantity:  quantity,
		Product:   product,
	})
	s.Write(ctx, items)
}

// Update sets the item's quantity to the exact given value. A quantity of
// zero or less removes the item.
func (s *Store) Update(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		s.Remove(ctx, productID)
		return
	}
	items := s.Read(ctx)
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = quantity
			break
		}
	}
	s.Write(ctx, items)
}

// Remove deletes the line item for the product. No-op if absent.
func (s *Store) Remove(ctx context.Context, productID string) {
	items := s.Read(ctx)
	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.Write(ctx, kept)
}

// Clear deletes the stored collection entirely.
func (s *Store) Clear(ctx context.Context) {
	if err := s.kv.Delete(ctx); err != nil {
		log.Printf("guest cart clear error: %v", err)
	}
}

// Total sums quantity * price over all items. Prices come from the frozen
// snapshots; both JSON numbers and decimal strings decode into the price
// field, so no extra coercion happens here.
func (s *Store) Total(ctx context.Context) decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Read(ctx) {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// Count sums quantities over all items.
func (s *Store) Count(ctx context.Context) int {
	count := 0
	for _, item := range s.Read(ctx) {
		count += item.Quantity
	}
	return count
}
