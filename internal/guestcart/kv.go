package guestcart

import (
	"context"
	"errors"
)

// Key is the single fixed key the guest cart lives under.
const Key = "fusionaura_guest_cart"

var ErrNotFound = errors.New("guest cart not found")

// KV is the persistent key-value layer under the guest cart. Implementations
// operate on the one fixed key; the Store above them owns serialization.
type KV interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, value []byte) error
	Delete(ctx context.Context) error
}
