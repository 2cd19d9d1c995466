package cart

import (
	"context"

	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
	"github.com/DynastyTech/fusion-aura-sub001/internal/guestcart"
	"github.com/DynastyTech/fusion-aura-sub001/internal/remote"
	"github.com/DynastyTech/fusion-aura-sub001/internal/session"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
)

// RemoteAPI is the slice of the remote client the mutator needs.
type RemoteAPI interface {
	AddItem(ctx context.Context, productID string, quantity int) remote.Result[domain.CartPayload]
}

// Outcome tells the caller what to do after an add: send the user to the
// cart view, or show them the failure message.
type Outcome struct {
	Navigate bool
	Message  string
}

// Mutator is the add-to-cart entry point. Exactly one backend is written
// per invocation: the remote cart when a credential is present, the guest
// store otherwise. Never both. If the session expires between the check and
// the write, the add lands in the backend chosen at check time; that window
// is accepted.
type Mutator struct {
	sess   *session.Store
	remote RemoteAPI
	guest  *guestcart.Store
	bus    *signal.Bus
}

func NewMutator(sess *session.Store, remoteAPI RemoteAPI, guest *guestcart.Store, bus *signal.Bus) *Mutator {
	return &Mutator{sess: sess, remote: remoteAPI, guest: guest, bus: bus}
}

// Add puts quantity of the product into the cart of the current mode and
// broadcasts the cart-changed signal so the syncer re-derives its count.
// A failed remote add surfaces the server's message and does not navigate;
// a failed add is actionable, unlike a failed read.
func (m *Mutator) Add(ctx context.Context, product domain.Product, quantity int) Outcome {
	if m.sess.Authenticated() {
		result := m.remote.AddItem(ctx, product.ID, quantity)
		if !result.Success {
			return Outcome{Message: result.Err.Message}
		}
		m.bus.Publish(signal.CartChanged)
		return Outcome{Navigate: true}
	}

	m.guest.Add(ctx, product, quantity)
	m.bus.Publish(signal.CartChanged)
	return Outcome{Navigate: true}
}
