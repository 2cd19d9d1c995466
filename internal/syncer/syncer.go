package syncer

import (
	"context"
	"sync"

	"github.com/DynastyTech/fusion-aura-sub001/internal/domain"
	"github.com/DynastyTech/fusion-aura-sub001/internal/remote"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
)

// State tracks settlement of the published count. There is no error state:
// a failed remote read degrades to the guest-derived count and still
// settles.
type State int

const (
	Unknown State = iota
	Syncing
	Settled
)

// RemoteCart is the slice of the remote client the syncer needs.
type RemoteCart interface {
	GetCart(ctx context.Context) remote.Result[domain.CartPayload]
}

// GuestCart is the slice of the guest store the syncer needs.
type GuestCart interface {
	Read(ctx context.Context) []domain.LineItem
}

// Session reports whether a credential is present.
type Session interface {
	Authenticated() bool
}

// Syncer derives the single authoritative cart item count from whichever
// backend owns the cart for the current session, and publishes it to
// subscribers. Concurrent refreshes race independently; the last one to
// resolve wins. That is a documented property, not a bug: refresh is
// idempotent and cheap, and ordering across independent triggers carries no
// meaning.
type Syncer struct {
	remote RemoteCart
	guest  GuestCart
	sess   Session
	bus    *signal.Bus

	mu    sync.Mutex
	state State
	count int
	subs  map[int]chan int
	next  int
}

func New(remoteCart RemoteCart, guest GuestCart, sess Session, bus *signal.Bus) *Syncer {
	return &Syncer{
		remote: remoteCart,
		guest:  guest,
		sess:   sess,
		bus:    bus,
		subs:   make(map[int]chan int),
	}
}

// Refresh re-derives the authoritative count and publishes it. In remote
// mode a failed API read falls back to the guest-derived count rather than
// publishing zero; a transient upstream failure must not visually empty the
// cart badge.
func (s *Syncer) Refresh(ctx context.Context) {
	s.mu.Lock()
	if s.state == Unknown {
		s.state = Syncing
	}
	s.mu.Unlock()

	if !s.sess.Authenticated() {
		s.publish(s.guestCount(ctx))
		return
	}

	result := s.remote.GetCart(ctx)
	if !result.Success {
		s.publish(s.guestCount(ctx))
		return
	}
	s.publish(deriveCount(result.Data))
}

func (s *Syncer) guestCount(ctx context.Context) int {
	count := 0
	for _, item := range s.guest.Read(ctx) {
		count += item.Quantity
	}
	return count
}

// publish replaces the settled count unconditionally and re-notifies every
// subscriber, same-value publishes included. No diffing, no debouncing.
func (s *Syncer) publish(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Settled
	s.count = count
	for _, ch := range s.subs {
		select {
		case ch <- count:
		default:
			// subscriber lagging; drop its stale pending value and
			// deliver the latest
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- count:
			default:
			}
		}
	}
}

// Subscribe registers for published counts. The returned func unsubscribes.
func (s *Syncer) Subscribe() (<-chan int, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan int, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Snapshot returns the most recently published count and the settlement
// state.
func (s *Syncer) Snapshot() (domain.Snapshot, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Snapshot{ItemCount: s.count}, s.state
}

// Run performs the initial refresh, then a full refresh for every storage
// or cart signal until the context is done. Both signal types trigger the
// identical path; there is no incremental update.
func (s *Syncer) Run(ctx context.Context) {
	storage, cancelStorage := s.bus.Subscribe(signal.StorageChanged)
	defer cancelStorage()
	cart, cancelCart := s.bus.Subscribe(signal.CartChanged)
	defer cancelCart()

	s.Refresh(ctx)

	for {
		select {
		case <-storage:
			s.Refresh(ctx)
		case <-cart:
			s.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}
