package signal

import "sync"

// Topic identifies a broadcast channel. Signals carry no payload; receipt
// means "re-derive whatever you depend on".
type Topic int

const (
	// StorageChanged fires when externally shared state changed out from
	// under us (session invalidated, another writer touched storage).
	StorageChanged Topic = iota

	// CartChanged fires after a cart mutation in this process. Writers must
	// self-notify: a storage-level change does not reach its own writer.
	CartChanged
)

// Bus is a fire-and-forget broadcast bus with typed subscriptions. Publish
// never blocks; a subscriber that has not drained its pending signal does
// not get a second one queued, which is fine because every signal means the
// same thing: refresh.
type Bus struct {
	mu   sync.Mutex
	subs map[Topic]map[int]chan struct{}
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic]map[int]chan struct{})}
}

// Subscribe registers for a topic. The returned func unsubscribes; calling
// it more than once is safe.
func (b *Bus) Subscribe(topic Topic) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]chan struct{})
	}
	id := b.next
	b.next++
	ch := make(chan struct{}, 1)
	b.subs[topic][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[topic], id)
	}
	return ch, cancel
}

// Publish notifies all subscribers of the topic.
func (b *Bus) Publish(topic Topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
			// signal already pending
		}
	}
}
