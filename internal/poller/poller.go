package poller

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"github.com/DynastyTech/fusion-aura-sub001/internal/session"
	"github.com/DynastyTech/fusion-aura-sub001/internal/signal"
)

// GuestClearer is the slice of the guest store the poller needs.
type GuestClearer interface {
	Clear(ctx context.Context)
}

// Poller consumes checkout events from the outbox topic. A completed
// checkout means the server emptied the cart out from under this edge, so
// the local guest copy is dropped and the storage-changed signal fires for
// the syncer to re-derive its count. This is the cross-context propagation
// path; same-process writers self-notify through the cart-changed signal.
type Poller struct {
	reader *kafka.Reader
	sess   *session.Store
	guest  GuestClearer
	bus    *signal.Bus
}

func New(sess *session.Store, guest GuestClearer, bus *signal.Bus, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    "checkout-outbox",
		GroupID:  "storefront-edge",
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{reader: reader, sess: sess, guest: guest, bus: bus}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := p.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("error reading checkout message: %v", err)
			}
			continue
		}
		p.handleMessage(ctx, m.Value)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		log.Printf("error closing checkout reader: %v", err)
	}
}

// handleMessage applies one checkout event. Malformed payloads are logged
// and skipped; the stream must keep moving.
func (p *Poller) handleMessage(ctx context.Context, value []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(value, &payload); err != nil {
		log.Printf("error parsing checkout message: %v", err)
		return
	}
	userID, ok := payload["user_id"].(string)
	if !ok {
		log.Printf("checkout message missing or invalid user_id")
		return
	}

	if p.sess.Identity().ID == userID {
		p.guest.Clear(ctx)
	}
	p.bus.Publish(signal.StorageChanged)
}
