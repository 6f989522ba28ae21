package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeBidPlaced        = "bid.placed"
	TypeListingActivated = "listing.activated"
	TypeListingClosed    = "listing.closed"
)

// Event is the wire shape published on every lifecycle change and bid.
type Event struct {
	Type       string    `json:"type"`
	ListingID  uuid.UUID `json:"listing_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event)
	Close() error
}

// KafkaPublisher writes events asynchronously through a buffered inbox so
// slow brokers never sit on the bid path.
type KafkaPublisher struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	p := &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.closeCh)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			slog.Error("[EVENTS] failed to publish", "error", err)
		}
	}
	_ = p.w.Close()
}

func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) {
	value, err := json.Marshal(evt)
	if err != nil {
		slog.Error("[EVENTS] failed to marshal event", "type", evt.Type, "error", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(evt.ListingID.String()),
		Value: value,
		Time:  evt.OccurredAt,
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		slog.Warn("[EVENTS] publisher closed, dropping event", "type", evt.Type, "listing_id", evt.ListingID)
		return
	}
	select {
	case p.inbox <- msg:
	default:
		// inbox full; drop rather than stall the caller
		slog.Warn("[EVENTS] inbox full, dropping event", "type", evt.Type, "listing_id", evt.ListingID)
	}
}

// Close drains buffered events and shuts the writer down. Publishes
// racing or following a Close are dropped, never a panic. Safe to call
// more than once.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	<-p.closeCh
	return nil
}

// NopPublisher is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, evt Event) {}
func (NopPublisher) Close() error                           { return nil }
