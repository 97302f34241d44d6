// Package events is the in-process publish/subscribe bus behind the admin
// live-refresh stream.
//
// Delivery is best-effort and at-most-once: a subscriber only sees events
// broadcast while it is registered, and a full subscriber buffer drops the
// frame. Clients that miss events re-fetch state from the REST API.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"storefront/internal/logging"
	"storefront/internal/metrics"
)

const (
	TypeProductsUpdated  = "products.updated"
	TypeOrdersUpdated    = "orders.updated"
	TypeProfilesUpdated  = "profiles.updated"
	TypeKnowledgeUpdated = "knowledge.updated"

	defaultBuffer = 16
	sinkTimeout   = 5 * time.Second
)

type Event struct {
	ID   string      `json:"id"`
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

// Sink receives a copy of every broadcast, e.g. to fan out across instances.
type Sink interface {
	Publish(ctx context.Context, evt Event, payload []byte) error
	Close() error
}

// Subscriber is owned by the connection that created it.
type Subscriber struct {
	ID string
	C  <-chan sse.Event
	ch chan sse.Event
}

type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	sink   Sink
	buffer int
	closed bool
}

type Option func(*Bus)

func WithSink(s Sink) Option {
	return func(b *Bus) { b.sink = s }
}

func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{
		subs:   make(map[string]*Subscriber),
		buffer: defaultBuffer,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe() *Subscriber {
	ch := make(chan sse.Event, b.buffer)
	sub := &Subscriber{ID: uuid.NewString(), C: ch, ch: ch}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return sub
	}
	b.subs[sub.ID] = sub
	n := len(b.subs)
	b.mu.Unlock()

	metrics.SSESubscribers.Set(float64(n))
	logging.Debug().Str("subscriber", sub.ID).Int("total", n).Msg("event subscriber added")
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call twice.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if _, ok := b.subs[sub.ID]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.subs, sub.ID)
	close(sub.ch)
	n := len(b.subs)
	b.mu.Unlock()

	metrics.SSESubscribers.Set(float64(n))
	logging.Debug().Str("subscriber", sub.ID).Int("total", n).Msg("event subscriber removed")
}

func (b *Bus) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Broadcast encodes evt once and offers it to every current subscriber
// without blocking. It returns how many subscribers accepted the frame.
func (b *Bus) Broadcast(ctx context.Context, evt Event) (int, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return 0, err
	}
	frame := sse.Event{Id: evt.ID, Event: evt.Type, Data: string(payload)}

	delivered := 0
	b.mu.RLock()
	for _, sub := range b.subs {
		select {
		case sub.ch <- frame:
			delivered++
		default:
			metrics.EventsDropped.Inc()
			logging.Warn().Str("subscriber", sub.ID).Str("type", evt.Type).Msg("subscriber buffer full, event dropped")
		}
	}
	b.mu.RUnlock()

	metrics.EventsBroadcast.WithLabelValues(evt.Type).Inc()

	if b.sink != nil {
		go b.publishToSink(evt, payload)
	}
	return delivered, nil
}

// Publish is a fire-and-forget Broadcast for mutation handlers.
func (b *Bus) Publish(evtType string, data interface{}) {
	if b == nil {
		return
	}
	if _, err := b.Broadcast(context.Background(), Event{Type: evtType, Data: data}); err != nil {
		logging.Error().Err(err).Str("type", evtType).Msg("event broadcast failed")
	}
}

func (b *Bus) publishToSink(evt Event, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := b.sink.Publish(ctx, evt, payload); err != nil {
		logging.Warn().Err(err).Str("type", evt.Type).Msg("event sink publish failed")
	}
}

// Close ends every open stream and releases the sink. Subscribing after
// Close yields an already-closed channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.mu.Unlock()
	metrics.SSESubscribers.Set(0)

	if b.sink != nil {
		return b.sink.Close()
	}
	return nil
}
