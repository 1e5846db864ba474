package notify

import (
	"context"
	"sync"
	"time"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

// Broker is an in-process Bus. Delivery never blocks the publisher: when a
// subscriber's buffer is full the change is dropped for that subscriber,
// which is safe because any change means "re-fetch everything".
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	next   uint64
	closed bool
	buffer int
}

type subscriber struct {
	filter Filter
	ch     chan Change
	cancel func()
}

// NewBroker creates an in-process broker.
func NewBroker() *Broker {
	return &Broker{
		subs:   make(map[uint64]*subscriber),
		buffer: DefaultBuffer,
	}
}

// Publish delivers c to every matching subscriber.
func (b *Broker) Publish(ctx context.Context, c Change) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for _, s := range b.subs {
		if !s.filter.Match(c) {
			continue
		}
		select {
		case s.ch <- c:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber. The subscription also ends when ctx is
// done.
func (b *Broker) Subscribe(ctx context.Context, f Filter) (<-chan Change, func(), error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, nil, ErrClosed
	}
	id := b.next
	b.next++
	s := &subscriber{filter: f, ch: make(chan Change, b.buffer)}

	var once sync.Once
	stop := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(stop)
			b.remove(id)
		})
	}
	s.cancel = cancel
	b.subs[id] = s
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-stop:
		}
	}()
	return s.ch, cancel, nil
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(s.ch)
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	cancels := make([]func(), 0, len(b.subs))
	for _, s := range b.subs {
		cancels = append(cancels, s.cancel)
	}
	b.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return nil
}
