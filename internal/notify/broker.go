package notify

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 16

// Broker delivers events to in-process subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan Event
	nextID      uint64
	seq         atomic.Uint64
	dropped     atomic.Uint64
	logger      *slog.Logger
}

// NewBroker returns an empty broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subscribers: make(map[uint64]chan Event),
		logger:      logger.With("component", "notify"),
	}
}

// Publish stamps the event with the next sequence number and delivers it.
func (b *Broker) Publish(ctx context.Context, event Event) error {
	event.Seq = b.seq.Add(1)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
			b.logger.WarnContext(ctx, "subscriber buffer full, dropping event",
				"subscriber", id,
				"event_type", event.Type,
				"seq", event.Seq,
			)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done, then closes the
// returned channel. A buffer below one uses the default size.
func (b *Broker) Subscribe(ctx context.Context, buffer int) <-chan Event {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subscribers, id)
		close(ch)
		b.mu.Unlock()
	}()
	return ch
}

// LastSeq returns the sequence number of the most recent event.
func (b *Broker) LastSeq() uint64 {
	return b.seq.Load()
}

// Dropped returns how many deliveries were skipped because a subscriber was
// not keeping up.
func (b *Broker) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
