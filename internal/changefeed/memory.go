package changefeed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// Broadcaster is an in-process Feed. Every subscription sees every published event.
type Broadcaster struct {
	buffer int
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*memorySubscription]struct{}
}

func NewBroadcaster(buffer int, logger *slog.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{
		buffer: buffer,
		logger: logger,
		subs:   make(map[*memorySubscription]struct{}),
	}
}

// Subscribe registers a subscription that ends on Close or when ctx is done
func (b *Broadcaster) Subscribe(ctx context.Context, name string) (Subscription, error) {
	sub := &memorySubscription{
		name:   name,
		events: make(chan domain.ChangeEvent, b.buffer),
		owner:  b,
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish delivers ev to every subscription. A full subscriber drops the event.
func (b *Broadcaster) Publish(ev domain.ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.events <- ev:
		default:
			b.logger.Warn("Subscriber buffer full, dropping change event",
				slog.String("subscription", sub.name),
			)
		}
	}
}

// PublishPayload decodes a raw payload and publishes it; malformed payloads are dropped
func (b *Broadcaster) PublishPayload(payload []byte) {
	ev, err := Decode(payload)
	if err != nil {
		b.logger.Warn("Dropping change event", slog.Any("error", err))
		return
	}
	b.Publish(ev)
}

// Subscribers returns the number of open subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type memorySubscription struct {
	name   string
	events chan domain.ChangeEvent
	owner  *Broadcaster
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.owner.mu.Lock()
		delete(s.owner.subs, s)
		close(s.events)
		s.owner.mu.Unlock()
	})
	return nil
}
