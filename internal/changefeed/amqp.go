package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cuongbtq/chauffer-be/internal/domain"
	"github.com/cuongbtq/chauffer-be/shared/rabbitmq"
)

// AMQPFeed subscribes to the change fanout exchange; each subscription gets its own queue
type AMQPFeed struct {
	client *rabbitmq.Client
	buffer int
	logger *slog.Logger
}

func NewAMQPFeed(client *rabbitmq.Client, buffer int, logger *slog.Logger) *AMQPFeed {
	if buffer <= 0 {
		buffer = 16
	}
	return &AMQPFeed{client: client, buffer: buffer, logger: logger}
}

func (f *AMQPFeed) Subscribe(ctx context.Context, name string) (Subscription, error) {
	sub, err := f.client.Subscribe(name)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe %s: %w", name, err)
	}

	return newDeliverySubscription(ctx, name, sub.Deliveries(), sub.Close, f.buffer, f.logger), nil
}

type deliverySubscription struct {
	events chan domain.ChangeEvent
	cancel context.CancelFunc
	done   chan struct{}
	close  func() error
	once   sync.Once
	err    error
}

func newDeliverySubscription(
	ctx context.Context,
	name string,
	deliveries <-chan amqp.Delivery,
	closeFn func() error,
	buffer int,
	logger *slog.Logger,
) *deliverySubscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &deliverySubscription{
		events: make(chan domain.ChangeEvent, buffer),
		cancel: cancel,
		done:   make(chan struct{}),
		close:  closeFn,
	}

	logger = logger.With(slog.String("subscription", name))
	go s.pump(ctx, deliveries, logger)

	return s
}

func (s *deliverySubscription) pump(ctx context.Context, deliveries <-chan amqp.Delivery, logger *slog.Logger) {
	defer close(s.done)
	defer close(s.events)

	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Warn("Change feed delivery channel closed")
				return
			}

			ev, err := Decode(d.Body)
			if err != nil {
				logger.Warn("Dropping change event", slog.Any("error", err))
				continue
			}

			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *deliverySubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *deliverySubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.err = s.close()
	})
	return s.err
}
