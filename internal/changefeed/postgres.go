package changefeed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
)

// Notifier is the subset of *pq.Listener the source uses
type Notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// PGSource reads change payloads from a Postgres LISTEN channel
type PGSource struct {
	listener     Notifier
	channel      string
	pingInterval time.Duration
	logger       *slog.Logger
}

func NewPGSource(listener Notifier, channel string, logger *slog.Logger) *PGSource {
	return &PGSource{
		listener:     listener,
		channel:      channel,
		pingInterval: 90 * time.Second,
		logger:       logger.With(slog.String("channel", channel)),
	}
}

// Run listens on the channel and hands each payload to handle until ctx is done
func (s *PGSource) Run(ctx context.Context, handle func(payload []byte)) error {
	if err := s.listener.Listen(s.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.channel, err)
	}

	s.logger.Info("Listening for job changes")

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	notifications := s.listener.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Change source stopping")
			return ctx.Err()

		case n, ok := <-notifications:
			if !ok {
				return fmt.Errorf("listener on %s closed", s.channel)
			}
			// lib/pq sends nil after a reconnect; changes during the gap are lost
			if n == nil {
				s.logger.Warn("Listener reconnected, notifications may have been missed")
				continue
			}
			handle([]byte(n.Extra))

		case <-ticker.C:
			if err := s.listener.Ping(); err != nil {
				s.logger.Warn("Listener ping failed", slog.Any("error", err))
			}
		}
	}
}

// Close releases the listener connection
func (s *PGSource) Close() error {
	return s.listener.Close()
}
