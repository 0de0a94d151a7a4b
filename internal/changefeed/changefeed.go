// Package changefeed carries row-level job changes from Postgres to subscribers.
package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/chauffer-be/internal/domain"
)

// ContentType of encoded change events on the broker
const ContentType = "application/json"

// Subscription is a cancellable stream of change events
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Close() error
}

// Feed opens named subscriptions
type Feed interface {
	Subscribe(ctx context.Context, name string) (Subscription, error)
}

// Decode parses and validates a change event payload
func Decode(payload []byte) (domain.ChangeEvent, error) {
	var ev domain.ChangeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return domain.ChangeEvent{}, fmt.Errorf("malformed change event: %w", err)
	}

	if ev.Table != domain.JobsTable {
		return domain.ChangeEvent{}, fmt.Errorf("unexpected table %q", ev.Table)
	}

	switch ev.Kind {
	case domain.ChangeInsert, domain.ChangeUpdate, domain.ChangeDelete:
	default:
		return domain.ChangeEvent{}, fmt.Errorf("unknown change type %q", ev.Kind)
	}

	if ev.Row() == nil {
		return domain.ChangeEvent{}, fmt.Errorf("%s event without row image", ev.Kind)
	}

	return ev, nil
}

// Encode is the inverse of Decode
func Encode(ev domain.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}
