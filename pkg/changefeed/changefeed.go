// Package changefeed bridges the content store's change notifications to
// external consumers. Publishing is asynchronous: mutations enqueue events
// without blocking, and a background loop delivers them, logging failures
// instead of failing the mutation.
package changefeed

import (
	"context"
	"log/slog"
	"time"
)

// Event records that a collection changed.
type Event struct {
	Collection string    `json:"collection"`
	At         time.Time `json:"at"`
}

// Publisher delivers change events to one transport.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Feed buffers change notifications and fans them out to a publisher.
type Feed struct {
	publisher Publisher
	events    chan Event
	now       func() time.Time
}

// New builds a feed with the given buffer size. A full buffer drops events
// rather than stalling mutations; the feed is advisory, not a ledger.
func New(publisher Publisher, buffer int) *Feed {
	if buffer <= 0 {
		buffer = 256
	}
	return &Feed{
		publisher: publisher,
		events:    make(chan Event, buffer),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Notify enqueues a change event. Intended to be registered with the content
// store's OnChange; it never blocks the calling mutation.
func (f *Feed) Notify(collection string) {
	event := Event{Collection: collection, At: f.now()}
	select {
	case f.events <- event:
	default:
		slog.Warn("changefeed buffer full, dropping event", "collection", collection)
	}
}

// Run delivers buffered events until the context is canceled, then closes
// the publisher.
func (f *Feed) Run(ctx context.Context) error {
	defer f.publisher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-f.events:
			if err := f.publisher.Publish(ctx, event); err != nil {
				slog.Warn("changefeed publish failed", "collection", event.Collection, "err", err)
			}
		}
	}
}
