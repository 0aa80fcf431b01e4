package dispatch

import (
	"log/slog"

	"github.com/casavault/reminder-engine/internal/domain"
)

const feedBuffer = 256

// EventFeed decouples the bridge's asynchronous callbacks from analytics:
// inbound events are queued here and consumed by the schedule service, so
// delivery reporting never shares a call stack with scheduling.
type EventFeed struct {
	ch chan domain.DeliveryEvent
}

func NewEventFeed() *EventFeed {
	return &EventFeed{ch: make(chan domain.DeliveryEvent, feedBuffer)}
}

// Publish enqueues an event. A full queue drops the event rather than
// blocking the HTTP callback path; analytics tolerates gaps.
func (f *EventFeed) Publish(event domain.DeliveryEvent) {
	select {
	case f.ch <- event:
	default:
		slog.Warn("event feed full, dropping event",
			slog.String("kind", string(event.Kind)),
			slog.String("identifier", event.Identifier),
		)
	}
}

// Events is the consumer side of the feed.
func (f *EventFeed) Events() <-chan domain.DeliveryEvent {
	return f.ch
}

func (f *EventFeed) Close() {
	close(f.ch)
}
