package dispatch

import (
	"context"
	"log/slog"

	"github.com/casavault/reminder-engine/internal/domain"
)

// NoopDispatcher stands in when no bridge is configured: submissions are
// logged and counted, never failed. Scheduling and persistence still work.
type NoopDispatcher struct{}

var _ domain.Dispatcher = (*NoopDispatcher)(nil)

func NewNoopDispatcher() *NoopDispatcher {
	return &NoopDispatcher{}
}

func (d *NoopDispatcher) Submit(ctx context.Context, payload *domain.Payload, trigger *domain.Trigger) error {
	slog.DebugContext(ctx, "bridge not configured, dropping submission",
		slog.String("identifier", payload.Identifier),
		slog.Time("trigger", trigger.Date),
	)
	return nil
}

func (d *NoopDispatcher) Cancel(ctx context.Context, identifier string) error {
	return nil
}
