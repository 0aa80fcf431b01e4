package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/infra/dispatch"
)

type EventHandler struct {
	feed *dispatch.EventFeed
}

func NewEventHandler(feed *dispatch.EventFeed) *EventHandler {
	return &EventHandler{feed: feed}
}

type eventBody struct {
	Kind           string     `json:"kind" binding:"required"`
	Identifier     string     `json:"identifier" binding:"required"`
	Action         string     `json:"action"`
	ResponseTimeMs int64      `json:"response_time_ms"`
	OccurredAt     *time.Time `json:"occurred_at"`
}

// HandleEvent accepts one delivery-bridge callback and queues it for the
// schedule service. The response is always accepted; the bridge retries
// nothing, so rejecting an event would just lose it louder.
func (h *EventHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	var body eventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	kind := domain.EventKind(body.Kind)
	if kind != domain.EventDelivered && kind != domain.EventInteraction {
		respondError(c, http.StatusBadRequest, "validation_error", "kind must be delivered or interaction")
		return
	}

	occurredAt := time.Now().UTC()
	if body.OccurredAt != nil {
		occurredAt = *body.OccurredAt
	}

	h.feed.Publish(domain.DeliveryEvent{
		Kind:         kind,
		Identifier:   body.Identifier,
		Action:       domain.InteractionAction(body.Action),
		ResponseTime: time.Duration(body.ResponseTimeMs) * time.Millisecond,
		OccurredAt:   occurredAt,
	})

	slog.DebugContext(ctx, "delivery event queued",
		slog.String("kind", body.Kind),
		slog.String("identifier", body.Identifier),
	)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
