package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/background"
	"github.com/casavault/reminder-engine/internal/service/schedule"
)

type StatusHandler struct {
	coordinator     *background.Coordinator
	scheduleService *schedule.Service
}

func NewStatusHandler(coordinator *background.Coordinator, scheduleService *schedule.Service) *StatusHandler {
	return &StatusHandler{
		coordinator:     coordinator,
		scheduleService: scheduleService,
	}
}

// HandleStatus reports the background job registry and the active request
// count.
func (h *StatusHandler) HandleStatus(c *gin.Context) {
	ctx := c.Request.Context()

	status, err := h.coordinator.Status(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load task registry",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to load task registry")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"background":      status,
		"active_requests": h.scheduleService.ActiveCount(),
	})
}
