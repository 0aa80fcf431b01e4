package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/service/analytics"
)

type AnalyticsHandler struct {
	engine *analytics.Engine
}

func NewAnalyticsHandler(engine *analytics.Engine) *AnalyticsHandler {
	return &AnalyticsHandler{engine: engine}
}

// HandleSnapshot returns the current analytics snapshot.
func (h *AnalyticsHandler) HandleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Generate())
}

// HandleEffectiveness returns per-type effectiveness scores together with the
// learned optimal delivery slot.
func (h *AnalyticsHandler) HandleEffectiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"optimal_timing": h.engine.OptimalTiming(),
		"types":          h.engine.EffectivenessReport(),
	})
}
