package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/settings"
)

type SettingsHandler struct {
	settings *settings.Settings
	store    settings.Store
}

func NewSettingsHandler(s *settings.Settings, store settings.Store) *SettingsHandler {
	return &SettingsHandler{settings: s, store: store}
}

// HandleGet returns the current preferences.
func (h *SettingsHandler) HandleGet(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Snapshot())
}

// HandlePut replaces the preferences. Invalid fields are normalized to their
// defaults rather than rejected, matching how stored snapshots load.
func (h *SettingsHandler) HandlePut(c *gin.Context) {
	ctx := c.Request.Context()

	var snap settings.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	h.settings.Replace(snap)
	if err := h.settings.Save(ctx, h.store); err != nil {
		slog.ErrorContext(ctx, "failed to persist settings",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", "failed to persist settings")
		return
	}

	c.JSON(http.StatusOK, h.settings.Snapshot())
}
