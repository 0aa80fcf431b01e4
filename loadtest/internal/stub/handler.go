// Package stub is a stand-in for the engine's two external dependencies:
// the inventory service and the notification delivery bridge. Test drivers
// seed items, point the engine at the stub, and inspect what the bridge
// received.
package stub

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/domain"
)

type Handler struct {
	storage *Storage
}

func NewHandler(storage *Storage) *Handler {
	return &Handler{storage: storage}
}

// Register wires every stub route onto the router.
func (h *Handler) Register(r *gin.Engine) {
	r.POST("/admin/seed", h.HandleSeed)
	r.POST("/admin/reset", h.HandleReset)
	r.GET("/admin/notifications", h.HandleListNotifications)

	// Inventory service surface.
	r.GET("/api/v1/items", h.HandleGetItems)
	r.GET("/api/v1/items/expiring", h.HandleGetExpiringItems)

	// Delivery bridge surface.
	r.POST("/api/v1/notifications", h.HandleSubmit)
	r.DELETE("/api/v1/notifications/:id", h.HandleCancel)
}

func (h *Handler) HandleReset(c *gin.Context) {
	h.storage.Reset()
	slog.Info("stub reset")
	c.JSON(http.StatusOK, gin.H{"status": "reset complete"})
}

func (h *Handler) HandleSeed(c *gin.Context) {
	var req SeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	items := make([]*domain.Item, 0, len(req.Items))
	for _, seed := range req.Items {
		items = append(items, seed.toItem(now))
	}
	h.storage.PutItems(items)

	slog.Info("seeded items", slog.Int("count", len(items)))
	c.JSON(http.StatusOK, gin.H{"status": "seeded", "count": len(items)})
}

func (h *Handler) HandleGetItems(c *gin.Context) {
	idsParam := c.Query("ids")
	var ids []string
	if idsParam != "" {
		ids = strings.Split(idsParam, ",")
	}

	items := h.storage.GetItems(ids)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *Handler) HandleGetExpiringItems(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start time, expected RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end time, expected RFC3339"})
		return
	}

	items := h.storage.GetItemsExpiringBetween(start, end)
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type submitBody struct {
	Payload *domain.Payload `json:"payload" binding:"required"`
	Trigger *domain.Trigger `json:"trigger" binding:"required"`
}

func (h *Handler) HandleSubmit(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.storage.PutNotification(body.Payload, body.Trigger)
	slog.Info("notification accepted",
		slog.String("identifier", body.Payload.Identifier),
		slog.Time("trigger", body.Trigger.Date),
	)
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (h *Handler) HandleCancel(c *gin.Context) {
	identifier := c.Param("id")
	if !h.storage.RemoveNotification(identifier) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown identifier"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *Handler) HandleListNotifications(c *gin.Context) {
	notifications := h.storage.Notifications()
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}
