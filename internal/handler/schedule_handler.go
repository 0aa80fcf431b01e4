package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/service/schedule"
)

type ScheduleHandler struct {
	scheduleService *schedule.Service
	itemSource      domain.ItemSource
}

func NewScheduleHandler(scheduleService *schedule.Service, itemSource domain.ItemSource) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		itemSource:      itemSource,
	}
}

type scheduleRequestBody struct {
	ItemID             string            `json:"item_id" binding:"required"`
	Type               string            `json:"type" binding:"required"`
	ScheduledDate      time.Time         `json:"scheduled_date" binding:"required"`
	Title              string            `json:"title"`
	Body               string            `json:"body"`
	Priority           string            `json:"priority"`
	Recurrence         string            `json:"recurrence"`
	CustomIntervalDays int               `json:"custom_interval_days"`
	Metadata           map[string]string `json:"metadata"`
}

type batchScheduleBody struct {
	Requests []scheduleRequestBody `json:"requests"`
	ItemIDs  []string              `json:"item_ids"`
}

// HandleScheduleBatch admits a batch of schedule requests. The batch may mix
// caller-built requests with item IDs to be resolved against the inventory
// service and scheduled from their warranty dates.
func (h *ScheduleHandler) HandleScheduleBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var body batchScheduleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if len(body.Requests) == 0 && len(body.ItemIDs) == 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "requests or item_ids must be provided")
		return
	}

	requests := make([]*domain.ScheduleRequest, 0, len(body.Requests))
	for _, rb := range body.Requests {
		req := domain.NewScheduleRequest(
			rb.ItemID,
			domain.ReminderType(rb.Type),
			rb.ScheduledDate,
			rb.Title,
			rb.Body,
			parsePriority(rb.Priority),
		)
		req.Recurrence = domain.RecurrenceInterval(rb.Recurrence)
		req.CustomIntervalDays = rb.CustomIntervalDays
		req.Metadata = rb.Metadata
		requests = append(requests, req)
	}

	result, err := h.scheduleService.ScheduleRequests(ctx, requests)
	if err != nil {
		if errors.Is(err, domain.ErrAuthorizationDenied) {
			respondError(c, http.StatusForbidden, "authorization_denied", "notification delivery is not authorized")
			return
		}
		slog.ErrorContext(ctx, "batch scheduling failed",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
		return
	}

	if len(body.ItemIDs) > 0 {
		items, err := h.itemSource.GetItems(ctx, body.ItemIDs)
		if err != nil {
			slog.ErrorContext(ctx, "failed to resolve items",
				slog.Int("item_ids", len(body.ItemIDs)),
				slog.String("error", err.Error()),
			)
			respondError(c, http.StatusBadGateway, "inventory_error", "failed to resolve items")
			return
		}
		itemResult, err := h.scheduleService.ScheduleItems(ctx, items)
		if err != nil {
			if errors.Is(err, domain.ErrAuthorizationDenied) {
				respondError(c, http.StatusForbidden, "authorization_denied", "notification delivery is not authorized")
				return
			}
			respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
			return
		}
		result.TotalRequests += itemResult.TotalRequests
		result.Scheduled += itemResult.Scheduled
		result.Rescheduled += itemResult.Rescheduled
		result.Failed += itemResult.Failed
		result.Errors = append(result.Errors, itemResult.Errors...)
	}

	slog.InfoContext(ctx, "batch scheduling complete",
		slog.Int("total", result.TotalRequests),
		slog.Int("scheduled", result.Scheduled),
		slog.Int("rescheduled", result.Rescheduled),
		slog.Int("failed", result.Failed),
	)
	c.JSON(http.StatusOK, result)
}

// HandleListActive returns the requests awaiting delivery.
func (h *ScheduleHandler) HandleListActive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"requests": h.scheduleService.ActiveRequests()})
}

// HandleCancel withdraws every active request for the (item, type) pair.
func (h *ScheduleHandler) HandleCancel(c *gin.Context) {
	ctx := c.Request.Context()
	itemID := c.Param("itemID")
	reminderType := domain.ReminderType(c.Param("type"))

	err := h.scheduleService.Cancel(ctx, itemID, reminderType)
	switch {
	case errors.Is(err, domain.ErrInvalidReminderType):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, domain.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "not_found", "no active request for item and type")
	case err != nil:
		slog.ErrorContext(ctx, "cancel failed",
			slog.String("item_id", itemID),
			slog.String("type", reminderType.String()),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
	default:
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

type snoozeBody struct {
	DurationMinutes int `json:"duration_minutes" binding:"required"`
}

// HandleSnooze defers the identified request by the given duration.
func (h *ScheduleHandler) HandleSnooze(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	var body snoozeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if body.DurationMinutes <= 0 {
		respondError(c, http.StatusBadRequest, "validation_error", "duration_minutes must be positive")
		return
	}

	replacement, err := h.scheduleService.Snooze(ctx, id, time.Duration(body.DurationMinutes)*time.Minute)
	switch {
	case errors.Is(err, domain.ErrRequestNotFound):
		respondError(c, http.StatusNotFound, "not_found", "no active request with that id")
	case err != nil:
		slog.ErrorContext(ctx, "snooze failed",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusInternalServerError, "processing_error", err.Error())
	default:
		c.JSON(http.StatusOK, replacement)
	}
}

func parsePriority(s string) domain.Priority {
	switch domain.Priority(s) {
	case domain.PriorityLow, domain.PriorityNormal, domain.PriorityHigh, domain.PriorityUrgent:
		return domain.Priority(s)
	default:
		return domain.PriorityNormal
	}
}

func respondError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"error":   errType,
		"message": message,
	})
}
