// Package background runs the recurring maintenance jobs: notification
// processing, warranty checks and analytics collection. Each run is bounded
// by the configured budget so a stuck dependency cannot wedge the scheduler.
package background

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/casavault/reminder-engine/internal/config"
	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/infra/store"
	"github.com/casavault/reminder-engine/internal/observability/metrics"
	"github.com/casavault/reminder-engine/internal/service/analytics"
	"github.com/casavault/reminder-engine/internal/service/schedule"
	"github.com/casavault/reminder-engine/internal/settings"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"

	// summaryThreshold is the minimum number of expiring items before the
	// warranty check consolidates them into one summary notification.
	summaryThreshold = 5
)

// Status summarizes the job registry for the status endpoint.
type Status struct {
	TotalTasks   int        `json:"total_tasks"`
	ActiveTasks  int        `json:"active_tasks"`
	ExpiredTasks int        `json:"expired_tasks"`
	LastUpdate   *time.Time `json:"last_update,omitempty"`
	Healthy      bool       `json:"healthy"`
}

// Store is the slice of the persistence layer the coordinator drives
// directly: the task registry, the integrity surface, and the settings
// snapshot. State mutation stays with the schedule service.
type Store interface {
	SaveTask(ctx context.Context, task *domain.TaskInfo) error
	LoadTasks(ctx context.Context) (map[string]*domain.TaskInfo, error)
	ValidateIntegrity(ctx context.Context) *domain.IntegrityReport
	RecreateStorage(ctx context.Context) error
	settings.Store
}

type Coordinator struct {
	cfg        *config.CoordinatorConfig
	cron       *cron.Cron
	schedule   *schedule.Service
	store      Store
	items      domain.ItemSource
	analytics  *analytics.Engine
	settings   *settings.Settings
	dispatcher domain.Dispatcher
	metrics    *metrics.SchedulerMetrics
}

func NewCoordinator(
	cfg *config.CoordinatorConfig,
	scheduleService *schedule.Service,
	st Store,
	items domain.ItemSource,
	analyticsEngine *analytics.Engine,
	s *settings.Settings,
	dispatcher domain.Dispatcher,
	schedulerMetrics *metrics.SchedulerMetrics,
) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		cron:       cron.New(),
		schedule:   scheduleService,
		store:      st,
		items:      items,
		analytics:  analyticsEngine,
		settings:   s,
		dispatcher: dispatcher,
		metrics:    schedulerMetrics,
	}
}

// Start registers the three maintenance jobs and begins running them. The
// base context outlives individual runs; per-run contexts carry the budget.
func (c *Coordinator) Start(ctx context.Context) error {
	jobs := []struct {
		kind    domain.TaskKind
		cadence string
		run     func(context.Context) error
	}{
		{domain.TaskNotificationProcessing, c.cfg.ProcessingCadence, c.runProcessing},
		{domain.TaskWarrantyCheck, c.cfg.WarrantyCadence, c.runWarrantyCheck},
		{domain.TaskAnalyticsCollection, c.cfg.AnalyticsCadence, c.runAnalytics},
	}

	for _, job := range jobs {
		job := job
		if _, err := c.cron.AddFunc(job.cadence, func() {
			c.runJob(ctx, job.kind, job.cadence, job.run)
		}); err != nil {
			return fmt.Errorf("failed to register %s job: %w", job.kind, err)
		}
		// Seed the registry so the status endpoint reports scheduled jobs
		// before their first run.
		if err := c.registerTask(ctx, job.kind, job.cadence); err != nil {
			slog.WarnContext(ctx, "failed to register task",
				slog.String("kind", job.kind.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	c.cron.Start()
	slog.InfoContext(ctx, "background coordinator started",
		slog.String("processing_cadence", c.cfg.ProcessingCadence),
		slog.String("warranty_cadence", c.cfg.WarrantyCadence),
		slog.String("analytics_cadence", c.cfg.AnalyticsCadence),
		slog.Duration("run_budget", c.cfg.RunBudget),
	)
	return nil
}

// Stop halts the cron loop and waits for in-flight runs to finish.
func (c *Coordinator) Stop() {
	<-c.cron.Stop().Done()
}

// runJob wraps one job invocation: run budget, outcome metrics, and registry
// refresh. A failed run is logged and the job stays scheduled; the next tick
// retries it.
func (c *Coordinator) runJob(ctx context.Context, kind domain.TaskKind, cadence string, run func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, c.cfg.RunBudget)
	defer cancel()

	start := time.Now()
	err := run(runCtx)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailure
		slog.ErrorContext(runCtx, "background job failed",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
	} else {
		slog.InfoContext(runCtx, "background job complete",
			slog.String("kind", kind.String()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
	if c.metrics != nil {
		c.metrics.RecordBackgroundRun(ctx, kind.String(), outcome)
	}

	// Refresh the task record regardless of outcome so the registry keeps
	// reflecting that the job is alive and scheduled.
	if err := c.registerTask(ctx, kind, cadence); err != nil {
		slog.WarnContext(ctx, "failed to refresh task",
			slog.String("kind", kind.String()),
			slog.String("error", err.Error()),
		)
	}
}

// registerTask upserts the job's registry record. The record expires two
// cadences out, so one missed run degrades status before alarms fire.
func (c *Coordinator) registerTask(ctx context.Context, kind domain.TaskKind, cadence string) error {
	now := time.Now().UTC()
	return c.store.SaveTask(ctx, &domain.TaskInfo{
		Identifier:     kind.String(),
		Kind:           kind,
		CreatedAt:      now,
		ExpirationTime: now.Add(2 * cadenceInterval(cadence)),
		Metadata:       map[string]string{"cadence": cadence},
	})
}

// cadenceInterval extracts the interval from an "@every" cron spec, falling
// back to a day for other spec forms.
func cadenceInterval(cadence string) time.Duration {
	if rest, ok := strings.CutPrefix(cadence, "@every "); ok {
		if d, err := time.ParseDuration(rest); err == nil {
			return d
		}
	}
	return 24 * time.Hour
}

// runProcessing is the main maintenance pass: sweep expired requests, check
// and repair persisted-state integrity, rebalance the pending set, and drop
// stale registry entries.
func (c *Coordinator) runProcessing(ctx context.Context) error {
	if _, _, err := c.schedule.ProcessExpired(ctx); err != nil {
		return fmt.Errorf("expired sweep: %w", err)
	}

	report := c.store.ValidateIntegrity(ctx)
	if err := c.repair(ctx, report); err != nil {
		return fmt.Errorf("integrity repair: %w", err)
	}

	if _, err := c.schedule.RebalancePending(ctx); err != nil {
		return fmt.Errorf("rebalance: %w", err)
	}

	if _, err := c.schedule.PerformCleanup(ctx); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	return nil
}

// repair applies the known fixes for integrity findings. State-touching
// repairs go through the schedule service so they cannot overwrite a
// concurrent foreground persist. Unrecognized warnings are left alone.
func (c *Coordinator) repair(ctx context.Context, report *domain.IntegrityReport) error {
	for _, issue := range report.Issues {
		if strings.HasPrefix(issue, store.IssueMissingStorage) {
			if err := c.store.RecreateStorage(ctx); err != nil {
				return err
			}
		}
	}
	for _, warning := range report.Warnings {
		if strings.HasPrefix(warning, store.WarningPhantomActivity) {
			if err := c.schedule.ClearSchedulingFlag(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// runWarrantyCheck pulls items whose warranties expire inside the configured
// window and schedules reminders for them. A large batch additionally gets
// one consolidated summary notification instead of relying on per-item noise.
func (c *Coordinator) runWarrantyCheck(ctx context.Context) error {
	window := time.Duration(c.cfg.WarrantyWindowDays) * 24 * time.Hour
	items, err := c.items.GetItemsExpiringWithin(ctx, window)
	if err != nil {
		return fmt.Errorf("fetch expiring items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	result, err := c.schedule.ScheduleItems(ctx, items)
	if err != nil {
		return fmt.Errorf("schedule expiring items: %w", err)
	}
	slog.InfoContext(ctx, "warranty check scheduled reminders",
		slog.Int("items", len(items)),
		slog.Int("scheduled", result.Scheduled),
		slog.Int("rescheduled", result.Rescheduled),
		slog.Int("failed", result.Failed),
	)

	if len(items) >= summaryThreshold && c.settings.SummaryEnabled() {
		return c.submitSummary(ctx, len(items))
	}
	return nil
}

// submitSummary sends the consolidated warranty digest at the next optimal
// delivery slot. One digest per calendar day; resubmitting the same
// identifier replaces the pending one at the bridge.
func (c *Coordinator) submitSummary(ctx context.Context, itemCount int) error {
	fireAt := c.nextOptimalSlot(time.Now())
	payload := &domain.Payload{
		Identifier: "warranty-summary-" + domain.DayKey(fireAt),
		Title:      "Warranties expiring soon",
		Body: fmt.Sprintf("%d items have warranties expiring in the next %d days. Review them to avoid losing coverage.",
			itemCount, c.cfg.WarrantyWindowDays),
		Sound:    "default",
		Badge:    itemCount,
		Category: "warranty_summary",
	}
	if err := c.dispatcher.Submit(ctx, payload, &domain.Trigger{Date: fireAt}); err != nil {
		return fmt.Errorf("submit summary: %w", err)
	}
	slog.InfoContext(ctx, "warranty summary submitted",
		slog.Int("items", itemCount),
		slog.Time("fire_at", fireAt),
	)
	return nil
}

func (c *Coordinator) nextOptimalSlot(now time.Time) time.Time {
	slot := time.Date(now.Year(), now.Month(), now.Day(), c.settings.OptimalHour(), 0, 0, 0, now.Location())
	if !slot.After(now) {
		slot = slot.AddDate(0, 0, 1)
	}
	return slot
}

// runAnalytics regenerates the snapshot, feeds the learned timing back into
// settings, and persists the updated preferences.
func (c *Coordinator) runAnalytics(ctx context.Context) error {
	snap := c.analytics.Generate()
	slog.InfoContext(ctx, "analytics snapshot generated",
		slog.Int("total_scheduled", snap.TotalScheduled),
		slog.Int("total_delivered", snap.TotalDelivered),
		slog.Int("total_interacted", snap.TotalInteracted),
	)

	c.analytics.RefreshSettings()
	if err := c.settings.Save(ctx, c.store); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// Status reports the job registry's health: healthy means every registered
// job is alive and at least one is.
func (c *Coordinator) Status(ctx context.Context) (*Status, error) {
	tasks, err := c.store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	status := &Status{TotalTasks: len(tasks)}
	for _, task := range tasks {
		if task.IsExpired(now) {
			status.ExpiredTasks++
		} else {
			status.ActiveTasks++
		}
		if status.LastUpdate == nil || task.CreatedAt.After(*status.LastUpdate) {
			created := task.CreatedAt
			status.LastUpdate = &created
		}
	}
	status.Healthy = status.ExpiredTasks == 0 && status.ActiveTasks > 0
	return status, nil
}
