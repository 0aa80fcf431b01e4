package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	schedulerMeterName = "reminder.scheduler"
)

type SchedulerMetrics struct {
	requestsScheduled   metric.Int64Counter
	requestsRescheduled metric.Int64Counter
	requestsFailed      metric.Int64Counter
	eventsReceived      metric.Int64Counter
	balanceDuration     metric.Float64Histogram
	persistDuration     metric.Float64Histogram
	backgroundRuns      metric.Int64Counter
}

func NewSchedulerMetrics() (*SchedulerMetrics, error) {
	meter := otel.Meter(schedulerMeterName)

	requestsScheduled, err := meter.Int64Counter(
		"reminder_requests_scheduled_total",
		metric.WithDescription("Total number of schedule requests admitted"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsRescheduled, err := meter.Int64Counter(
		"reminder_requests_rescheduled_total",
		metric.WithDescription("Total number of requests moved off their original day"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	requestsFailed, err := meter.Int64Counter(
		"reminder_requests_failed_total",
		metric.WithDescription("Total number of requests dropped by admission control"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	eventsReceived, err := meter.Int64Counter(
		"reminder_delivery_events_total",
		metric.WithDescription("Delivery and interaction events received from the bridge"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	balanceDuration, err := meter.Float64Histogram(
		"reminder_balance_duration_seconds",
		metric.WithDescription("Time spent in load-balance passes"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5,
		),
	)
	if err != nil {
		return nil, err
	}

	persistDuration, err := meter.Float64Histogram(
		"reminder_persist_duration_seconds",
		metric.WithDescription("Time spent writing state to the backing stores"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
		),
	)
	if err != nil {
		return nil, err
	}

	backgroundRuns, err := meter.Int64Counter(
		"reminder_background_runs_total",
		metric.WithDescription("Background job runs by kind and outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerMetrics{
		requestsScheduled:   requestsScheduled,
		requestsRescheduled: requestsRescheduled,
		requestsFailed:      requestsFailed,
		eventsReceived:      eventsReceived,
		balanceDuration:     balanceDuration,
		persistDuration:     persistDuration,
		backgroundRuns:      backgroundRuns,
	}, nil
}

func (m *SchedulerMetrics) RecordScheduled(ctx context.Context, reminderType, priority string) {
	m.requestsScheduled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", reminderType),
		attribute.String("priority", priority),
	))
}

func (m *SchedulerMetrics) RecordRescheduled(ctx context.Context, count int) {
	m.requestsRescheduled.Add(ctx, int64(count))
}

func (m *SchedulerMetrics) RecordFailed(ctx context.Context, count int) {
	m.requestsFailed.Add(ctx, int64(count))
}

func (m *SchedulerMetrics) RecordEvent(ctx context.Context, kind string) {
	m.eventsReceived.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

func (m *SchedulerMetrics) RecordBalanceDuration(ctx context.Context, d time.Duration) {
	m.balanceDuration.Record(ctx, d.Seconds())
}

func (m *SchedulerMetrics) RecordPersistDuration(ctx context.Context, d time.Duration) {
	m.persistDuration.Record(ctx, d.Seconds())
}

func (m *SchedulerMetrics) RecordBackgroundRun(ctx context.Context, kind, outcome string) {
	m.backgroundRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}
