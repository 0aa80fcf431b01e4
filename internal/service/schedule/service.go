// Package schedule is the single serialized gateway to scheduling state.
//
// All mutation of the active request set funnels through Service under one
// mutex, so foreground API calls and background maintenance never race on the
// persisted store. The pure calculators (priority, timing, balance) run inside
// that critical section but hold no state of their own.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/observability/metrics"
	"github.com/casavault/reminder-engine/internal/service/analytics"
	"github.com/casavault/reminder-engine/internal/service/balance"
	"github.com/casavault/reminder-engine/internal/service/priority"
	"github.com/casavault/reminder-engine/internal/service/timing"
	"github.com/casavault/reminder-engine/internal/settings"
)

// maxRecurrenceAdvance bounds how far a stale recurring date is walked
// forward to find its next future occurrence.
const maxRecurrenceAdvance = 120

type Service struct {
	mu sync.Mutex

	repo       domain.StateRepository
	dispatcher domain.Dispatcher
	settings   *settings.Settings

	priorityCalc *priority.Calculator
	timingCalc   *timing.Calculator
	recurrence   *timing.Recurrence
	balancer     *balance.Scheduler
	analytics    *analytics.Engine
	metrics      *metrics.SchedulerMetrics

	// active caches the persisted state's active requests per (itemID, type)
	// pair. One scheduling action may admit several requests for a pair (the
	// offset cascade); a later action for the same pair replaces them all.
	active map[string][]*domain.ScheduleRequest
	byID   map[string]*domain.ScheduleRequest
	state  *domain.State
}

func NewService(
	repo domain.StateRepository,
	dispatcher domain.Dispatcher,
	s *settings.Settings,
	analyticsEngine *analytics.Engine,
	schedulerMetrics *metrics.SchedulerMetrics,
) *Service {
	return &Service{
		repo:         repo,
		dispatcher:   dispatcher,
		settings:     s,
		priorityCalc: priority.NewCalculator(),
		timingCalc:   timing.NewCalculator(s),
		recurrence:   timing.NewRecurrence(),
		balancer:     balance.NewScheduler(s),
		analytics:    analyticsEngine,
		metrics:      schedulerMetrics,
		active:       make(map[string][]*domain.ScheduleRequest),
		byID:         make(map[string]*domain.ScheduleRequest),
		state:        domain.NewEmptyState(),
	}
}

// Load rebuilds the in-memory cache from the persisted state. Called once at
// startup, after store recovery.
func (s *Service) Load(ctx context.Context) error {
	state, err := s.repo.LoadState(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.active = make(map[string][]*domain.ScheduleRequest)
	s.byID = make(map[string]*domain.ScheduleRequest)
	for _, req := range state.Requests {
		s.byID[req.ID] = req
		if req.IsActive() {
			s.active[req.PairKey()] = append(s.active[req.PairKey()], req)
		}
	}

	slog.InfoContext(ctx, "schedule state loaded",
		slog.Int("requests", len(state.Requests)),
		slog.Int("active_pairs", len(s.active)),
	)
	return nil
}

// ScheduleItems computes candidate notifications for the given items and runs
// them through admission control, persistence and dispatch. Per-item failures
// never abort the batch.
func (s *Service) ScheduleItems(ctx context.Context, items []*domain.Item) (*balance.Result, error) {
	now := time.Now()

	candidates := make([]*domain.ScheduleRequest, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, s.buildItemCandidates(item, now)...)
	}

	return s.admit(ctx, candidates)
}

// ScheduleRequests admits caller-built requests (API surface). Validation
// failures reject individual requests, not the batch.
func (s *Service) ScheduleRequests(ctx context.Context, requests []*domain.ScheduleRequest) (*balance.Result, error) {
	now := time.Now()

	candidates := make([]*domain.ScheduleRequest, 0, len(requests))
	var prefailed []string
	for _, req := range requests {
		if err := s.validate(req, now); err != nil {
			prefailed = append(prefailed, fmt.Sprintf("request for item %s (%s): %v", req.ItemID, req.Type, err))
			continue
		}
		candidates = append(candidates, req)
	}

	result, err := s.admit(ctx, candidates)
	if err != nil {
		return result, err
	}

	result.TotalRequests += len(prefailed)
	result.Failed += len(prefailed)
	result.Errors = append(result.Errors, prefailed...)
	return result, nil
}

// validate applies the per-request checks. A recurring request with a stale
// date is advanced to its next future occurrence instead of being rejected.
func (s *Service) validate(req *domain.ScheduleRequest, now time.Time) error {
	if req.Title == "" {
		return domain.ErrEmptyTitle
	}
	if req.Body == "" {
		return domain.ErrEmptyBody
	}
	if !req.Type.IsValid() {
		return domain.ErrInvalidReminderType
	}
	if !req.ScheduledDate.After(now) {
		if req.Recurrence == "" {
			return domain.ErrPastDate
		}
		next := s.recurrence.Expand(req.ScheduledDate, req.Recurrence, req.CustomIntervalDays, maxRecurrenceAdvance, now)
		if len(next) == 0 {
			return domain.ErrPastDate
		}
		req.ScheduledDate = next[0]
	}
	return nil
}

// admit is the serialized core: balance, replace per pair, persist, dispatch.
func (s *Service) admit(ctx context.Context, candidates []*domain.ScheduleRequest) (*balance.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.admitLocked(ctx, candidates)
}

func (s *Service) admitLocked(ctx context.Context, candidates []*domain.ScheduleRequest) (*balance.Result, error) {
	balanceStart := time.Now()
	result, admitted := s.balancer.Balance(candidates)
	if s.metrics != nil {
		s.metrics.RecordBalanceDuration(ctx, time.Since(balanceStart))
		s.metrics.RecordRescheduled(ctx, result.Rescheduled)
		s.metrics.RecordFailed(ctx, result.Failed)
	}

	if len(admitted) == 0 {
		return result, nil
	}

	// Replace, not append: admitting requests for a pair first cancels every
	// active request that pair had from earlier scheduling actions.
	replacedPairs := make(map[string]struct{})
	for _, req := range admitted {
		replacedPairs[req.PairKey()] = struct{}{}
	}
	for pair := range replacedPairs {
		for _, prior := range s.active[pair] {
			s.cancelLocked(ctx, prior)
		}
		delete(s.active, pair)
	}

	for _, req := range admitted {
		req.Status = domain.StatusPending
		s.active[req.PairKey()] = append(s.active[req.PairKey()], req)
		s.byID[req.ID] = req
		s.state.Requests = append(s.state.Requests, req)
	}
	now := time.Now().UTC()
	s.state.LastSchedulingDate = &now

	if err := s.persistLocked(ctx); err != nil {
		return result, err
	}

	if err := s.dispatchLocked(ctx, admitted, result); err != nil {
		return result, err
	}

	return result, nil
}

// cancelLocked withdraws one request: bridge cancel is best effort, the
// cancelled request leaves the stored set entirely (replaced, not mutated).
func (s *Service) cancelLocked(ctx context.Context, req *domain.ScheduleRequest) {
	if err := s.dispatcher.Cancel(ctx, req.ID); err != nil {
		slog.WarnContext(ctx, "failed to cancel bridge notification",
			slog.String("identifier", req.ID),
			slog.String("error", err.Error()),
		)
	}
	req.Status = domain.StatusCancelled
	delete(s.byID, req.ID)

	kept := s.state.Requests[:0]
	for _, r := range s.state.Requests {
		if r.ID != req.ID {
			kept = append(kept, r)
		}
	}
	s.state.Requests = kept
}

func (s *Service) persistLocked(ctx context.Context) error {
	persistStart := time.Now()
	if err := s.repo.SaveState(ctx, s.state); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordPersistDuration(ctx, time.Since(persistStart))
	}
	return nil
}

// dispatchLocked submits admitted requests to the bridge. An authorization
// denial aborts the remainder; any other submission failure is recorded and
// the batch continues.
func (s *Service) dispatchLocked(ctx context.Context, admitted []*domain.ScheduleRequest, result *balance.Result) error {
	for _, req := range admitted {
		err := s.dispatcher.Submit(ctx, buildPayload(req), &domain.Trigger{Date: req.ScheduledDate})
		if err != nil {
			if errors.Is(err, domain.ErrAuthorizationDenied) {
				slog.WarnContext(ctx, "notification authorization denied, aborting dispatch")
				return err
			}
			result.Errors = append(result.Errors,
				fmt.Sprintf("dispatch failed for item %s (%s): %v", req.ItemID, req.Type, err))
			continue
		}

		req.Status = domain.StatusDispatched
		s.analytics.RecordScheduled(req.ID, req.Type)
		if s.metrics != nil {
			s.metrics.RecordScheduled(ctx, req.Type.String(), req.Priority.String())
		}
	}
	return nil
}

// buildItemCandidates derives warranty-expiration candidates for one item.
func (s *Service) buildItemCandidates(item *domain.Item, now time.Time) []*domain.ScheduleRequest {
	tier := s.priorityCalc.Calculate(item, now)
	dates := s.timingCalc.CandidateDates(item, tier, now)

	candidates := make([]*domain.ScheduleRequest, 0, len(dates))
	for _, date := range dates {
		daysLeft := int(item.ExpirationDate.Sub(date).Hours() / 24)
		req := domain.NewScheduleRequest(
			item.ID,
			domain.ReminderWarranty,
			date,
			fmt.Sprintf("Warranty expiring: %s", item.Name),
			warrantyBody(item.Name, daysLeft),
			tier,
		)
		req.Metadata = map[string]string{"item_name": item.Name}
		candidates = append(candidates, req)
	}
	return candidates
}

func warrantyBody(name string, daysLeft int) string {
	switch {
	case daysLeft <= 1:
		return fmt.Sprintf("The warranty for %s expires tomorrow.", name)
	case daysLeft <= 7:
		return fmt.Sprintf("The warranty for %s expires in %d days.", name, daysLeft)
	default:
		return fmt.Sprintf("The warranty for %s expires in %d days. Consider reviewing your coverage.", name, daysLeft)
	}
}

func buildPayload(req *domain.ScheduleRequest) *domain.Payload {
	metadata := map[string]string{"item_id": req.ItemID}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	return &domain.Payload{
		Identifier: req.ID,
		Title:      req.Title,
		Body:       req.Body,
		Sound:      "default",
		Badge:      1,
		Category:   req.Type.String(),
		Metadata:   metadata,
	}
}
