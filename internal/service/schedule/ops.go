package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/service/balance"
)

const metadataSnoozeCountKey = "snooze_count"

// Cancel withdraws every active request for the (itemID, type) pair.
func (s *Service) Cancel(ctx context.Context, itemID string, reminderType domain.ReminderType) error {
	if !reminderType.IsValid() {
		return domain.ErrInvalidReminderType
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pair := itemID + ":" + string(reminderType)
	priors := s.active[pair]
	if len(priors) == 0 {
		return domain.ErrRequestNotFound
	}
	for _, prior := range priors {
		s.cancelLocked(ctx, prior)
	}
	delete(s.active, pair)

	return s.persistLocked(ctx)
}

// Snooze cancels the identified request and admits a replacement scheduled
// duration from now, carrying an incremented snooze count in its metadata.
func (s *Service) Snooze(ctx context.Context, id string, duration time.Duration) (*domain.ScheduleRequest, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("snooze duration must be positive, got %s", duration)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prior, ok := s.byID[id]
	if !ok || !prior.IsActive() {
		return nil, domain.ErrRequestNotFound
	}

	snoozeCount := 1
	if prior.Metadata != nil {
		if n, err := strconv.Atoi(prior.Metadata[metadataSnoozeCountKey]); err == nil {
			snoozeCount = n + 1
		}
	}

	replacement := prior.WithDate(time.Now().Add(duration))
	replacement.ID = uuid.NewString()
	replacement.CreatedAt = time.Now().UTC()
	if replacement.Metadata == nil {
		replacement.Metadata = make(map[string]string, 1)
	}
	replacement.Metadata[metadataSnoozeCountKey] = strconv.Itoa(snoozeCount)

	s.cancelLocked(ctx, prior)
	s.removeFromActiveLocked(prior)

	replacement.Status = domain.StatusPending
	s.active[replacement.PairKey()] = append(s.active[replacement.PairKey()], replacement)
	s.byID[replacement.ID] = replacement
	s.state.Requests = append(s.state.Requests, replacement)

	if err := s.persistLocked(ctx); err != nil {
		return nil, err
	}

	if err := s.dispatcher.Submit(ctx, buildPayload(replacement), &domain.Trigger{Date: replacement.ScheduledDate}); err != nil {
		return nil, err
	}
	replacement.Status = domain.StatusDispatched

	s.analytics.RecordInteraction(id, domain.ActionSnoozed, 0)
	s.analytics.RecordSnoozed(id, duration, snoozeCount)

	slog.InfoContext(ctx, "request snoozed",
		slog.String("id", id),
		slog.String("replacement_id", replacement.ID),
		slog.Int("snooze_count", snoozeCount),
	)
	return replacement, nil
}

// HandleEvent applies one delivery-bridge callback to request state and
// analytics. Events for unknown identifiers only feed analytics; the bridge
// may report on requests already replaced or cleaned up.
func (s *Service) HandleEvent(ctx context.Context, event domain.DeliveryEvent) {
	if s.metrics != nil {
		s.metrics.RecordEvent(ctx, string(event.Kind))
	}

	s.mu.Lock()
	req, known := s.byID[event.Identifier]
	if known {
		switch event.Kind {
		case domain.EventDelivered:
			req.Status = domain.StatusDelivered
			s.removeFromActiveLocked(req)
		case domain.EventInteraction:
			if event.Action == domain.ActionIgnored {
				req.Status = domain.StatusIgnored
			} else {
				req.Status = domain.StatusInteracted
			}
		}
	}
	s.mu.Unlock()

	switch event.Kind {
	case domain.EventDelivered:
		reminderType := domain.ReminderWarranty
		var scheduled time.Time
		if known {
			reminderType = req.Type
			scheduled = req.ScheduledDate
		}
		s.analytics.RecordDelivered(event.Identifier, reminderType, scheduled)
	case domain.EventInteraction:
		s.analytics.RecordInteraction(event.Identifier, event.Action, event.ResponseTime)
	}
}

// ConsumeFeed drains delivery events until the channel closes or the context
// ends. Run in its own goroutine from main.
func (s *Service) ConsumeFeed(ctx context.Context, events <-chan domain.DeliveryEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, event)
		}
	}
}

// ProcessExpired sweeps active requests whose scheduled date has passed.
// Recurring requests advance to their next occurrence and are re-submitted;
// one-shot requests are removed. Returns (advanced, removed).
func (s *Service) ProcessExpired(ctx context.Context) (int, int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	advanced, removed := 0, 0
	var resubmit []*domain.ScheduleRequest
	for pair, reqs := range s.active {
		kept := reqs[:0]
		for _, req := range reqs {
			if !req.IsExpired(now) {
				kept = append(kept, req)
				continue
			}
			if req.Recurrence != "" {
				next := s.recurrence.Expand(req.ScheduledDate, req.Recurrence, req.CustomIntervalDays, maxRecurrenceAdvance, now)
				if len(next) > 0 {
					req.ScheduledDate = next[0]
					req.Status = domain.StatusPending
					kept = append(kept, req)
					resubmit = append(resubmit, req)
					advanced++
					continue
				}
			}
			s.dropFromStateLocked(req)
			removed++
		}
		if len(kept) == 0 {
			delete(s.active, pair)
		} else {
			s.active[pair] = kept
		}
	}

	if advanced == 0 && removed == 0 {
		return 0, 0, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		return advanced, removed, err
	}

	for _, req := range resubmit {
		if err := s.dispatcher.Submit(ctx, buildPayload(req), &domain.Trigger{Date: req.ScheduledDate}); err != nil {
			slog.WarnContext(ctx, "failed to resubmit recurring request",
				slog.String("id", req.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		req.Status = domain.StatusDispatched
	}

	slog.InfoContext(ctx, "expired sweep complete",
		slog.Int("advanced", advanced),
		slog.Int("removed", removed),
	)
	return advanced, removed, nil
}

// RebalancePending re-runs admission control over the active set and moves
// requests off days that exceed the cap. Requests the balancer cannot place
// keep their current date; rebalancing never drops an admitted request.
func (s *Service) RebalancePending(ctx context.Context) (*balance.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := make([]*domain.ScheduleRequest, 0, len(s.byID))
	for _, reqs := range s.active {
		current = append(current, reqs...)
	}
	if len(current) == 0 {
		return &balance.Result{}, nil
	}

	result, placed := s.balancer.Balance(current)
	moved := 0
	for _, req := range placed {
		prior, ok := s.byID[req.ID]
		if !ok || prior.ScheduledDate.Equal(req.ScheduledDate) {
			continue
		}
		s.replaceLocked(ctx, prior, req)
		moved++
	}

	if moved == 0 {
		return result, nil
	}
	if s.metrics != nil {
		s.metrics.RecordRescheduled(ctx, moved)
	}

	if err := s.persistLocked(ctx); err != nil {
		return result, err
	}

	slog.InfoContext(ctx, "rebalanced pending requests",
		slog.Int("moved", moved),
		slog.Int("active", len(current)),
	)
	return result, nil
}

// ActiveRequests returns a snapshot of the requests awaiting delivery.
func (s *Service) ActiveRequests() []*domain.ScheduleRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.ScheduleRequest, 0, len(s.byID))
	for _, reqs := range s.active {
		for _, req := range reqs {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out
}

// ActiveCount reports how many requests are awaiting delivery.
func (s *Service) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, reqs := range s.active {
		n += len(reqs)
	}
	return n
}

// replaceLocked swaps a re-dated clone in for the original request, moving
// the bridge submission to the new date.
func (s *Service) replaceLocked(ctx context.Context, prior, replacement *domain.ScheduleRequest) {
	if err := s.dispatcher.Cancel(ctx, prior.ID); err != nil {
		slog.WarnContext(ctx, "failed to cancel bridge notification",
			slog.String("identifier", prior.ID),
			slog.String("error", err.Error()),
		)
	}

	replacement.Status = domain.StatusPending
	s.byID[replacement.ID] = replacement
	for i, r := range s.state.Requests {
		if r.ID == prior.ID {
			s.state.Requests[i] = replacement
			break
		}
	}
	pair := replacement.PairKey()
	for i, r := range s.active[pair] {
		if r.ID == prior.ID {
			s.active[pair][i] = replacement
			break
		}
	}

	if err := s.dispatcher.Submit(ctx, buildPayload(replacement), &domain.Trigger{Date: replacement.ScheduledDate}); err != nil {
		slog.WarnContext(ctx, "failed to resubmit rebalanced request",
			slog.String("identifier", replacement.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	replacement.Status = domain.StatusDispatched
}

// removeFromActiveLocked drops the request from the pair index without
// touching stored state.
func (s *Service) removeFromActiveLocked(req *domain.ScheduleRequest) {
	pair := req.PairKey()
	kept := s.active[pair][:0]
	for _, r := range s.active[pair] {
		if r.ID != req.ID {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		delete(s.active, pair)
	} else {
		s.active[pair] = kept
	}
}

// dropFromStateLocked removes the request from every index and the stored set.
func (s *Service) dropFromStateLocked(req *domain.ScheduleRequest) {
	delete(s.byID, req.ID)
	kept := s.state.Requests[:0]
	for _, r := range s.state.Requests {
		if r.ID != req.ID {
			kept = append(kept, r)
		}
	}
	s.state.Requests = kept
}
