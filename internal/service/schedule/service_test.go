package schedule

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/service/analytics"
	"github.com/casavault/reminder-engine/internal/settings"
)

// fakeRepo keeps state in memory, round-tripping through JSON so the test
// catches anything that would not survive real persistence.
type fakeRepo struct {
	mu    sync.Mutex
	state []byte
	tasks map[string]*domain.TaskInfo

	saveCount int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: make(map[string]*domain.TaskInfo)}
}

func (f *fakeRepo) SaveState(ctx context.Context, state *domain.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	f.state = data
	f.saveCount++
	return nil
}

func (f *fakeRepo) LoadState(ctx context.Context) (*domain.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == nil {
		return domain.NewEmptyState(), nil
	}
	var state domain.State
	if err := json.Unmarshal(f.state, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (f *fakeRepo) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = nil
	f.tasks = make(map[string]*domain.TaskInfo)
	return nil
}

func (f *fakeRepo) SaveRequests(ctx context.Context, requests []*domain.ScheduleRequest) error {
	state := domain.NewEmptyState()
	state.Requests = requests
	return f.SaveState(ctx, state)
}

func (f *fakeRepo) LoadRequests(ctx context.Context) ([]*domain.ScheduleRequest, error) {
	state, err := f.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Requests, nil
}

func (f *fakeRepo) SaveTask(ctx context.Context, task *domain.TaskInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[task.Identifier] = task
	return nil
}

func (f *fakeRepo) LoadTasks(ctx context.Context) (map[string]*domain.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks, nil
}

func (f *fakeRepo) RemoveTask(ctx context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[identifier]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(f.tasks, identifier)
	return nil
}

// fakeDispatcher records submissions and cancellations.
type fakeDispatcher struct {
	mu        sync.Mutex
	submitted []string
	cancelled []string
	submitErr error
}

func (f *fakeDispatcher) Submit(ctx context.Context, payload *domain.Payload, trigger *domain.Trigger) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, payload.Identifier)
	return nil
}

func (f *fakeDispatcher) Cancel(ctx context.Context, identifier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, identifier)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeDispatcher) {
	t.Helper()
	repo := newFakeRepo()
	dispatcher := &fakeDispatcher{}
	s := settings.New()
	svc := NewService(repo, dispatcher, s, analytics.NewEngine(s), nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	return svc, repo, dispatcher
}

func futureRequest(itemID string, reminderType domain.ReminderType, daysAhead int) *domain.ScheduleRequest {
	return domain.NewScheduleRequest(
		itemID,
		reminderType,
		time.Now().AddDate(0, 0, daysAhead),
		"Title",
		"Body",
		domain.PriorityNormal,
	)
}

func TestScheduleRequestsAdmitsAndPersists(t *testing.T) {
	svc, repo, dispatcher := newTestService(t)
	ctx := context.Background()

	result, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{
		futureRequest("item-a", domain.ReminderWarranty, 10),
	})
	if err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}
	if result.Scheduled != 1 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(dispatcher.submitted) != 1 {
		t.Errorf("got %d submissions, want 1", len(dispatcher.submitted))
	}

	stored, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if len(stored.Requests) != 1 {
		t.Fatalf("got %d stored requests, want 1", len(stored.Requests))
	}
	if stored.Requests[0].Status != domain.StatusDispatched {
		t.Errorf("stored status = %v, want dispatched", stored.Requests[0].Status)
	}
	if stored.LastSchedulingDate == nil {
		t.Error("LastSchedulingDate not set")
	}
}

func TestScheduleRequestsReplacesPair(t *testing.T) {
	svc, repo, dispatcher := newTestService(t)
	ctx := context.Background()

	first := futureRequest("item-a", domain.ReminderWarranty, 10)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{first}); err != nil {
		t.Fatalf("first ScheduleRequests() error: %v", err)
	}

	second := futureRequest("item-a", domain.ReminderWarranty, 20)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{second}); err != nil {
		t.Fatalf("second ScheduleRequests() error: %v", err)
	}

	active := svc.ActiveRequests()
	if len(active) != 1 {
		t.Fatalf("got %d active requests, want 1 (pair replaced)", len(active))
	}
	if active[0].ID != second.ID {
		t.Errorf("active request is %s, want the replacement %s", active[0].ID, second.ID)
	}

	// The replaced request was cancelled at the bridge and dropped from the
	// stored set.
	if len(dispatcher.cancelled) != 1 || dispatcher.cancelled[0] != first.ID {
		t.Errorf("cancelled = %v, want [%s]", dispatcher.cancelled, first.ID)
	}
	stored, _ := repo.LoadState(ctx)
	if len(stored.Requests) != 1 {
		t.Errorf("got %d stored requests, want 1", len(stored.Requests))
	}
}

func TestScheduleRequestsDifferentTypesCoexist(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{
		futureRequest("item-a", domain.ReminderWarranty, 10),
		futureRequest("item-a", domain.ReminderMaintenance, 11),
	})
	if err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	if got := svc.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount() = %d, want 2 (different types are different pairs)", got)
	}
}

func TestScheduleRequestsValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*domain.ScheduleRequest)
	}{
		{"empty title", func(r *domain.ScheduleRequest) { r.Title = "" }},
		{"empty body", func(r *domain.ScheduleRequest) { r.Body = "" }},
		{"invalid type", func(r *domain.ScheduleRequest) { r.Type = "bogus" }},
		{"past date", func(r *domain.ScheduleRequest) { r.ScheduledDate = time.Now().AddDate(0, 0, -1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := futureRequest("item-x", domain.ReminderWarranty, 10)
			tt.mutate(req)

			result, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req})
			if err != nil {
				t.Fatalf("ScheduleRequests() error: %v", err)
			}
			if result.Failed != 1 || result.Scheduled != 0 {
				t.Errorf("result = %+v, want 1 failed", result)
			}
			if len(result.Errors) != 1 {
				t.Errorf("got %d errors, want 1", len(result.Errors))
			}
		})
	}
}

func TestScheduleRequestsAdvancesStaleRecurringDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := futureRequest("item-a", domain.ReminderMaintenance, -30)
	req.Recurrence = domain.RecurrenceWeekly

	result, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req})
	if err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}
	if result.Scheduled != 1 {
		t.Fatalf("result = %+v, want 1 scheduled", result)
	}

	active := svc.ActiveRequests()
	if len(active) != 1 {
		t.Fatalf("got %d active requests, want 1", len(active))
	}
	if !active[0].ScheduledDate.After(time.Now()) {
		t.Errorf("stale recurring date not advanced: %v", active[0].ScheduledDate)
	}
}

func TestScheduleItemsBuildsWarrantyCascade(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ctx := context.Background()

	expiration := time.Now().AddDate(0, 0, 120)
	items := []*domain.Item{
		{ID: "item-a", Name: "Laptop", Value: 300, Category: "kitchen", ExpirationDate: &expiration},
	}

	result, err := svc.ScheduleItems(ctx, items)
	if err != nil {
		t.Fatalf("ScheduleItems() error: %v", err)
	}
	// Normal tier yields the 30/7/1-day offsets, all in the future here.
	if result.Scheduled != 3 {
		t.Fatalf("scheduled = %d, want 3", result.Scheduled)
	}
	if len(dispatcher.submitted) != 3 {
		t.Errorf("got %d submissions, want 3", len(dispatcher.submitted))
	}
	for _, req := range svc.ActiveRequests() {
		if req.Type != domain.ReminderWarranty {
			t.Errorf("request type = %v, want warranty", req.Type)
		}
		if req.Metadata["item_name"] != "Laptop" {
			t.Errorf("missing item_name metadata: %v", req.Metadata)
		}
	}
}

func TestCancelPair(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ctx := context.Background()

	req := futureRequest("item-a", domain.ReminderWarranty, 10)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	if err := svc.Cancel(ctx, "item-a", domain.ReminderWarranty); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if got := svc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
	if len(dispatcher.cancelled) != 1 {
		t.Errorf("got %d bridge cancellations, want 1", len(dispatcher.cancelled))
	}

	if err := svc.Cancel(ctx, "item-a", domain.ReminderWarranty); err != domain.ErrRequestNotFound {
		t.Errorf("second Cancel() error = %v, want ErrRequestNotFound", err)
	}
	if err := svc.Cancel(ctx, "item-a", "bogus"); err != domain.ErrInvalidReminderType {
		t.Errorf("Cancel() with bad type error = %v, want ErrInvalidReminderType", err)
	}
}

func TestSnoozeReplacesRequest(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ctx := context.Background()

	req := futureRequest("item-a", domain.ReminderWarranty, 10)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	before := time.Now()
	replacement, err := svc.Snooze(ctx, req.ID, time.Hour)
	if err != nil {
		t.Fatalf("Snooze() error: %v", err)
	}

	if replacement.ID == req.ID {
		t.Error("snooze must mint a new request, not reuse the ID")
	}
	if replacement.Metadata[metadataSnoozeCountKey] != "1" {
		t.Errorf("snooze count = %q, want 1", replacement.Metadata[metadataSnoozeCountKey])
	}
	wantDate := before.Add(time.Hour)
	if replacement.ScheduledDate.Before(wantDate.Add(-time.Minute)) || replacement.ScheduledDate.After(wantDate.Add(time.Minute)) {
		t.Errorf("replacement date = %v, want ~%v", replacement.ScheduledDate, wantDate)
	}
	if got := svc.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d, want 1", got)
	}
	if len(dispatcher.cancelled) != 1 || dispatcher.cancelled[0] != req.ID {
		t.Errorf("cancelled = %v, want [%s]", dispatcher.cancelled, req.ID)
	}

	// A second snooze increments the count.
	again, err := svc.Snooze(ctx, replacement.ID, time.Hour)
	if err != nil {
		t.Fatalf("second Snooze() error: %v", err)
	}
	if again.Metadata[metadataSnoozeCountKey] != "2" {
		t.Errorf("second snooze count = %q, want 2", again.Metadata[metadataSnoozeCountKey])
	}

	if _, err := svc.Snooze(ctx, "unknown", time.Hour); err != domain.ErrRequestNotFound {
		t.Errorf("Snooze() unknown id error = %v, want ErrRequestNotFound", err)
	}
}

func TestHandleEventTransitions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	req := futureRequest("item-a", domain.ReminderWarranty, 10)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	svc.HandleEvent(ctx, domain.DeliveryEvent{
		Kind:       domain.EventDelivered,
		Identifier: req.ID,
		OccurredAt: time.Now(),
	})
	if got := svc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d after delivery, want 0", got)
	}

	svc.HandleEvent(ctx, domain.DeliveryEvent{
		Kind:         domain.EventInteraction,
		Identifier:   req.ID,
		Action:       domain.ActionViewed,
		ResponseTime: 10 * time.Second,
		OccurredAt:   time.Now(),
	})

	// Events for unknown identifiers must not panic; the bridge may report on
	// requests already replaced or cleaned up.
	svc.HandleEvent(ctx, domain.DeliveryEvent{
		Kind:       domain.EventDelivered,
		Identifier: "long-gone",
		OccurredAt: time.Now(),
	})
}

func TestProcessExpiredRemovesOneShots(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// Admit a valid future request, then age it below now.
	req := futureRequest("item-a", domain.ReminderWarranty, 1)
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}
	svc.mu.Lock()
	svc.byID[req.ID].ScheduledDate = time.Now().AddDate(0, 0, -2)
	svc.mu.Unlock()

	advanced, removed, err := svc.ProcessExpired(ctx)
	if err != nil {
		t.Fatalf("ProcessExpired() error: %v", err)
	}
	if advanced != 0 || removed != 1 {
		t.Errorf("ProcessExpired() = (%d, %d), want (0, 1)", advanced, removed)
	}
	if got := svc.ActiveCount(); got != 0 {
		t.Errorf("ActiveCount() = %d, want 0", got)
	}
	stored, _ := repo.LoadState(ctx)
	if len(stored.Requests) != 0 {
		t.Errorf("got %d stored requests, want 0", len(stored.Requests))
	}
}

func TestProcessExpiredAdvancesRecurring(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ctx := context.Background()

	req := futureRequest("item-a", domain.ReminderMaintenance, 1)
	req.Recurrence = domain.RecurrenceWeekly
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{req}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}
	svc.mu.Lock()
	svc.byID[req.ID].ScheduledDate = time.Now().AddDate(0, 0, -2)
	svc.mu.Unlock()

	submittedBefore := len(dispatcher.submitted)
	advanced, removed, err := svc.ProcessExpired(ctx)
	if err != nil {
		t.Fatalf("ProcessExpired() error: %v", err)
	}
	if advanced != 1 || removed != 0 {
		t.Errorf("ProcessExpired() = (%d, %d), want (1, 0)", advanced, removed)
	}

	active := svc.ActiveRequests()
	if len(active) != 1 {
		t.Fatalf("got %d active requests, want 1", len(active))
	}
	if !active[0].ScheduledDate.After(time.Now()) {
		t.Errorf("recurring request not advanced: %v", active[0].ScheduledDate)
	}
	if len(dispatcher.submitted) != submittedBefore+1 {
		t.Errorf("advanced request not resubmitted to the bridge")
	}
}

func TestRebalancePendingMovesOverloadedDays(t *testing.T) {
	svc, _, dispatcher := newTestService(t)
	ctx := context.Background()

	day := time.Now().AddDate(0, 0, 5)
	requests := make([]*domain.ScheduleRequest, 0, 4)
	for _, id := range []string{"a", "b", "c", "d"} {
		req := domain.NewScheduleRequest("item-"+id, domain.ReminderWarranty, day, "Title", "Body", domain.PriorityNormal)
		requests = append(requests, req)
	}
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{requests[0], requests[1], requests[2]}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}
	// Force a fourth request onto the saturated day behind the balancer's
	// back, then let rebalancing fix it.
	svc.mu.Lock()
	fourth := requests[3]
	fourth.Status = domain.StatusPending
	svc.active[fourth.PairKey()] = append(svc.active[fourth.PairKey()], fourth)
	svc.byID[fourth.ID] = fourth
	svc.state.Requests = append(svc.state.Requests, fourth)
	svc.mu.Unlock()

	result, err := svc.RebalancePending(ctx)
	if err != nil {
		t.Fatalf("RebalancePending() error: %v", err)
	}
	if result.Rescheduled != 1 {
		t.Fatalf("rescheduled = %d, want 1", result.Rescheduled)
	}

	perDay := make(map[string]int)
	for _, req := range svc.ActiveRequests() {
		perDay[req.ScheduledDayKey()]++
	}
	for dayKey, count := range perDay {
		if count > 3 {
			t.Errorf("day %s still holds %d requests after rebalance", dayKey, count)
		}
	}
	if len(dispatcher.cancelled) != 1 {
		t.Errorf("moved request not cancelled at the bridge: %v", dispatcher.cancelled)
	}
}

func TestPerformCleanupRemovesExpired(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	state := domain.NewEmptyState()
	state.Requests = []*domain.ScheduleRequest{
		domain.NewScheduleRequest("item-a", domain.ReminderWarranty,
			time.Now().AddDate(0, 0, -2), "Title", "Body", domain.PriorityNormal),
		domain.NewScheduleRequest("item-b", domain.ReminderWarranty,
			time.Now().AddDate(0, 0, 2), "Title", "Body", domain.PriorityNormal),
	}
	if err := repo.SaveState(ctx, state); err != nil {
		t.Fatalf("SaveState() error: %v", err)
	}
	if err := repo.SaveTask(ctx, &domain.TaskInfo{
		Identifier:     "stale",
		Kind:           domain.TaskWarrantyCheck,
		CreatedAt:      time.Now().Add(-48 * time.Hour),
		ExpirationTime: time.Now().Add(-24 * time.Hour),
	}); err != nil {
		t.Fatalf("SaveTask() error: %v", err)
	}
	if err := repo.SaveTask(ctx, &domain.TaskInfo{
		Identifier:     "live",
		Kind:           domain.TaskNotificationProcessing,
		CreatedAt:      time.Now(),
		ExpirationTime: time.Now().Add(8 * time.Hour),
	}); err != nil {
		t.Fatalf("SaveTask() error: %v", err)
	}
	if err := svc.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	report, err := svc.PerformCleanup(ctx)
	if err != nil {
		t.Fatalf("PerformCleanup() error: %v", err)
	}
	if report.RemovedRequests != 1 || report.RemovedTasks != 1 {
		t.Errorf("cleanup removed %d/%d, want 1/1", report.RemovedRequests, report.RemovedTasks)
	}

	stored, _ := repo.LoadState(ctx)
	if len(stored.Requests) != 1 || stored.Requests[0].ItemID != "item-b" {
		t.Errorf("stored requests after cleanup = %+v, want only item-b", stored.Requests)
	}
	tasks, _ := repo.LoadTasks(ctx)
	if len(tasks) != 1 || tasks["live"] == nil {
		t.Errorf("tasks after cleanup = %v, want only live", tasks)
	}

	// Cleanup is idempotent.
	report, err = svc.PerformCleanup(ctx)
	if err != nil {
		t.Fatalf("second PerformCleanup() error: %v", err)
	}
	if report.RemovedRequests != 0 || report.RemovedTasks != 0 {
		t.Errorf("second cleanup removed %d/%d, want 0/0", report.RemovedRequests, report.RemovedTasks)
	}
}

func TestClearSchedulingFlagKeepsAdmittedRequests(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	// A request admitted after the integrity snapshot was taken must survive
	// the repair; the service state, not the snapshot, is the source of truth.
	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{
		futureRequest("item-a", domain.ReminderWarranty, 10),
	}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	if err := svc.ClearSchedulingFlag(ctx); err != nil {
		t.Fatalf("ClearSchedulingFlag() error: %v", err)
	}

	stored, err := repo.LoadState(ctx)
	if err != nil {
		t.Fatalf("LoadState() error: %v", err)
	}
	if stored.LastSchedulingDate != nil {
		t.Error("scheduling flag not cleared")
	}
	if len(stored.Requests) != 1 {
		t.Errorf("got %d stored requests after repair, want 1", len(stored.Requests))
	}
	if got := svc.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount() = %d after repair, want 1", got)
	}

	// Clearing an already-clear flag is a no-op, not an error.
	if err := svc.ClearSchedulingFlag(ctx); err != nil {
		t.Fatalf("second ClearSchedulingFlag() error: %v", err)
	}
}

func TestLoadRebuildsFromStore(t *testing.T) {
	svc, repo, dispatcher := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ScheduleRequests(ctx, []*domain.ScheduleRequest{
		futureRequest("item-a", domain.ReminderWarranty, 10),
		futureRequest("item-b", domain.ReminderInsurance, 12),
	}); err != nil {
		t.Fatalf("ScheduleRequests() error: %v", err)
	}

	// A fresh service over the same repo sees the same active set.
	s := settings.New()
	restarted := NewService(repo, dispatcher, s, analytics.NewEngine(s), nil)
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := restarted.ActiveCount(); got != 2 {
		t.Errorf("restarted ActiveCount() = %d, want 2", got)
	}
}
