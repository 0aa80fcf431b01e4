package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/internal/domain"
	"github.com/casavault/reminder-engine/internal/infra/dispatch"
	"github.com/casavault/reminder-engine/internal/settings"
)

type memorySettingsStore struct {
	snap *settings.Snapshot
}

func (m *memorySettingsStore) LoadSettings(ctx context.Context) (*settings.Snapshot, error) {
	return m.snap, nil
}

func (m *memorySettingsStore) SaveSettings(ctx context.Context, snap *settings.Snapshot) error {
	m.snap = snap
	return nil
}

func TestSettingsHandlerRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := settings.New()
	store := &memorySettingsStore{}
	h := NewSettingsHandler(s, store)

	r := gin.New()
	r.GET("/settings", h.HandleGet)
	r.PUT("/settings", h.HandlePut)

	body := `{"warranty_offsets":[60,14],"frequency":"frequent","optimal_hour":18,"optimal_weekday":5,"weekend_notifications_enabled":true,"summary_notifications_enabled":true,"analytics_enabled":true,"daily_cap":5,"lookahead_days":14}`
	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body.String())
	}
	if s.OptimalHour() != 18 || s.DailyCap() != 5 {
		t.Errorf("settings not applied: hour=%d cap=%d", s.OptimalHour(), s.DailyCap())
	}
	if store.snap == nil {
		t.Error("settings not persisted")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"optimal_hour":18`) {
		t.Errorf("GET body missing updated hour: %s", w.Body.String())
	}
}

func TestSettingsHandlerNormalizesInvalid(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := settings.New()
	h := NewSettingsHandler(s, &memorySettingsStore{})

	r := gin.New()
	r.PUT("/settings", h.HandlePut)

	req := httptest.NewRequest(http.MethodPut, "/settings", strings.NewReader(`{"optimal_hour":99,"daily_cap":-2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", w.Code, w.Body.String())
	}
	if s.OptimalHour() != 9 || s.DailyCap() != 3 {
		t.Errorf("invalid fields not normalized: hour=%d cap=%d", s.OptimalHour(), s.DailyCap())
	}
}

func TestEventHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	feed := dispatch.NewEventFeed()
	h := NewEventHandler(feed)

	r := gin.New()
	r.POST("/events", h.HandleEvent)

	t.Run("valid event is queued", func(t *testing.T) {
		body := `{"kind":"interaction","identifier":"req-1","action":"viewed","response_time_ms":1500}`
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusAccepted {
			t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
		}

		select {
		case event := <-feed.Events():
			if event.Kind != domain.EventInteraction || event.Identifier != "req-1" {
				t.Errorf("unexpected event: %+v", event)
			}
			if event.ResponseTime != 1500*time.Millisecond {
				t.Errorf("response time = %v, want 1.5s", event.ResponseTime)
			}
		default:
			t.Fatal("event not queued")
		}
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"kind":"bogus","identifier":"req-1"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("missing identifier is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"kind":"delivered"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
