package stub

import (
	"sync"
	"time"

	"github.com/casavault/reminder-engine/internal/domain"
)

// Storage is the in-memory backing for the stub: seeded inventory items plus
// every notification the stub bridge has accepted.
type Storage struct {
	mu            sync.RWMutex
	items         map[string]*domain.Item
	notifications map[string]*StoredNotification
}

func NewStorage() *Storage {
	return &Storage{
		items:         make(map[string]*domain.Item),
		notifications: make(map[string]*StoredNotification),
	}
}

func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*domain.Item)
	s.notifications = make(map[string]*StoredNotification)
}

func (s *Storage) PutItems(items []*domain.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range items {
		s.items[item.ID] = item
	}
}

func (s *Storage) GetItems(ids []string) []*domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (s *Storage) GetItemsExpiringBetween(start, end time.Time) []*domain.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Item, 0)
	for _, item := range s.items {
		if item.ExpirationDate == nil {
			continue
		}
		if item.ExpirationDate.After(start) && item.ExpirationDate.Before(end) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Storage) PutNotification(payload *domain.Payload, trigger *domain.Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications[payload.Identifier] = &StoredNotification{
		Payload:    payload,
		Trigger:    trigger,
		ReceivedAt: time.Now().UTC(),
	}
}

func (s *Storage) RemoveNotification(identifier string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[identifier]; !ok {
		return false
	}
	delete(s.notifications, identifier)
	return true
}

func (s *Storage) Notifications() []*StoredNotification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*StoredNotification, 0, len(s.notifications))
	for _, n := range s.notifications {
		out = append(out, n)
	}
	return out
}
