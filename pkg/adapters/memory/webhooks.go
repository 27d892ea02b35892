package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// WebhookEventStore implements ports.WebhookEventStore over an in-memory
// collection, newest event first.
type WebhookEventStore struct {
	mu     sync.RWMutex
	events []domain.WebhookEvent
}

var _ ports.WebhookEventStore = (*WebhookEventStore)(nil)

// NewWebhookEventStore creates an empty event store.
func NewWebhookEventStore() *WebhookEventStore {
	return &WebhookEventStore{}
}

// SaveEvent stores a copy of the event and returns its ID.
func (s *WebhookEventStore) SaveEvent(ctx context.Context, event *domain.WebhookEvent) (string, error) {
	if event == nil || event.EventID == "" {
		return "", fmt.Errorf("webhook event must carry an event_id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append([]domain.WebhookEvent{copyWebhookEvent(*event)}, s.events...)
	return event.EventID, nil
}

// GetEvent returns the event under id, or a 404-shaped error.
func (s *WebhookEventStore) GetEvent(ctx context.Context, id string) (*domain.WebhookEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.events {
		if e.EventID == id {
			out := copyWebhookEvent(e)
			return &out, nil
		}
	}
	return nil, notFound("webhooks")
}

// ListEvents returns up to limit events for one tool, most recent first. A
// zero limit means no cap.
func (s *WebhookEventStore) ListEvents(ctx context.Context, tool string, limit int) ([]domain.WebhookEvent, error) {
	return s.list(func(e domain.WebhookEvent) bool { return tool == "" || e.Tool == tool }, limit), nil
}

// ListEventsByType returns up to limit events of one type, most recent first.
func (s *WebhookEventStore) ListEventsByType(ctx context.Context, eventType string, limit int) ([]domain.WebhookEvent, error) {
	return s.list(func(e domain.WebhookEvent) bool { return e.EventType == eventType }, limit), nil
}

// DeleteEvent removes the event under id and reports whether it existed.
func (s *WebhookEventStore) DeleteEvent(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.events {
		if e.EventID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *WebhookEventStore) list(match func(domain.WebhookEvent) bool, limit int) []domain.WebhookEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WebhookEvent, 0, len(s.events))
	for _, e := range s.events {
		if !match(e) {
			continue
		}
		out = append(out, copyWebhookEvent(e))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func copyWebhookEvent(e domain.WebhookEvent) domain.WebhookEvent {
	out := e
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	if e.Payload != nil {
		out.Payload = maps.Clone(e.Payload)
	}
	return out
}
