package ports

import (
	"context"

	"github.com/opsdeck/opsdeck/pkg/domain"
)

// WebhookEventStore persists normalized webhook events for the audit trail.
type WebhookEventStore interface {
	// SaveEvent stores the event and returns its ID.
	SaveEvent(ctx context.Context, event *domain.WebhookEvent) (string, error)
	// GetEvent returns the event under id, or nil when unknown.
	GetEvent(ctx context.Context, id string) (*domain.WebhookEvent, error)
	// ListEvents returns up to limit events for one tool, most recent first.
	ListEvents(ctx context.Context, tool string, limit int) ([]domain.WebhookEvent, error)
	// ListEventsByType returns up to limit events of one type, most recent first.
	ListEventsByType(ctx context.Context, eventType string, limit int) ([]domain.WebhookEvent, error)
	// DeleteEvent removes the event under id and reports whether it existed.
	DeleteEvent(ctx context.Context, id string) (bool, error)
}
