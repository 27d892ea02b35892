package domain

import "time"

// WebhookEvent is a normalized inbound event from any integrated tool. The
// adapter flattens tool-specific payloads into Metadata using the tool's
// configured field mapping; Payload keeps the raw body for the audit trail.
type WebhookEvent struct {
	EventID   string         `json:"event_id"`
	Tool      string         `json:"tool"`
	EventType string         `json:"event_type"`
	Timestamp time.Time      `json:"timestamp"`
	SourceURL string         `json:"source_url"`
	Metadata  map[string]any `json:"metadata"`
	Payload   map[string]any `json:"payload"`
}

// MetadataString returns the metadata value under key when it is a non-empty
// string.
func (e *WebhookEvent) MetadataString(key string) (string, bool) {
	s, ok := e.Metadata[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
