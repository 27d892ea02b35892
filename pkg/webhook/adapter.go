package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/domain"
)

// ErrInvalidSignature is returned when a delivery fails verification. Callers
// map it to 401; every other parse failure is the sender's 400.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Adapter normalizes raw deliveries for one tool into domain.WebhookEvent,
// driven entirely by the tool's config.
type Adapter struct {
	cfg     *ToolConfig
	clock   clock.Clock
	secrets func(string) string
}

// AdapterOption adjusts an Adapter at construction.
type AdapterOption func(*Adapter)

// WithClock substitutes the time source stamped onto events.
func WithClock(c clock.Clock) AdapterOption {
	return func(a *Adapter) { a.clock = c }
}

// WithSecretLookup substitutes the secret resolver. The default reads
// environment variables; tests inject a map lookup.
func WithSecretLookup(lookup func(name string) string) AdapterOption {
	return func(a *Adapter) { a.secrets = lookup }
}

// NewAdapter creates an adapter over a validated tool config.
func NewAdapter(cfg *ToolConfig, opts ...AdapterOption) (*Adapter, error) {
	if cfg == nil {
		return nil, fmt.Errorf("webhook: config must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Adapter{
		cfg:     cfg,
		clock:   clock.Real(),
		secrets: os.Getenv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Parse verifies and normalizes one delivery. The payload must be the raw
// request body: signature verification runs over the exact bytes the sender
// signed.
func (a *Adapter) Parse(payload []byte, header http.Header) (*domain.WebhookEvent, error) {
	if err := a.verify(payload, header); err != nil {
		return nil, err
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("webhook %s: malformed JSON payload: %w", a.cfg.Metadata.ID, err)
	}

	eventType, ok := a.eventType(header)
	if !ok {
		return nil, fmt.Errorf("webhook %s: could not determine event type", a.cfg.Metadata.ID)
	}

	metadata := a.extractFields(body, eventType)

	sourceURL, _ := metadata["source_url"].(string)
	delete(metadata, "source_url")
	if sourceURL == "" {
		sourceURL = a.cfg.Metadata.ID + "://event"
	}

	return &domain.WebhookEvent{
		EventID:   uuid.NewString(),
		Tool:      a.cfg.Metadata.ID,
		EventType: eventType,
		Timestamp: a.clock.Now().UTC(),
		SourceURL: sourceURL,
		Metadata:  metadata,
		Payload:   body,
	}, nil
}

func (a *Adapter) verify(payload []byte, header http.Header) error {
	v := a.cfg.Integration.Webhooks.Verification
	switch v.Method {
	case VerifyHMACSHA256:
		return a.verifyHMAC(payload, header, v)
	case VerifyToken:
		return a.verifyHeaderSecret(header, v, "X-Webhook-Token")
	case VerifySignature:
		return a.verifyHeaderSecret(header, v, "X-Webhook-Signature")
	case VerifyNone:
		return nil
	default:
		return fmt.Errorf("webhook %s: unknown verification method %q", a.cfg.Metadata.ID, v.Method)
	}
}

// verifyHMAC checks a GitHub-style "sha256=<hex>" signature computed over the
// raw body.
func (a *Adapter) verifyHMAC(payload []byte, header http.Header, v Verification) error {
	secret, err := a.secret(v)
	if err != nil {
		return err
	}
	got := header.Get(headerOr(v.Header, "X-Hub-Signature-256"))
	if got == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(want), []byte(got)) {
		return ErrInvalidSignature
	}
	return nil
}

// verifyHeaderSecret compares a shared secret carried in a header, in
// constant time. Token (Jenkins-style) and signature (Terraform-style)
// verification differ only in their default header.
func (a *Adapter) verifyHeaderSecret(header http.Header, v Verification, defaultHeader string) error {
	secret, err := a.secret(v)
	if err != nil {
		return err
	}
	got := header.Get(headerOr(v.Header, defaultHeader))
	if !hmac.Equal([]byte(secret), []byte(got)) {
		return ErrInvalidSignature
	}
	return nil
}

// secret resolves the configured secret. A missing environment variable is a
// deployment fault, not a sender fault, and is reported as such.
func (a *Adapter) secret(v Verification) (string, error) {
	s := a.secrets(v.SecretEnvVar)
	if s == "" {
		return "", fmt.Errorf("webhook %s: environment variable %s not set", a.cfg.Metadata.ID, v.SecretEnvVar)
	}
	return s, nil
}

// eventType matches the delivery's headers against the configured events.
func (a *Adapter) eventType(header http.Header) (string, bool) {
	for name, ev := range a.cfg.Integration.Webhooks.Events {
		if ev.HTTPEventHeader == "" {
			continue
		}
		if header.Get(ev.HTTPEventHeader) == ev.HeaderValue {
			return name, true
		}
	}
	return "", false
}

// extractFields applies the event's data mapping to the payload. Path
// expressions that match nothing yield no entry rather than failing the
// delivery.
func (a *Adapter) extractFields(body map[string]any, eventType string) map[string]any {
	mapping := a.cfg.Integration.Webhooks.Events[eventType].DataMapping
	out := make(map[string]any, len(mapping))
	for field, expr := range mapping {
		if !strings.HasPrefix(expr, "$.") {
			out[field] = expr
			continue
		}
		if v, ok := lookupPath(body, expr); ok {
			out[field] = v
		}
	}
	return out
}

func headerOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
