package chains

import (
	"context"
	"strings"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
)

// Context keys of the webhook processing chain.
const (
	// KeyWebhookEvent carries the normalized event into a run.
	KeyWebhookEvent = "webhook_event"
	// KeyAutoJobs enables the job-creation tail for tools that opt in.
	KeyAutoJobs = "auto_jobs"
)

// WebhookOutcome reports what one processed delivery produced.
type WebhookOutcome struct {
	EventID string
	Route   string
	// CreatedJob is set when the delivery spawned a dashboard job.
	CreatedJob *domain.Job
}

// WebhookChain validates, stores and routes inbound webhook events. When a
// jobs collaborator is supplied, push events from tools with auto job
// creation also enqueue a build job.
type WebhookChain struct {
	store   ports.WebhookEventStore
	process *pipeline.Chain
}

// NewWebhookChain wires the processing pipeline over the event store. A nil
// jobs collaborator leaves the job-creation link out of the graph entirely.
func NewWebhookChain(store ports.WebhookEventStore, jobs ports.JobsAPI, opts ...pipeline.Option) *WebhookChain {
	wc := &WebhookChain{store: store}

	ch := pipeline.New("webhooks.process", opts...).
		AddLink("validate", pipeline.LinkFunc(validateEventLink)).
		AddLink("store", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			event, err := eventKey(c, "store")
			if err != nil {
				return pipeline.Context{}, err
			}
			id, err := store.SaveEvent(ctx, event)
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("stored_event_id", id), nil
		})).
		AddLink("route", pipeline.LinkFunc(func(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
			event, err := eventKey(c, "route")
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("route", event.Tool+"/"+event.EventType), nil
		})).
		Connect("validate", "store", func(c pipeline.Context) bool { return c.Value("validated") == true }).
		Connect("store", "route", func(c pipeline.Context) bool { return c.Has("stored_event_id") })

	if jobs != nil {
		ch.AddLink("create_job", pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
			event, err := eventKey(c, "create_job")
			if err != nil {
				return pipeline.Context{}, err
			}
			job, err := jobs.Enqueue(ctx, jobRequestFromEvent(event))
			if err != nil {
				return pipeline.Context{}, err
			}
			return c.Insert("job", job), nil
		})).
			Connect("route", "create_job", func(c pipeline.Context) bool {
				route, _ := c.String("route")
				return c.Value(KeyAutoJobs) == true && strings.HasSuffix(route, "/push")
			})
	}

	wc.process = ch
	return wc
}

// Pipeline exposes the processing graph for topology introspection.
func (wc *WebhookChain) Pipeline() *pipeline.Chain { return wc.process }

// Process runs one event through the chain. autoJobs reflects the tool's
// auto_job_creation feature flag; without it the run ends at routing.
func (wc *WebhookChain) Process(ctx context.Context, event *domain.WebhookEvent, autoJobs bool) (*WebhookOutcome, error) {
	out, err := wc.process.Run(ctx, map[string]any{
		KeyWebhookEvent: event,
		KeyAutoJobs:     autoJobs,
	})
	if err != nil {
		return nil, err
	}

	outcome := &WebhookOutcome{}
	outcome.EventID, _ = out.String("stored_event_id")
	outcome.Route, _ = out.String("route")
	outcome.CreatedJob, _ = out.Value("job").(*domain.Job)
	return outcome, nil
}

// Events returns the most recent stored events for one tool.
func (wc *WebhookChain) Events(ctx context.Context, tool string, limit int) ([]domain.WebhookEvent, error) {
	return wc.store.ListEvents(ctx, tool, limit)
}

// validateEventLink checks the event carries every required field before
// anything is persisted.
func validateEventLink(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
	event, err := eventKey(c, "validate")
	if err != nil {
		return pipeline.Context{}, err
	}

	var missing []string
	if event.EventID == "" {
		missing = append(missing, "event_id")
	}
	if event.Tool == "" {
		missing = append(missing, "tool")
	}
	if event.EventType == "" {
		missing = append(missing, "event_type")
	}
	if event.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if event.Payload == nil {
		missing = append(missing, "payload")
	}
	if len(missing) > 0 {
		return pipeline.Context{}, &pipeline.ValidationError{Link: "validate", MissingKeys: missing}
	}
	return c.Insert("validated", true), nil
}

// eventKey returns the event threaded through the run.
func eventKey(c pipeline.Context, link string) (*domain.WebhookEvent, error) {
	event, ok := c.Value(KeyWebhookEvent).(*domain.WebhookEvent)
	if !ok || event == nil {
		return nil, &pipeline.ValidationError{Link: link, MissingKeys: []string{KeyWebhookEvent}}
	}
	return event, nil
}

// jobRequestFromEvent maps a push event's extracted fields onto a build job.
func jobRequestFromEvent(event *domain.WebhookEvent) ports.JobRequest {
	name := "webhook build"
	if msg, ok := event.MetadataString("commit_message"); ok {
		name, _, _ = strings.Cut(msg, "\n")
	}

	req := ports.JobRequest{
		Name: name,
		Type: "build",
		Tags: []string{"webhook", event.Tool},
	}
	req.GitRepo, _ = event.MetadataString("repository")
	req.GitRef, _ = event.MetadataString("branch")
	req.GitCommitSHA, _ = event.MetadataString("commit_sha")
	req.GitAuthor, _ = event.MetadataString("author")
	return req
}
