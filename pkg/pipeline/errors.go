package pipeline

import "fmt"

// ExternalCallError reports a failed collaborator call: the transport failed or
// the collaborator answered with a non-2xx status. The engine does not retry;
// the error propagates to the chain's caller.
type ExternalCallError struct {
	// Resource is the logical collaborator name ("jobs", "agents", ...).
	Resource string
	// Status is the HTTP status received, or 0 when no response arrived.
	Status int
	// Err is the underlying transport error, if any.
	Err error
}

func (e *ExternalCallError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: collaborator responded with status %d", e.Resource, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: collaborator call failed: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("%s: collaborator call failed", e.Resource)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// ValidationError reports that a Link was invoked without its required upstream
// keys. This indicates a caller bug, not a transient condition.
type ValidationError struct {
	Link        string
	MissingKeys []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("link %q requires context keys that are missing: %v", e.Link, e.MissingKeys)
}
