// Package memory provides in-memory implementations of the collaborator APIs
// and the preference store. They back demo mode and tests: same interfaces
// and same error surface as the live services (a missing resource comes back
// as a *pipeline.ExternalCallError with a 404), no network.
//
// All stores are safe for concurrent use. Callers get copies, never the
// stored records.
package memory

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

type options struct {
	clock clock.Clock
}

// Option adjusts a store at construction.
type Option func(*options)

// WithClock substitutes the time source. Tests pass clock.Fake so leases and
// timestamps are deterministic.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func newOptions(opts []Option) options {
	o := options{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newID mints a prefixed 12-hex-char identifier, e.g. "job-3f2a9c81d04b".
func newID(prefix string) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%x", prefix, id[:6])
}

// notFound mirrors how a live collaborator reports an unknown resource.
func notFound(resource string) error {
	return &pipeline.ExternalCallError{Resource: resource, Status: http.StatusNotFound}
}

// pageWindow clips [offset, offset+limit) onto a collection of n records and
// returns the slice bounds. A zero limit means no cap.
func pageWindow(n, limit, offset int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		return n, n
	}
	end := n
	if limit > 0 && offset+limit < n {
		end = offset + limit
	}
	return offset, end
}
