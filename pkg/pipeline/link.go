package pipeline

import "context"

// Link is one asynchronous transformation step over a Context. Implementations
// must be stateless with respect to the Context: all inputs are read from c, all
// outputs go into the returned Context, and any side effect is limited to the
// one external call the Link exists to make. Links are reused across runs.
type Link interface {
	Call(ctx context.Context, c Context) (Context, error)
}

// LinkFunc adapts a plain function to the Link interface.
type LinkFunc func(ctx context.Context, c Context) (Context, error)

// Call invokes the function.
func (f LinkFunc) Call(ctx context.Context, c Context) (Context, error) {
	return f(ctx, c)
}

// Require verifies that every named key is present in c and returns a
// *ValidationError listing the missing ones otherwise. Mutation links call this
// before touching their collaborator so a caller bug surfaces as a typed error
// rather than a malformed request.
func Require(c Context, link string, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if !c.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Link: link, MissingKeys: missing}
	}
	return nil
}
