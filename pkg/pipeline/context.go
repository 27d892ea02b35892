package pipeline

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Context is an immutable ordered mapping from string keys to arbitrary values,
// threaded through a chain run. The zero value is an empty, usable Context.
//
// Every mutation goes through Insert, which returns a new Context; the receiver
// is never modified. Two runs therefore never share intermediate state, and a
// caller holding an earlier Context keeps an unchanged view.
type Context struct {
	keys   []string
	values map[string]any
}

// NewContext builds a Context from the caller's input map. Keys are recorded in
// sorted order so runs over equal inputs are deterministic regardless of map
// iteration order. A nil input yields an empty Context.
func NewContext(input map[string]any) Context {
	if len(input) == 0 {
		return Context{}
	}
	keys := make([]string, 0, len(input))
	for k := range input {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]any, len(input))
	for k, v := range input {
		values[k] = v
	}
	return Context{keys: keys, values: values}
}

// Insert returns a new Context equal to the receiver except that key now maps
// to value. Re-inserting an existing key overwrites the value but keeps the
// key's original position.
func (c Context) Insert(key string, value any) Context {
	next := Context{
		keys:   make([]string, len(c.keys), len(c.keys)+1),
		values: make(map[string]any, len(c.values)+1),
	}
	copy(next.keys, c.keys)
	for k, v := range c.values {
		next.values[k] = v
	}
	if _, exists := next.values[key]; !exists {
		next.keys = append(next.keys, key)
	}
	next.values[key] = value
	return next
}

// Get returns the value stored under key. The second return reports presence;
// a missing key is not an error.
func (c Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Value returns the value stored under key, or nil when absent.
func (c Context) Value(key string) any {
	return c.values[key]
}

// Has reports whether key is present.
func (c Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// String returns the value under key as a string. The second return is false
// when the key is absent or holds a non-string value.
func (c Context) String(key string) (string, bool) {
	s, ok := c.values[key].(string)
	return s, ok
}

// Len returns the number of keys.
func (c Context) Len() int {
	return len(c.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (c Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// ToMap returns an independent snapshot of all keys and values. Mutating the
// returned map does not affect the Context. Used at the chain boundary to hand
// data back to callers outside the engine.
func (c Context) ToMap() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Decode folds the map-shaped value under key into out using mapstructure,
// honoring `json` tags so payloads decoded from collaborator responses map
// cleanly onto domain structs.
func (c Context) Decode(key string, out any) error {
	v, ok := c.values[key]
	if !ok {
		return fmt.Errorf("context key %q is absent", key)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("build decoder for %q: %w", key, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode context key %q: %w", key, err)
	}
	return nil
}
