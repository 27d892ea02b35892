package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

func TestContextInsertDoesNotMutateReceiver(t *testing.T) {
	base := pipeline.NewContext(map[string]any{"a": 1})

	next := base.Insert("b", 2)

	if _, ok := base.Get("b"); ok {
		t.Fatalf("insert mutated the receiver: key %q visible through old reference", "b")
	}
	v, ok := next.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	// Overwriting through the new Context must not leak back either.
	third := next.Insert("a", 99)
	a, _ := base.Get("a")
	assert.Equal(t, 1, a)
	a, _ = next.Get("a")
	assert.Equal(t, 1, a)
	a, _ = third.Get("a")
	assert.Equal(t, 99, a)
}

func TestContextGetMissingKey(t *testing.T) {
	var c pipeline.Context

	v, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.Nil(t, c.Value("nope"))
	assert.False(t, c.Has("nope"))
}

func TestContextKeyOrder(t *testing.T) {
	c := pipeline.NewContext(map[string]any{"b": 2, "a": 1})
	c = c.Insert("z", 3).Insert("a", 10)

	// Initial keys are sorted for determinism; later inserts append, and
	// re-inserting an existing key keeps its position.
	assert.Equal(t, []string{"a", "b", "z"}, c.Keys())
	assert.Equal(t, 3, c.Len())
}

func TestContextToMapIsASnapshot(t *testing.T) {
	c := pipeline.NewContext(map[string]any{"a": 1})

	m := c.ToMap()
	m["a"] = 42
	m["injected"] = true

	v, _ := c.Get("a")
	assert.Equal(t, 1, v)
	assert.False(t, c.Has("injected"))
}

func TestContextZeroValueUsable(t *testing.T) {
	var c pipeline.Context

	c = c.Insert("k", "v")

	s, ok := c.String("k")
	require.True(t, ok)
	assert.Equal(t, "v", s)
	assert.Equal(t, map[string]any{"k": "v"}, c.ToMap())
}

func TestContextString(t *testing.T) {
	c := pipeline.NewContext(map[string]any{"name": "deploy", "count": 3})

	s, ok := c.String("name")
	assert.True(t, ok)
	assert.Equal(t, "deploy", s)

	_, ok = c.String("count")
	assert.False(t, ok)
	_, ok = c.String("missing")
	assert.False(t, ok)
}

func TestContextDecode(t *testing.T) {
	type stats struct {
		Total int     `json:"total_queued"`
		Rate  float64 `json:"failure_rate"`
	}

	c := pipeline.NewContext(map[string]any{
		"stats": map[string]any{"total_queued": 7, "failure_rate": 0.25},
	})

	var out stats
	require.NoError(t, c.Decode("stats", &out))
	assert.Equal(t, 7, out.Total)
	assert.InDelta(t, 0.25, out.Rate, 1e-9)

	assert.Error(t, c.Decode("absent", &out))
}
