package chains

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
)

// Well-known context keys shared by the view chains.
const (
	// KeyFilters and KeySort carry the caller's options into a run.
	KeyFilters = "filters"
	KeySort    = "sort"
	// KeyResult is where the extract link republishes the final collection.
	KeyResult = "result"
	// KeyFetchTimestamp records when the raw collection was fetched.
	KeyFetchTimestamp = "fetch_timestamp"
)

// defaultSort is the ordering applied when a caller passes no SortOptions.
// Every entity aliases its creation moment under "created_at".
var defaultSort = domain.SortOptions{Field: "created_at", Direction: domain.SortDesc}

// fetchLink calls the collaborator and inserts the raw collection under rawKey
// plus the fetch timestamp. The timestamp is a recorded value only; no edge
// predicate may branch on it.
func fetchLink[T domain.Fielder](rawKey string, fetch func(context.Context) ([]T, error)) pipeline.Link {
	return pipeline.LinkFunc(func(ctx context.Context, c pipeline.Context) (pipeline.Context, error) {
		items, err := fetch(ctx)
		if err != nil {
			return pipeline.Context{}, err
		}
		c = c.Insert(rawKey, items)
		return c.Insert(KeyFetchTimestamp, time.Now().UTC()), nil
	})
}

// filterLink applies the run's FilterOptions to the collection under inKey and
// inserts the result under outKey. Absent or zero options pass the collection
// through untouched, same elements in the same order.
func filterLink[T domain.Fielder](inKey, outKey string) pipeline.Link {
	return pipeline.LinkFunc(func(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
		items, err := collection[T](c, "filter", inKey)
		if err != nil {
			return pipeline.Context{}, err
		}
		opts := filterOptions(c)
		if opts.IsZero() {
			return c.Insert(outKey, items), nil
		}
		filtered := make([]T, 0, len(items))
		for _, item := range items {
			if opts.Matches(item) {
				filtered = append(filtered, item)
			}
		}
		return c.Insert(outKey, filtered), nil
	})
}

// sortLink stable-sorts the collection under inKey by the run's SortOptions
// (falling back to the default ordering) and inserts the sorted copy under
// outKey. The input slice is never reordered in place.
func sortLink[T domain.Fielder](inKey, outKey string) pipeline.Link {
	return pipeline.LinkFunc(func(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
		items, err := collection[T](c, "sort", inKey)
		if err != nil {
			return pipeline.Context{}, err
		}
		opts := sortOptions(c)
		if opts.IsZero() {
			opts = defaultSort
		}
		sorted := make([]T, len(items))
		copy(sorted, items)
		sort.SliceStable(sorted, func(i, j int) bool {
			return opts.Less(sorted[i], sorted[j])
		})
		return c.Insert(outKey, sorted), nil
	})
}

// extractLink republishes the collection under KeyResult so Execute can return
// the domain slice directly instead of the whole context.
func extractLink[T domain.Fielder](inKey string) pipeline.Link {
	return pipeline.LinkFunc(func(_ context.Context, c pipeline.Context) (pipeline.Context, error) {
		items, err := collection[T](c, "extract", inKey)
		if err != nil {
			return pipeline.Context{}, err
		}
		return c.Insert(KeyResult, items), nil
	})
}

// newViewChain wires the canonical fetch → filter → sort → extract graph for
// one resource. Edges gate on the upstream key being present, mirroring the
// linear wiring every view uses today while leaving room for branches.
func newViewChain[T domain.Fielder](name, rawKey string, fetch func(context.Context) ([]T, error), opts []pipeline.Option) *pipeline.Chain {
	filteredKey := rawKey + "_filtered"
	sortedKey := rawKey + "_sorted"
	return pipeline.New(name, opts...).
		AddLink("fetch", fetchLink[T](rawKey, fetch)).
		AddLink("filter", filterLink[T](rawKey, filteredKey)).
		AddLink("sort", sortLink[T](filteredKey, sortedKey)).
		AddLink("extract", extractLink[T](sortedKey)).
		Connect("fetch", "filter", func(c pipeline.Context) bool { return c.Has(rawKey) }).
		Connect("filter", "sort", func(c pipeline.Context) bool { return c.Has(filteredKey) }).
		Connect("sort", "extract", nil)
}

// executeView runs a view chain and returns the extracted collection.
func executeView[T domain.Fielder](ctx context.Context, ch *pipeline.Chain, filters *domain.FilterOptions, sortOpts *domain.SortOptions) ([]T, error) {
	input := make(map[string]any, 2)
	if filters != nil {
		input[KeyFilters] = *filters
	}
	if sortOpts != nil {
		input[KeySort] = *sortOpts
	}
	out, err := ch.Run(ctx, input)
	if err != nil {
		return nil, err
	}
	return collection[T](out, "extract", KeyResult)
}

// collection reads a []T from the context, reporting a ValidationError when the
// key is absent and a plain error when it holds something unexpected.
func collection[T domain.Fielder](c pipeline.Context, link, key string) ([]T, error) {
	v, ok := c.Get(key)
	if !ok {
		return nil, &pipeline.ValidationError{Link: link, MissingKeys: []string{key}}
	}
	items, ok := v.([]T)
	if !ok {
		return nil, fmt.Errorf("context key %q holds %T, not a collection", key, v)
	}
	return items, nil
}

func filterOptions(c pipeline.Context) domain.FilterOptions {
	switch v := c.Value(KeyFilters).(type) {
	case domain.FilterOptions:
		return v
	case *domain.FilterOptions:
		if v != nil {
			return *v
		}
	}
	return domain.FilterOptions{}
}

func sortOptions(c pipeline.Context) domain.SortOptions {
	switch v := c.Value(KeySort).(type) {
	case domain.SortOptions:
		return v
	case *domain.SortOptions:
		if v != nil {
			return *v
		}
	}
	return domain.SortOptions{}
}

// stringKey returns the non-empty string stored under key, or a ValidationError
// naming the key. Mutation links use this so an absent or blank id surfaces as
// a typed caller bug instead of a malformed collaborator request.
func stringKey(c pipeline.Context, link, key string) (string, error) {
	v, ok := c.Get(key)
	if !ok {
		return "", &pipeline.ValidationError{Link: link, MissingKeys: []string{key}}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &pipeline.ValidationError{Link: link, MissingKeys: []string{key}}
	}
	return s, nil
}
