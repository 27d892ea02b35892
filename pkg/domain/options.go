package domain

import "strings"

// FilterOptions narrows a fetched collection. Every field is optional; an
// absent field means "no constraint" and the zero value passes everything
// through. Constraints combine with logical AND.
type FilterOptions struct {
	Status   string   `json:"status,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Region   string   `json:"region,omitempty"`
	PoolID   string   `json:"pool_id,omitempty"`
	Search   string   `json:"search,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// IsZero reports whether no constraint is set.
func (o FilterOptions) IsZero() bool {
	return o.Status == "" && o.Priority == "" && o.Region == "" &&
		o.PoolID == "" && o.Search == "" && len(o.Tags) == 0
}

// Matches reports whether the entity satisfies every set constraint. Status,
// priority, region and pool are exact matches; Search is a case-insensitive
// substring match against the entity's name; Tags requires every requested tag
// to be present.
func (o FilterOptions) Matches(e Fielder) bool {
	if o.Status != "" && fieldString(e, "status") != o.Status {
		return false
	}
	if o.Priority != "" && fieldString(e, "priority") != o.Priority {
		return false
	}
	if o.Region != "" && fieldString(e, "region") != o.Region {
		return false
	}
	if o.PoolID != "" && fieldString(e, "pool_id") != o.PoolID {
		return false
	}
	if o.Search != "" {
		name := strings.ToLower(fieldString(e, "name"))
		if !strings.Contains(name, strings.ToLower(o.Search)) {
			return false
		}
	}
	if len(o.Tags) > 0 {
		have := fieldTags(e)
		for _, want := range o.Tags {
			if !containsTag(have, want) {
				return false
			}
		}
	}
	return true
}

func containsTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// SortDirection orders a sorted collection.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOptions names the field to order by and the direction. The zero value
// requests the resource's default ordering (descending by creation time).
type SortOptions struct {
	Field     string        `json:"field,omitempty"`
	Direction SortDirection `json:"direction,omitempty"`
}

// IsZero reports whether no explicit ordering was requested.
func (o SortOptions) IsZero() bool {
	return o.Field == ""
}

// Less orders a before b under these options. Ties report false so a stable
// sort preserves the input's relative order.
func (o SortOptions) Less(a, b Fielder) bool {
	cmp := CompareField(a, b, o.Field)
	if o.Direction == SortDesc {
		return cmp > 0
	}
	return cmp < 0
}
