package domain

import (
	"strings"
	"time"
)

// Fielder exposes an entity's named fields without reflection. Implementations
// return plain strings for enum-typed fields, time.Time for timestamps,
// []string for tags, and native numerics otherwise; the second return is false
// for unknown names.
type Fielder interface {
	Field(name string) (any, bool)
}

// CompareField orders a against b by the named field: strings lexicographically
// (ISO-8601 strings compared as time values), timestamps as time, numbers by
// value. Entities missing the field sort before entities that have it. The
// result follows the usual -1/0/+1 convention.
func CompareField(a, b Fielder, field string) int {
	av, aok := a.Field(field)
	bv, bok := b.Field(field)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}
	return compareValues(av, bv)
}

func compareValues(av, bv any) int {
	if as, ok := av.(string); ok {
		if bs, ok := bv.(string); ok {
			// Timestamp fields may travel as ISO-8601 strings when an entity
			// came straight off the wire; compare those as time values.
			at, aerr := time.Parse(time.RFC3339, as)
			bt, berr := time.Parse(time.RFC3339, bs)
			if aerr == nil && berr == nil {
				return compareTimes(at, bt)
			}
			return strings.Compare(as, bs)
		}
	}
	if at, ok := av.(time.Time); ok {
		if bt, ok := bv.(time.Time); ok {
			return compareTimes(at, bt)
		}
	}
	if af, ok := asFloat(av); ok {
		if bf, ok := asFloat(bv); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func fieldString(e Fielder, name string) string {
	v, ok := e.Field(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func fieldTags(e Fielder) []string {
	v, ok := e.Field("tags")
	if !ok {
		return nil
	}
	tags, _ := v.([]string)
	return tags
}
