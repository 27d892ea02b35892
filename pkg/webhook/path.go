package webhook

import (
	"strconv"
	"strings"
)

// lookupPath resolves a "$."-prefixed dotted path against a decoded JSON
// document. Segments descend object keys; a trailing "[n]" on a segment
// indexes into an array. Covers everything the tool configs express; full
// JSONPath (wildcards, filters) is out of scope.
func lookupPath(doc map[string]any, expr string) (any, bool) {
	expr = strings.TrimPrefix(expr, "$.")
	if expr == "" {
		return nil, false
	}

	var current any = doc
	for _, seg := range strings.Split(expr, ".") {
		key, index, indexed := splitIndex(seg)

		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}

		if indexed {
			arr, ok := current.([]any)
			if !ok || index < 0 || index >= len(arr) {
				return nil, false
			}
			current = arr[index]
		}
	}
	return current, true
}

// splitIndex splits "items[2]" into ("items", 2, true); a plain segment
// comes back unindexed.
func splitIndex(seg string) (string, int, bool) {
	open := strings.IndexByte(seg, '[')
	if open < 0 || !strings.HasSuffix(seg, "]") {
		return seg, 0, false
	}
	n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil {
		return seg, 0, false
	}
	return seg[:open], n, true
}
