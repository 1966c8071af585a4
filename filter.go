package proxima

import (
	"reflect"
	"strings"
)

// matchesFilter evaluates a flat metadata predicate. Each filter entry must
// hold: a scalar (or nested structure) compared for equality, or an operator
// map ($in, $gt, $gte, $lt, $lte, $ne) applied to the stored value.
func matchesFilter(meta, filter map[string]any) bool {
	for key, cond := range filter {
		val, present := meta[key]

		if ops, ok := operatorMap(cond); ok {
			if !matchesOperators(val, present, ops) {
				return false
			}
			continue
		}
		if !present || !equalValues(val, cond) {
			return false
		}
	}
	return true
}

// operatorMap reports whether a filter condition is an operator map: a
// map[string]any whose keys all start with '$'.
func operatorMap(cond any) (map[string]any, bool) {
	m, ok := cond.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func matchesOperators(val any, present bool, ops map[string]any) bool {
	for op, want := range ops {
		switch op {
		case "$in":
			if !present || !valueIn(val, want) {
				return false
			}
		case "$ne":
			if present && equalValues(val, want) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			// Numeric comparisons short-circuit to false for non-numeric
			// stored values.
			have, ok1 := toFloat(val)
			limit, ok2 := toFloat(want)
			if !present || !ok1 || !ok2 {
				return false
			}
			switch op {
			case "$gt":
				if !(have > limit) {
					return false
				}
			case "$gte":
				if !(have >= limit) {
					return false
				}
			case "$lt":
				if !(have < limit) {
					return false
				}
			case "$lte":
				if !(have <= limit) {
					return false
				}
			}
		default:
			// Unknown operators never match.
			return false
		}
	}
	return true
}

func valueIn(val, list any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if equalValues(val, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// equalValues compares a stored metadata value with a filter value. Numeric
// values compare by magnitude regardless of their Go type; everything else
// compares by deep equality.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
