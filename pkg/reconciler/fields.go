package reconciler

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// keyIndex is a case-normalized view of one JSON object, built once per
// payload so alias lookups are map hits instead of repeated scans.
type keyIndex map[string]interface{}

// newKeyIndex returns nil when v is not a keyed structure.
func newKeyIndex(v interface{}) keyIndex {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	idx := make(keyIndex, len(m))
	for k, val := range m {
		lk := strings.ToLower(k)
		if _, exists := idx[lk]; !exists {
			idx[lk] = val
		}
	}
	return idx
}

// resolve tries each alias in order, case-insensitively, and returns the
// first match. Pure lookup; the index is never mutated.
func (idx keyIndex) resolve(aliases ...string) (interface{}, bool) {
	if idx == nil {
		return nil, false
	}
	for _, alias := range aliases {
		if v, ok := idx[strings.ToLower(alias)]; ok {
			return v, true
		}
	}
	return nil, false
}

// section locates a nested object under any of the given keys.
func (idx keyIndex) section(aliases []string) keyIndex {
	v, ok := idx.resolve(aliases...)
	if !ok {
		return nil
	}
	return newKeyIndex(v)
}

// entityString resolves a string field that may live in the entity's
// nested section or at the top level. Inside the section the bare aliases
// are accepted too; at top level only the prefixed spellings count, so a
// bare "id" never bleeds across entities.
func entityString(sec, top keyIndex, aliases []string, bare ...string) (string, bool) {
	if sec != nil {
		if v, ok := sec.resolve(append(append([]string{}, aliases...), bare...)...); ok {
			if s, ok := asString(v); ok {
				return s, true
			}
		}
	}
	if v, ok := top.resolve(aliases...); ok {
		return asString(v)
	}
	return "", false
}

// entityValue is entityString without the string coercion, for numeric
// fields like battery.
func entityValue(sec, top keyIndex, aliases []string, bare ...string) (interface{}, bool) {
	if sec != nil {
		if v, ok := sec.resolve(append(append([]string{}, aliases...), bare...)...); ok {
			return v, true
		}
	}
	return top.resolve(aliases...)
}

// asString coerces scalar JSON values to a trimmed, non-empty string.
func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		t := strings.TrimSpace(s)
		return t, t != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

// asFloat coerces scalar JSON values to a finite float64.
func asFloat(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
