package reconciler

import (
	"math"
	"regexp"
	"strings"
	"time"
)

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// SlugID derives a stable identifier from a human-readable name:
// lower-case, runs of anything outside [a-z0-9] collapse to one hyphen,
// leading/trailing hyphens trimmed. Two names that slugify identically
// share an identifier and merge; that is accepted behavior.
func SlugID(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

// NormalizeBattery coerces a battery reading of unknown scale into an
// integer percentage. Values at or below 1 are read as fractions and
// multiplied by 100; anything above 100 clamps to 100. Non-numeric or
// non-finite input returns ok=false and the field is treated as absent.
func NormalizeBattery(v interface{}) (int, bool) {
	f, ok := asFloat(v)
	if !ok {
		return 0, false
	}
	if f <= 1 {
		f *= 100
	}
	n := int(math.Round(f))
	if n > 100 {
		n = 100
	}
	if n < 0 {
		n = 0
	}
	return n, true
}

// parseTimestamp reads a payload timestamp: numbers are Unix seconds
// (milliseconds when implausibly large), strings are tried against a few
// common layouts. Anything else falls back to now.
func parseTimestamp(v interface{}, now time.Time) time.Time {
	if f, ok := asFloat(v); ok && f > 0 {
		if f > 1e12 {
			return time.UnixMilli(int64(f)).UTC()
		}
		return time.Unix(int64(f), 0).UTC()
	}
	if s, ok := v.(string); ok {
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				return t.UTC()
			}
		}
	}
	return now
}
