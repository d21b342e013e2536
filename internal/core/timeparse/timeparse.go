// Package timeparse resolves the timestamp representations found in agent
// session logs into canonical UTC instants. Parsing never fails hard: a
// value that cannot be resolved reports ok=false and the caller carries
// the event with an unknown timestamp instead of dropping it.
package timeparse

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Values some producers write in place of a missing timestamp.
var nullSentinels = map[string]struct{}{
	"":     {},
	"None": {},
	"NaT":  {},
	"nan":  {},
}

// Fixed layouts tried in order before falling back to a generic parse.
// Go accepts fractional seconds after the seconds field even when the
// layout omits them, so three layouts cover both producers' ISO-8601
// variants with and without milliseconds.
var layouts = []string{
	time.RFC3339,                // trailing Z or ±hh:mm offset
	"2006-01-02T15:04:05Z0700",  // ±hhmm offset without colon
	"2006-01-02T15:04:05",       // naive, assumed UTC
}

// ParseString resolves a raw timestamp string. The second return value
// is false when the string is a null sentinel or no parse succeeds.
func ParseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if _, bad := nullSentinels[s]; bad {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ParseMillis converts an epoch-milliseconds value.
func ParseMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Parse resolves any scalar shape a timestamp field may arrive in:
// string, numeric epoch milliseconds, or nothing at all.
func Parse(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case string:
		return ParseString(x)
	case *string:
		if x == nil {
			return time.Time{}, false
		}
		return ParseString(*x)
	case int64:
		return ParseMillis(x), true
	case int:
		return ParseMillis(int64(x)), true
	case float64:
		return ParseMillis(int64(x)), true
	case time.Time:
		return x.UTC(), true
	}
	return time.Time{}, false
}
