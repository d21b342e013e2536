package util

import (
	"fmt"
	"unicode/utf8"
)

// FormatDeltaMs renders an inter-event gap. Unknown or non-positive
// deltas render as the empty string.
func FormatDeltaMs(ms *int64) string {
	if ms == nil || *ms <= 0 {
		return ""
	}
	v := *ms
	if v < 1000 {
		return fmt.Sprintf("+%dms", v)
	}
	if v < 60_000 {
		return fmt.Sprintf("+%.1fs", float64(v)/1000)
	}
	return fmt.Sprintf("+%dm %02ds", v/60_000, (v%60_000)/1000)
}

// FormatOffsetMs renders the offset from session start as "t" plus the
// delta notation; the first event of a session renders as a bare "t".
func FormatOffsetMs(ms *int64) string {
	if ms == nil {
		return ""
	}
	return "t" + FormatDeltaMs(ms)
}

// FormatDurationMs renders a session duration, scaling the unit with
// magnitude. Non-positive durations render as the empty string.
func FormatDurationMs(ms int64) string {
	if ms <= 0 {
		return ""
	}
	if ms < 60_000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	if ms < 3_600_000 {
		return fmt.Sprintf("%dm %02ds", ms/60_000, (ms%60_000)/1000)
	}
	return fmt.Sprintf("%dh %dm", ms/3_600_000, (ms%3_600_000)/60_000)
}

// FormatCount renders an integer with comma separators for thousands.
func FormatCount(n int64) string {
	str := fmt.Sprintf("%d", n)
	neg := false
	if str[0] == '-' {
		neg = true
		str = str[1:]
	}

	if len(str) > 3 {
		chars := []rune(str)
		result := []rune{}
		for i := len(chars) - 1; i >= 0; i-- {
			if len(result) > 0 && len(result)%4 == 3 {
				result = append([]rune{','}, result...)
			}
			result = append([]rune{chars[i]}, result...)
		}
		str = string(result)
	}

	if neg {
		return "-" + str
	}
	return str
}

// TruncateRunes cuts s to at most max runes without any marker.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// Ellipsize cuts s to max runes and appends an ellipsis when it was
// longer.
func Ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return TruncateRunes(s, max) + "…"
}
