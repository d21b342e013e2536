// Package aggregator folds normalized events into per-session summary
// records: activity bounds, token totals, tool-call counts, and the
// first real user message of each session.
package aggregator

import (
	"sort"
	"strings"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// PreviewMaxLen is the length the first-user-message preview is cut to.
const PreviewMaxLen = 200

// commandEchoPrefixes mark user rows that are internal command echoes
// rather than something the user typed.
var commandEchoPrefixes = []string{
	"<local-command",
	"<command-name>",
}

// Summarize folds all events of one (source, session) into a summary.
// Parse-error sentinels are excluded from every statistic; identity
// fields come from the first event so a session of nothing but parse
// errors still yields a well-formed, zero-valued record.
func Summarize(events []model.Event) model.SessionSummary {
	var summary model.SessionSummary
	if len(events) == 0 {
		return summary
	}

	first := events[0]
	summary.Source = first.Source
	summary.SessionID = first.SessionID
	summary.ProjectPath = first.ProjectPath
	summary.IsAgent = first.IsAgent

	for i := range events {
		ev := &events[i]
		if ev.IsParseError() {
			continue
		}
		summary.EventCount++

		if summary.Slug == nil && ev.Slug != nil {
			summary.Slug = ev.Slug
		}

		if ev.Timestamp != nil {
			if summary.FirstSeen == nil || ev.Timestamp.Before(*summary.FirstSeen) {
				summary.FirstSeen = ev.Timestamp
			}
			if summary.LastSeen == nil || ev.Timestamp.After(*summary.LastSeen) {
				summary.LastSeen = ev.Timestamp
			}
		}

		if ev.ToolName != nil {
			summary.ToolCallCount++
		}
		if ev.InputTokens != nil {
			summary.TotalInputTokens += *ev.InputTokens
		}
		if ev.OutputTokens != nil {
			summary.TotalOutputTokens += *ev.OutputTokens
		}
		if ev.CacheCreationTokens != nil {
			summary.TotalCacheCreationTokens += *ev.CacheCreationTokens
		}
		if ev.CacheReadTokens != nil {
			summary.TotalCacheReadTokens += *ev.CacheReadTokens
		}

		if summary.FirstUserMessagePreview == "" && isFirstMessageCandidate(ev) {
			summary.FirstUserMessagePreview = util.TruncateRunes(*ev.MessageContent, PreviewMaxLen)
		}
	}

	return summary
}

// isFirstMessageCandidate reports whether an event can serve as the
// session's first-message preview: a user message with real content
// that is not an internal command echo.
func isFirstMessageCandidate(ev *model.Event) bool {
	if ev.MessageType != model.TypeUser || ev.MessageContent == nil || *ev.MessageContent == "" {
		return false
	}
	for _, prefix := range commandEchoPrefixes {
		if strings.HasPrefix(*ev.MessageContent, prefix) {
			return false
		}
	}
	return true
}

// AggregateAll groups a mixed event stream by (source, session) and
// summarizes each group. Sessions whose events are all parse errors
// are dropped, matching their absence from the event_count statistic.
// The result is ordered newest-first by first activity, sessions
// without any timestamp last.
func AggregateAll(events []model.Event) []model.SessionSummary {
	groups := make(map[string][]model.Event)
	order := make([]string, 0)
	for _, ev := range events {
		key := string(ev.Source) + "|" + ev.SessionID
		if _, exists := groups[key]; !exists {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ev)
	}

	result := make([]model.SessionSummary, 0, len(groups))
	for _, key := range order {
		summary := Summarize(groups[key])
		if summary.EventCount == 0 {
			continue
		}
		result = append(result, summary)
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		switch {
		case a.FirstSeen == nil && b.FirstSeen == nil:
			if a.Source != b.Source {
				return a.Source < b.Source
			}
			return a.SessionID < b.SessionID
		case a.FirstSeen == nil:
			return false
		case b.FirstSeen == nil:
			return true
		case !a.FirstSeen.Equal(*b.FirstSeen):
			return a.FirstSeen.After(*b.FirstSeen)
		default:
			if a.Source != b.Source {
				return a.Source < b.Source
			}
			return a.SessionID < b.SessionID
		}
	})

	return result
}
