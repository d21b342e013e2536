package aggregator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

func at(sec int) *time.Time {
	t := time.Date(2024, 6, 1, 10, 0, sec, 0, time.UTC)
	return &t
}

func userEvent(seq int64, content string) model.Event {
	return model.Event{
		Source:      model.SourceClaude,
		SessionID:   "s1",
		Sequence:    seq,
		MessageType: model.TypeUser,
		MessageContent: model.String(content),
		Timestamp:   at(int(seq)),
	}
}

func TestSummarize(t *testing.T) {
	t.Run("empty input yields zero summary", func(t *testing.T) {
		summary := Summarize(nil)
		assert.Zero(t, summary.EventCount)
		assert.Nil(t, summary.FirstSeen)
		assert.Nil(t, summary.LastSeen)
	})

	t.Run("counts sums and bounds", func(t *testing.T) {
		events := []model.Event{
			{
				Source: model.SourceClaude, SessionID: "s1", ProjectPath: "/work/alpha",
				Sequence: 1, MessageType: model.TypeUser,
				MessageContent: model.String("hello"), Timestamp: at(5),
			},
			{
				Source: model.SourceClaude, SessionID: "s1", ProjectPath: "/work/alpha",
				Sequence: 2, MessageType: model.TypeAssistant,
				ToolName: model.String("Bash"), Timestamp: at(1),
				InputTokens: model.Int64(100), OutputTokens: model.Int64(50),
				CacheCreationTokens: model.Int64(10), CacheReadTokens: model.Int64(5),
			},
			{
				Source: model.SourceClaude, SessionID: "s1", ProjectPath: "/work/alpha",
				Sequence: 3, MessageType: model.TypeToolStart,
				ToolName: model.String("Bash"), Timestamp: at(9),
			},
			{
				Source: model.SourceClaude, SessionID: "s1", ProjectPath: "/work/alpha",
				Sequence: 4, MessageType: model.TypeAssistant,
				InputTokens: model.Int64(200), OutputTokens: model.Int64(75),
			},
		}

		summary := Summarize(events)
		assert.Equal(t, model.SourceClaude, summary.Source)
		assert.Equal(t, "s1", summary.SessionID)
		assert.Equal(t, "/work/alpha", summary.ProjectPath)
		assert.Equal(t, int64(4), summary.EventCount)
		assert.Equal(t, int64(2), summary.ToolCallCount)
		assert.Equal(t, int64(300), summary.TotalInputTokens)
		assert.Equal(t, int64(125), summary.TotalOutputTokens)
		assert.Equal(t, int64(10), summary.TotalCacheCreationTokens)
		assert.Equal(t, int64(5), summary.TotalCacheReadTokens)
		require.NotNil(t, summary.FirstSeen)
		require.NotNil(t, summary.LastSeen)
		assert.Equal(t, *at(1), *summary.FirstSeen)
		assert.Equal(t, *at(9), *summary.LastSeen)
		assert.Equal(t, "hello", summary.FirstUserMessagePreview)
	})

	t.Run("parse errors excluded from every statistic", func(t *testing.T) {
		events := []model.Event{
			{
				Source: model.SourceClaude, SessionID: "s1", Sequence: 1,
				MessageType: model.TypeParseError,
				MessageContent: model.String("Parse error: bad json"),
				Timestamp:      at(0),
			},
			userEvent(2, "real question"),
		}

		summary := Summarize(events)
		assert.Equal(t, int64(1), summary.EventCount)
		assert.Equal(t, *at(2), *summary.FirstSeen)
		assert.Equal(t, "real question", summary.FirstUserMessagePreview)
	})

	t.Run("all parse errors keeps identity with zero stats", func(t *testing.T) {
		events := []model.Event{
			{Source: model.SourceCopilot, SessionID: "broken", Sequence: 1, MessageType: model.TypeParseError},
		}
		summary := Summarize(events)
		assert.Equal(t, model.SourceCopilot, summary.Source)
		assert.Equal(t, "broken", summary.SessionID)
		assert.Zero(t, summary.EventCount)
		assert.Nil(t, summary.FirstSeen)
	})

	t.Run("slug taken from first event that has one", func(t *testing.T) {
		events := []model.Event{
			userEvent(1, "q"),
			{Source: model.SourceClaude, SessionID: "s1", Sequence: 2, MessageType: model.TypeAssistant, Slug: model.String("first-slug")},
			{Source: model.SourceClaude, SessionID: "s1", Sequence: 3, MessageType: model.TypeAssistant, Slug: model.String("later-slug")},
		}
		summary := Summarize(events)
		require.NotNil(t, summary.Slug)
		assert.Equal(t, "first-slug", *summary.Slug)
	})
}

func TestFirstUserMessageSelection(t *testing.T) {
	t.Run("command echoes are skipped", func(t *testing.T) {
		events := []model.Event{
			userEvent(1, "<command-name>/clear</command-name>"),
			userEvent(2, "<local-command-stdout></local-command-stdout>"),
			userEvent(3, "actual question"),
			userEvent(4, "second question"),
		}
		summary := Summarize(events)
		assert.Equal(t, "actual question", summary.FirstUserMessagePreview)
	})

	t.Run("empty content is skipped", func(t *testing.T) {
		events := []model.Event{
			userEvent(1, ""),
			userEvent(2, "first real one"),
		}
		summary := Summarize(events)
		assert.Equal(t, "first real one", summary.FirstUserMessagePreview)
	})

	t.Run("non-user events never provide the preview", func(t *testing.T) {
		events := []model.Event{
			{
				Source: model.SourceClaude, SessionID: "s1", Sequence: 1,
				MessageType: model.TypeAssistant, MessageContent: model.String("assistant text"),
			},
		}
		summary := Summarize(events)
		assert.Empty(t, summary.FirstUserMessagePreview)
	})

	t.Run("preview cut to limit without ellipsis", func(t *testing.T) {
		long := strings.Repeat("x", 500)
		summary := Summarize([]model.Event{userEvent(1, long)})
		assert.Equal(t, PreviewMaxLen, len(summary.FirstUserMessagePreview))
		assert.Equal(t, strings.Repeat("x", PreviewMaxLen), summary.FirstUserMessagePreview)
	})
}

func TestAggregateAll(t *testing.T) {
	t.Run("groups by source and session", func(t *testing.T) {
		events := []model.Event{
			{Source: model.SourceClaude, SessionID: "shared", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(1)},
			{Source: model.SourceCopilot, SessionID: "shared", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(2)},
			{Source: model.SourceClaude, SessionID: "other", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(3)},
		}
		summaries := AggregateAll(events)
		require.Len(t, summaries, 3)
	})

	t.Run("ordered newest first with unknown timestamps last", func(t *testing.T) {
		events := []model.Event{
			{Source: model.SourceClaude, SessionID: "old", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(1)},
			{Source: model.SourceClaude, SessionID: "new", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(30)},
			{Source: model.SourceClaude, SessionID: "undated", Sequence: 1, MessageType: model.TypeUser},
		}
		summaries := AggregateAll(events)
		require.Len(t, summaries, 3)
		assert.Equal(t, "new", summaries[0].SessionID)
		assert.Equal(t, "old", summaries[1].SessionID)
		assert.Equal(t, "undated", summaries[2].SessionID)
	})

	t.Run("sessions of only parse errors are dropped", func(t *testing.T) {
		events := []model.Event{
			{Source: model.SourceClaude, SessionID: "ok", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(1)},
			{Source: model.SourceClaude, SessionID: "broken", Sequence: 1, MessageType: model.TypeParseError},
		}
		summaries := AggregateAll(events)
		require.Len(t, summaries, 1)
		assert.Equal(t, "ok", summaries[0].SessionID)
	})

	t.Run("event counts across summaries cover every good event", func(t *testing.T) {
		events := []model.Event{
			{Source: model.SourceClaude, SessionID: "a", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(1)},
			{Source: model.SourceClaude, SessionID: "a", Sequence: 2, MessageType: model.TypeAssistant, Timestamp: at(2)},
			{Source: model.SourceClaude, SessionID: "a", Sequence: 3, MessageType: model.TypeParseError},
			{Source: model.SourceCopilot, SessionID: "b", Sequence: 1, MessageType: model.TypeUser, Timestamp: at(3)},
		}
		summaries := AggregateAll(events)

		var total int64
		for _, s := range summaries {
			total += s.EventCount
		}
		var good int64
		for _, ev := range events {
			if !ev.IsParseError() {
				good++
			}
		}
		assert.Equal(t, good, total)
	})
}
