package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

func derived(seq int64, msgType model.MessageType, content, tool string) model.DerivedEvent {
	ev := model.Event{Sequence: seq, MessageType: msgType}
	if content != "" {
		ev.MessageContent = model.String(content)
	}
	if tool != "" {
		ev.ToolName = model.String(tool)
	}
	return model.DerivedEvent{Event: ev}
}

func sampleEvents() []model.DerivedEvent {
	return []model.DerivedEvent{
		derived(1, model.TypeSessionStart, "", ""),
		derived(2, model.TypeUser, "please Fix the build", ""),
		derived(3, model.TypeTurnStart, "", ""),
		derived(4, model.TypeAssistant, "on it", ""),
		derived(5, model.TypeToolStart, "", "Bash"),
		derived(6, model.TypeToolResult, "build fixed", "Bash"),
		derived(7, model.TypeTruncation, "", ""),
		derived(8, model.TypeTurnEnd, "", ""),
		derived(9, model.TypeCompactionStart, "", ""),
		derived(10, model.TypeCompactionComplete, "", ""),
	}
}

func sequences(events []model.DerivedEvent) []int64 {
	out := make([]int64, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Sequence)
	}
	return out
}

func TestApply(t *testing.T) {
	events := sampleEvents()

	t.Run("zero spec passes everything in order", func(t *testing.T) {
		got := Apply(events, Spec{})
		assert.Equal(t, sequences(events), sequences(got))
	})

	t.Run("type allowlist", func(t *testing.T) {
		got := Apply(events, Spec{Types: []string{"user", "assistant"}})
		assert.Equal(t, []int64{2, 4}, sequences(got))
	})

	t.Run("hide noise drops turn and truncation markers", func(t *testing.T) {
		got := Apply(events, Spec{HideNoise: true})
		assert.Equal(t, []int64{1, 2, 4, 5, 6}, sequences(got))
	})

	t.Run("search is case-insensitive over content", func(t *testing.T) {
		got := Apply(events, Spec{Search: "fix"})
		assert.Equal(t, []int64{2, 6}, sequences(got))
	})

	t.Run("search matches tool name", func(t *testing.T) {
		got := Apply(events, Spec{Search: "bash"})
		assert.Equal(t, []int64{5, 6}, sequences(got))
	})

	t.Run("search matches message type", func(t *testing.T) {
		got := Apply(events, Spec{Search: "compaction"})
		assert.Equal(t, []int64{9, 10}, sequences(got))
	})

	t.Run("predicates compose by AND", func(t *testing.T) {
		got := Apply(events, Spec{Types: []string{"tool_result", "truncation"}, HideNoise: true, Search: "build"})
		assert.Equal(t, []int64{6}, sequences(got))
	})

	t.Run("no matches yields empty not nil panic", func(t *testing.T) {
		got := Apply(events, Spec{Search: "no such text anywhere"})
		assert.Empty(t, got)
	})

	t.Run("input is not mutated across repeated passes", func(t *testing.T) {
		before := sequences(events)
		Apply(events, Spec{Types: []string{"user"}})
		Apply(events, Spec{HideNoise: true, Search: "bash"})
		assert.Equal(t, before, sequences(events))
		require.Len(t, events, 10)
	})
}
