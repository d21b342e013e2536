package normalizer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

func copilotWorkspace() *model.CopilotWorkspace {
	return &model.CopilotWorkspace{
		Id:         "ws-session",
		Cwd:        "/Users/testuser/copilot-project",
		GitRoot:    "/Users/testuser/copilot-project",
		Repository: "testuser/copilot-project",
		Branch:     "main",
	}
}

func TestNewCopilotNormalizer(t *testing.T) {
	t.Run("workspace seeds identity", func(t *testing.T) {
		n := NewCopilotNormalizer("dir-name", copilotWorkspace())
		ev := n.NormalizeLine([]byte(`{"type":"assistant.turn_start","id":"e1"}`), 1)
		assert.Equal(t, "ws-session", ev.SessionID)
		assert.Equal(t, "/Users/testuser/copilot-project", ev.ProjectPath)
		assert.Equal(t, "main", *ev.GitBranch)
		assert.Equal(t, "testuser/copilot-project", *ev.Repository)
		require.NotNil(t, ev.Cwd)
		assert.Equal(t, "/Users/testuser/copilot-project", *ev.Cwd)
	})

	t.Run("directory name is the fallback session id", func(t *testing.T) {
		n := NewCopilotNormalizer("dir-name", nil)
		ev := n.NormalizeLine([]byte(`{"type":"assistant.turn_start"}`), 1)
		assert.Equal(t, "dir-name", ev.SessionID)
		assert.Empty(t, ev.ProjectPath)
		assert.Nil(t, ev.Cwd)
	})
}

func TestCopilotSessionStart(t *testing.T) {
	n := NewCopilotNormalizer("dir-name", nil)
	line := `{
		"type": "session.start",
		"id": "e1",
		"timestamp": "2024-06-01T10:00:00.000Z",
		"data": {
			"sessionId": "real-session",
			"copilotVersion": "0.0.330",
			"context": {
				"cwd": "/Users/testuser/work",
				"gitRoot": "/Users/testuser/work",
				"branch": "feature/x",
				"repository": "testuser/work"
			}
		}
	}`

	ev := n.NormalizeLine([]byte(line), 1)
	assert.Equal(t, model.TypeSessionStart, ev.MessageType)
	assert.Nil(t, ev.MessageRole)

	// The event itself already reflects the metadata it announces.
	assert.Equal(t, "real-session", ev.SessionID)
	assert.Equal(t, "/Users/testuser/work", ev.ProjectPath)
	assert.Equal(t, "feature/x", *ev.GitBranch)
	assert.Equal(t, "testuser/work", *ev.Repository)
	assert.Equal(t, "0.0.330", *ev.Version)
	require.NotNil(t, ev.Timestamp)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), *ev.Timestamp)

	// Later events inherit everything.
	next := n.NormalizeLine([]byte(`{"type":"assistant.turn_start","id":"e2"}`), 2)
	assert.Equal(t, "real-session", next.SessionID)
	assert.Equal(t, "/Users/testuser/work", next.ProjectPath)
	assert.Equal(t, "0.0.330", *next.Version)
}

func TestCopilotTypeMapping(t *testing.T) {
	tests := []struct {
		rawType  string
		wantType model.MessageType
		wantRole string
	}{
		{"user.message", model.TypeUser, "user"},
		{"assistant.message", model.TypeAssistant, "assistant"},
		{"assistant.reasoning", model.TypeReasoning, "assistant"},
		{"assistant.turn_start", model.TypeTurnStart, "assistant"},
		{"assistant.turn_end", model.TypeTurnEnd, "assistant"},
		{"tool.execution_start", model.TypeToolStart, "tool"},
		{"tool.execution_complete", model.TypeToolResult, "tool"},
		{"session.start", model.TypeSessionStart, ""},
		{"session.resume", model.TypeSessionResume, ""},
		{"session.info", model.TypeSessionInfo, ""},
		{"session.error", model.TypeSessionError, ""},
		{"session.truncation", model.TypeTruncation, ""},
		{"session.compaction_start", model.TypeCompactionStart, ""},
		{"session.compaction_complete", model.TypeCompactionComplete, ""},
		{"session.model_change", model.TypeModelChange, ""},
		{"abort", model.TypeAbort, ""},
		{"totally.new.event", model.TypeUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.rawType, func(t *testing.T) {
			n := NewCopilotNormalizer("dir", nil)
			ev := n.NormalizeLine([]byte(`{"type":"`+tt.rawType+`"}`), 1)
			assert.Equal(t, tt.wantType, ev.MessageType)
			if tt.wantRole == "" {
				assert.Nil(t, ev.MessageRole)
			} else {
				require.NotNil(t, ev.MessageRole)
				assert.Equal(t, tt.wantRole, *ev.MessageRole)
			}
		})
	}
}

func TestCopilotPayloadExtraction(t *testing.T) {
	t.Run("user message", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		ev := n.NormalizeLine([]byte(`{"type":"user.message","data":{"content":"run the tests"}}`), 1)
		require.NotNil(t, ev.MessageContent)
		assert.Equal(t, "run the tests", *ev.MessageContent)
	})

	t.Run("assistant message with tool requests", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		line := `{"type":"assistant.message","data":{
			"messageId":"m1",
			"content":"Let me run that.",
			"toolRequests":[
				{"toolCallId":"c1","name":"bash","arguments":{"command":"go test"}},
				{"toolCallId":"c2","name":"view","arguments":{"path":"x"}}
			]
		}}`
		ev := n.NormalizeLine([]byte(line), 1)
		assert.Equal(t, "Let me run that.", *ev.MessageContent)
		assert.Equal(t, "bash", *ev.ToolName)
		assert.Equal(t, "c1", *ev.ToolUseID)
		require.NotNil(t, ev.ToolInput)
		assert.JSONEq(t, `{"command":"go test"}`, *ev.ToolInput)
	})

	t.Run("reasoning", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		ev := n.NormalizeLine([]byte(`{"type":"assistant.reasoning","data":{"content":"thinking it through"}}`), 1)
		assert.Equal(t, "thinking it through", *ev.MessageContent)
	})

	t.Run("tool execution start", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		line := `{"type":"tool.execution_start","data":{"toolCallId":"c1","toolName":"bash","arguments":{"command":"ls"}}}`
		ev := n.NormalizeLine([]byte(line), 1)
		assert.Equal(t, "bash", *ev.ToolName)
		assert.Equal(t, "c1", *ev.ToolUseID)
		assert.JSONEq(t, `{"command":"ls"}`, *ev.ToolInput)
	})

	t.Run("tool execution complete has no tool name", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		line := `{"type":"tool.execution_complete","data":{"toolCallId":"c1","success":true,"result":{"content":"3 files"}}}`
		ev := n.NormalizeLine([]byte(line), 1)
		assert.Nil(t, ev.ToolName)
		assert.Equal(t, "c1", *ev.ToolUseID)
		require.NotNil(t, ev.MessageContent)
		assert.Equal(t, "3 files", *ev.MessageContent)
	})

	t.Run("truncation token counts", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		line := `{"type":"session.truncation","data":{"tokenLimit":500000,"preTruncationTokensInMessages":421000,"postTruncationTokensInMessages":198000}}`
		ev := n.NormalizeLine([]byte(line), 1)
		require.NotNil(t, ev.InputTokens)
		assert.Equal(t, int64(421000), *ev.InputTokens)
		assert.Equal(t, int64(198000), *ev.OutputTokens)
	})

	t.Run("session error message", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		ev := n.NormalizeLine([]byte(`{"type":"session.error","data":{"errorType":"rate_limit","message":"too many requests"}}`), 1)
		assert.Equal(t, "too many requests", *ev.MessageContent)
	})

	t.Run("payload decode failure keeps envelope", func(t *testing.T) {
		n := NewCopilotNormalizer("dir", nil)
		ev := n.NormalizeLine([]byte(`{"type":"user.message","id":"e1","data":"not an object"}`), 1)
		assert.Equal(t, model.TypeUser, ev.MessageType)
		assert.Equal(t, "e1", *ev.UUID)
		assert.Nil(t, ev.MessageContent)
	})
}

func TestCopilotModelChange(t *testing.T) {
	n := NewCopilotNormalizer("dir", nil)

	before := n.NormalizeLine([]byte(`{"type":"assistant.message","data":{"content":"hi"}}`), 1)
	assert.Nil(t, before.Model)

	change := n.NormalizeLine([]byte(`{"type":"session.model_change","data":{"newModel":"gpt-5"}}`), 2)
	// The change event itself already carries the new model.
	require.NotNil(t, change.Model)
	assert.Equal(t, "gpt-5", *change.Model)

	after := n.NormalizeLine([]byte(`{"type":"assistant.message","data":{"content":"hello"}}`), 3)
	assert.Equal(t, "gpt-5", *after.Model)
}

func TestCopilotParseError(t *testing.T) {
	n := NewCopilotNormalizer("dir", nil)
	ev := n.NormalizeLine([]byte(`{broken`), 5)
	assert.Equal(t, model.TypeParseError, ev.MessageType)
	assert.Equal(t, "dir", ev.SessionID)
	assert.Equal(t, int64(5), ev.Sequence)
	assert.True(t, strings.HasPrefix(*ev.MessageContent, "Parse error: "))
	// Parse errors carry no project path, unlike normal rows.
	assert.Empty(t, ev.ProjectPath)
}

func TestBackfillCopilotSessionIDs(t *testing.T) {
	events := []model.Event{
		{Sequence: 1, SessionID: ""},
		{Sequence: 2, SessionID: "explicit"},
		{Sequence: 3, SessionID: ""},
	}
	BackfillCopilotSessionIDs(events, "final-id")
	assert.Equal(t, "final-id", events[0].SessionID)
	assert.Equal(t, "explicit", events[1].SessionID)
	assert.Equal(t, "final-id", events[2].SessionID)
}
