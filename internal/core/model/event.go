package model

import (
	"time"
)

// Source identifies the producing tool whose logs an event came from.
type Source string

const (
	SourceClaude  Source = "claude"
	SourceCopilot Source = "copilot"
)

// ParseSource converts a user-supplied source string into a Source.
// Returns false for anything that is not a known producer.
func ParseSource(s string) (Source, bool) {
	switch Source(s) {
	case SourceClaude:
		return SourceClaude, true
	case SourceCopilot:
		return SourceCopilot, true
	}
	return "", false
}

// MessageType tags an event with its place in the session vocabulary.
// The vocabulary is open: unrecognized raw tags are carried verbatim and
// fall through to the default presentation path.
type MessageType string

const (
	TypeUser               MessageType = "user"
	TypeAssistant          MessageType = "assistant"
	TypeToolStart          MessageType = "tool_start"
	TypeToolResult         MessageType = "tool_result"
	TypeSessionStart       MessageType = "session_start"
	TypeSessionInfo        MessageType = "session_info"
	TypeSessionError       MessageType = "session_error"
	TypeSessionResume      MessageType = "session_resume"
	TypeTurnStart          MessageType = "turn_start"
	TypeTurnEnd            MessageType = "turn_end"
	TypeReasoning          MessageType = "reasoning"
	TypeTruncation         MessageType = "truncation"
	TypeModelChange        MessageType = "model_change"
	TypeCompactionStart    MessageType = "compaction_start"
	TypeCompactionComplete MessageType = "compaction_complete"
	TypeAbort              MessageType = "abort"
	TypeSystem             MessageType = "system"
	TypeSummary            MessageType = "summary"
	TypeUnknown            MessageType = "unknown"

	// Claude-only technical record types, carried through as-is.
	TypeFileHistorySnapshot MessageType = "file-history-snapshot"
	TypeQueueOperation      MessageType = "queue-operation"

	// TypeParseError marks a line that could not be decoded. Timeline and
	// aggregation views exclude these rows.
	TypeParseError MessageType = "_parse_error"
)

// Event is the canonical, source-independent form of one log line.
// Optional fields are pointers so that absence is distinguishable from a
// legitimate zero value (a tool literally named "" is not "no tool").
type Event struct {
	Source      Source `json:"source"`
	SessionID   string `json:"sessionId"`
	ProjectPath string `json:"projectPath,omitempty"`
	IsAgent     bool   `json:"isAgent,omitempty"`

	// Sequence is the 1-based line number within the originating file and
	// the authoritative ordering key inside a session.
	Sequence int64 `json:"sequence"`

	Timestamp   *time.Time  `json:"timestamp,omitempty"`
	MessageType MessageType `json:"messageType"`
	MessageRole *string     `json:"messageRole,omitempty"`

	Model          *string `json:"model,omitempty"`
	ToolName       *string `json:"toolName,omitempty"`
	ToolUseID      *string `json:"toolUseId,omitempty"`
	ToolInput      *string `json:"toolInput,omitempty"`
	MessageContent *string `json:"messageContent,omitempty"`

	InputTokens         *int64 `json:"inputTokens,omitempty"`
	OutputTokens        *int64 `json:"outputTokens,omitempty"`
	CacheCreationTokens *int64 `json:"cacheCreationTokens,omitempty"`
	CacheReadTokens     *int64 `json:"cacheReadTokens,omitempty"`

	StopReason *string `json:"stopReason,omitempty"`
	UUID       *string `json:"uuid,omitempty"`
	ParentUUID *string `json:"parentUuid,omitempty"`
	Slug       *string `json:"slug,omitempty"`
	GitBranch  *string `json:"gitBranch,omitempty"`
	Cwd        *string `json:"cwd,omitempty"`
	Version    *string `json:"version,omitempty"`
	Repository *string `json:"repository,omitempty"`
}

// Content returns the message content or "" when absent.
func (e *Event) Content() string {
	if e.MessageContent == nil {
		return ""
	}
	return *e.MessageContent
}

// Tool returns the tool name or "" when absent.
func (e *Event) Tool() string {
	if e.ToolName == nil {
		return ""
	}
	return *e.ToolName
}

// HasTimestamp reports whether the event carries a resolvable instant.
func (e *Event) HasTimestamp() bool {
	return e.Timestamp != nil
}

// IsParseError reports whether this event is a parse-failure sentinel.
func (e *Event) IsParseError() bool {
	return e.MessageType == TypeParseError
}

// DerivedEvent is an Event annotated with per-session timing. Derived
// fields are computed on read and never persisted; nil means the event
// had no resolvable timestamp.
type DerivedEvent struct {
	Event
	DeltaMs  *int64 `json:"deltaMs,omitempty"`
	OffsetMs *int64 `json:"offsetMs,omitempty"`
}
