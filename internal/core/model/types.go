package model

import (
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"
)

// ClaudeRecord is one raw line from a Claude Code conversation file.
// All record variants (user, assistant, system, summary, queue-operation,
// file-history-snapshot) decode into this single permissive shape; the
// normalizer decides which fields are meaningful for each type.
type ClaudeRecord struct {
	Content     FlexibleContent `json:"content,omitempty"`
	Cwd         string          `json:"cwd,omitempty"`
	GitBranch   string          `json:"gitBranch,omitempty"`
	IsMeta      bool            `json:"isMeta,omitempty"`
	IsSidechain bool            `json:"isSidechain,omitempty"`
	LeafUuid    string          `json:"leafUuid,omitempty"`
	Message     *Message        `json:"message,omitempty"`
	ParentUuid  *string         `json:"parentUuid"`
	SessionId   string          `json:"sessionId,omitempty"`
	Slug        string          `json:"slug,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Type        string          `json:"type"`
	Uuid        string          `json:"uuid,omitempty"`
	Version     string          `json:"version,omitempty"`
}

// Message is the nested message envelope carried by user and assistant
// records.
type Message struct {
	Content      FlexibleContent `json:"content"`
	Id           string          `json:"id,omitempty"`
	Model        string          `json:"model,omitempty"`
	Role         string          `json:"role,omitempty"`
	StopReason   *string         `json:"stop_reason"`
	StopSequence *string         `json:"stop_sequence"`
	Type         string          `json:"type,omitempty"`
	Usage        *Usage          `json:"usage,omitempty"`
}

// FlexibleContent accepts the three shapes message content arrives in:
// a plain string, an array of typed blocks, or (rarely) some other JSON
// value which is preserved verbatim as text.
type FlexibleContent []ContentItem

func (fc *FlexibleContent) UnmarshalJSON(data []byte) error {
	var items []ContentItem
	if err := sonic.Unmarshal(data, &items); err == nil {
		*fc = items
		return nil
	}

	var str string
	if err := sonic.Unmarshal(data, &str); err == nil {
		*fc = []ContentItem{{Type: "text", Text: str}}
		return nil
	}

	// Unexpected shape: keep the raw JSON so nothing is silently dropped.
	*fc = []ContentItem{{Type: "text", Text: string(data)}}
	return nil
}

// Text joins the text blocks with newlines, mirroring how both producers
// flatten block arrays for display.
func (fc FlexibleContent) Text() string {
	parts := make([]string, 0, len(fc))
	for _, item := range fc {
		if item.Type == "text" {
			parts = append(parts, item.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// FirstToolUse returns the first tool_use block, or nil.
func (fc FlexibleContent) FirstToolUse() *ContentItem {
	for i := range fc {
		if fc[i].Type == "tool_use" {
			return &fc[i]
		}
	}
	return nil
}

type ContentItem struct {
	Content   any             `json:"content,omitempty"`
	Id        string          `json:"id,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Name      string          `json:"name,omitempty"`
	Signature string          `json:"signature,omitempty"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	ToolUseId string          `json:"tool_use_id,omitempty"`
	Type      string          `json:"type"`
}

// Usage carries token accounting for one assistant message. Fields are
// pointers: a producer omitting a counter is not the same as reporting 0.
type Usage struct {
	CacheCreationInputTokens *int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *int64 `json:"cache_read_input_tokens"`
	InputTokens              *int64 `json:"input_tokens"`
	OutputTokens             *int64 `json:"output_tokens"`
	ServiceTier              string `json:"service_tier,omitempty"`
}

// CopilotEvent is one raw line from a Copilot CLI events file. The Data
// payload stays opaque until the normalizer decodes it per event type.
type CopilotEvent struct {
	Type      string          `json:"type"`
	Id        *string         `json:"id"`
	ParentId  *string         `json:"parentId"`
	Timestamp *string         `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Per-type payloads for CopilotEvent.Data.

type CopilotSessionStart struct {
	SessionId      *string         `json:"sessionId"`
	CopilotVersion *string         `json:"copilotVersion"`
	Context        *CopilotContext `json:"context"`
}

type CopilotContext struct {
	Cwd        *string `json:"cwd"`
	GitRoot    *string `json:"gitRoot"`
	Branch     *string `json:"branch"`
	Repository *string `json:"repository"`
}

type CopilotUserMessage struct {
	Content *string `json:"content"`
}

type CopilotAssistantMessage struct {
	MessageId    *string              `json:"messageId"`
	Content      *string              `json:"content"`
	ToolRequests []CopilotToolRequest `json:"toolRequests"`
}

type CopilotToolRequest struct {
	ToolCallId *string         `json:"toolCallId"`
	Name       *string         `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
}

type CopilotReasoning struct {
	Content *string `json:"content"`
}

type CopilotToolStart struct {
	ToolCallId *string         `json:"toolCallId"`
	ToolName   *string         `json:"toolName"`
	Arguments  json.RawMessage `json:"arguments"`
}

type CopilotToolComplete struct {
	ToolCallId *string            `json:"toolCallId"`
	Success    *bool              `json:"success"`
	Result     *CopilotToolResult `json:"result"`
}

type CopilotToolResult struct {
	Content *string `json:"content"`
}

type CopilotModelChange struct {
	NewModel *string `json:"newModel"`
}

type CopilotTruncation struct {
	TokenLimit                     *int64 `json:"tokenLimit"`
	PreTruncationTokensInMessages  *int64 `json:"preTruncationTokensInMessages"`
	PostTruncationTokensInMessages *int64 `json:"postTruncationTokensInMessages"`
}

type CopilotSessionError struct {
	ErrorType *string `json:"errorType"`
	Message   *string `json:"message"`
}

// CopilotWorkspace mirrors the workspace.yaml file written next to each
// Copilot session's events file.
type CopilotWorkspace struct {
	Id         string `yaml:"id"`
	Cwd        string `yaml:"cwd"`
	GitRoot    string `yaml:"git_root"`
	Repository string `yaml:"repository"`
	Branch     string `yaml:"branch"`
	Summary    string `yaml:"summary"`
}
