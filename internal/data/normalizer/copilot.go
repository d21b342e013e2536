package normalizer

import (
	"github.com/bytedance/sonic"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeparse"
)

// copilotTypeRole is the explicit mapping from raw dotted Copilot event
// types to the canonical vocabulary. Anything absent maps to "unknown".
var copilotTypeRole = map[string]struct {
	Type model.MessageType
	Role string
}{
	"user.message":                {model.TypeUser, "user"},
	"assistant.message":           {model.TypeAssistant, "assistant"},
	"assistant.reasoning":         {model.TypeReasoning, "assistant"},
	"assistant.turn_start":        {model.TypeTurnStart, "assistant"},
	"assistant.turn_end":          {model.TypeTurnEnd, "assistant"},
	"tool.execution_start":        {model.TypeToolStart, "tool"},
	"tool.execution_complete":     {model.TypeToolResult, "tool"},
	"session.start":               {model.TypeSessionStart, ""},
	"session.resume":              {model.TypeSessionResume, ""},
	"session.info":                {model.TypeSessionInfo, ""},
	"session.error":               {model.TypeSessionError, ""},
	"session.truncation":          {model.TypeTruncation, ""},
	"session.compaction_start":    {model.TypeCompactionStart, ""},
	"session.compaction_complete": {model.TypeCompactionComplete, ""},
	"session.model_change":        {model.TypeModelChange, ""},
	"abort":                       {model.TypeAbort, ""},
}

func copilotTypeAndRole(rawType string) (model.MessageType, string) {
	if mapped, ok := copilotTypeRole[rawType]; ok {
		return mapped.Type, mapped.Role
	}
	return model.TypeUnknown, ""
}

// CopilotNormalizer normalizes one Copilot session file. It is stateful
// because session identity builds up as the file is read: workspace.yaml
// seeds it, session.start overrides it, and model changes carry forward
// onto every later event.
type CopilotNormalizer struct {
	sessionID   string
	projectPath string
	gitBranch   *string
	repository  *string
	version     *string
	model       *string
}

// NewCopilotNormalizer seeds session metadata from the session directory
// name and, when present, the workspace.yaml next to the events file.
func NewCopilotNormalizer(dirSessionID string, ws *model.CopilotWorkspace) *CopilotNormalizer {
	n := &CopilotNormalizer{sessionID: dirSessionID}
	if ws != nil {
		if ws.Id != "" {
			n.sessionID = ws.Id
		}
		n.projectPath = ws.Cwd
		n.gitBranch = model.StringOrNil(ws.Branch)
		n.repository = model.StringOrNil(ws.Repository)
	}
	return n
}

// SessionID returns the session id as currently known, for backfilling
// rows emitted before a session.start supplied the real one.
func (n *CopilotNormalizer) SessionID() string {
	return n.sessionID
}

// NormalizeLine converts one line of a Copilot events file into a
// canonical event, updating session metadata first so the event itself
// already reflects a session.start or model change it announces.
func (n *CopilotNormalizer) NormalizeLine(line []byte, seq int64) model.Event {
	var raw model.CopilotEvent
	if err := sonic.Unmarshal(line, &raw); err != nil {
		return model.Event{
			Source:         model.SourceCopilot,
			SessionID:      n.sessionID,
			Sequence:       seq,
			MessageType:    model.TypeParseError,
			MessageContent: model.String("Parse error: " + err.Error()),
		}
	}

	n.track(&raw)

	msgType, role := copilotTypeAndRole(raw.Type)
	ev := model.Event{
		Source:      model.SourceCopilot,
		SessionID:   n.sessionID,
		ProjectPath: n.projectPath,
		Sequence:    seq,
		MessageType: msgType,
		UUID:        raw.Id,
		ParentUUID:  raw.ParentId,
		GitBranch:   n.gitBranch,
		Repository:  n.repository,
		Version:     n.version,
		Model:       n.model,
	}
	if role != "" {
		ev.MessageRole = model.String(role)
	}
	if raw.Timestamp != nil {
		if t, ok := timeparse.ParseString(*raw.Timestamp); ok {
			ev.Timestamp = &t
		}
	}
	if n.projectPath != "" {
		ev.Cwd = model.String(n.projectPath)
	}

	n.extract(&raw, &ev)
	return ev
}

// track folds session-level metadata out of lifecycle events before the
// event row is built.
func (n *CopilotNormalizer) track(raw *model.CopilotEvent) {
	switch raw.Type {
	case "session.start":
		var data model.CopilotSessionStart
		if sonic.Unmarshal(raw.Data, &data) != nil {
			return
		}
		if data.SessionId != nil {
			n.sessionID = *data.SessionId
		}
		if data.CopilotVersion != nil {
			n.version = data.CopilotVersion
		}
		if ctx := data.Context; ctx != nil {
			if ctx.Cwd != nil {
				n.projectPath = *ctx.Cwd
			}
			if ctx.Branch != nil {
				n.gitBranch = ctx.Branch
			}
			if ctx.Repository != nil {
				n.repository = ctx.Repository
			}
		}
	case "session.model_change":
		var data model.CopilotModelChange
		if sonic.Unmarshal(raw.Data, &data) == nil && data.NewModel != nil {
			n.model = data.NewModel
		}
	}
}

// extract pulls the type-specific payload fields onto the event. Payload
// decode failures are ignored: the event keeps its envelope fields.
func (n *CopilotNormalizer) extract(raw *model.CopilotEvent, ev *model.Event) {
	if len(raw.Data) == 0 {
		return
	}

	switch raw.Type {
	case "user.message":
		var data model.CopilotUserMessage
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.MessageContent = data.Content
		}
	case "assistant.message":
		var data model.CopilotAssistantMessage
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.MessageContent = data.Content
			if len(data.ToolRequests) > 0 {
				first := data.ToolRequests[0]
				ev.ToolName = first.Name
				ev.ToolUseID = first.ToolCallId
				ev.ToolInput = rawArguments(first.Arguments)
			}
		}
	case "assistant.reasoning":
		var data model.CopilotReasoning
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.MessageContent = data.Content
		}
	case "tool.execution_start":
		var data model.CopilotToolStart
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.ToolName = data.ToolName
			ev.ToolUseID = data.ToolCallId
			ev.ToolInput = rawArguments(data.Arguments)
		}
	case "tool.execution_complete":
		var data model.CopilotToolComplete
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.ToolUseID = data.ToolCallId
			if data.Result != nil {
				ev.MessageContent = data.Result.Content
			}
		}
	case "session.truncation":
		var data model.CopilotTruncation
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.InputTokens = data.PreTruncationTokensInMessages
			ev.OutputTokens = data.PostTruncationTokensInMessages
		}
	case "session.error":
		var data model.CopilotSessionError
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.MessageContent = data.Message
		}
	case "session.start":
		var data model.CopilotSessionStart
		if sonic.Unmarshal(raw.Data, &data) == nil {
			ev.Version = data.CopilotVersion
		}
	}
}

func rawArguments(args []byte) *string {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return model.String(string(args))
}

// BackfillCopilotSessionIDs rewrites, in place, the session id of rows
// emitted before a session.start supplied the real one.
func BackfillCopilotSessionIDs(events []model.Event, sessionID string) {
	for i := range events {
		if events[i].SessionID == "" {
			events[i].SessionID = sessionID
		}
	}
}
