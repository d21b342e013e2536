// Package normalizer maps raw per-source log lines onto the canonical
// event schema. Normalization never fails: a line that cannot be
// decoded becomes a parse-error sentinel event instead of an error, so
// one corrupt line never takes down a timeline.
package normalizer

import (
	"github.com/bytedance/sonic"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeparse"
)

// ClaudeFileContext carries the per-file identity every event inherits:
// the session id fallback from the file stem, the decoded project path
// fallback from the directory name, and the agent marker.
type ClaudeFileContext struct {
	SessionID           string
	FallbackProjectPath string
	IsAgent             bool
}

// NormalizeClaudeLine converts one line of a Claude conversation file
// into a canonical event.
func NormalizeClaudeLine(line []byte, ctx ClaudeFileContext, seq int64) model.Event {
	var rec model.ClaudeRecord
	if err := sonic.Unmarshal(line, &rec); err != nil {
		return claudeParseError(ctx, seq, "Parse error: "+err.Error())
	}

	switch rec.Type {
	case "":
		return claudeParseError(ctx, seq, "Parse error: missing record type")
	case "user":
		ev := claudeBaseEvent(&rec, ctx, seq, model.TypeUser)
		ev.MessageRole = model.String("user")
		if rec.Message != nil && rec.Message.Content != nil {
			ev.MessageContent = model.String(rec.Message.Content.Text())
		}
		return ev
	case "assistant":
		return claudeAssistantEvent(&rec, ctx, seq)
	case "system":
		ev := claudeBaseEvent(&rec, ctx, seq, model.TypeSystem)
		if rec.Content != nil {
			ev.MessageContent = model.String(rec.Content.Text())
		}
		return ev
	case "summary":
		ev := claudeSimpleEvent(ctx, seq, model.TypeSummary)
		ev.MessageContent = model.StringOrNil(rec.Summary)
		return ev
	case "file-history-snapshot":
		return claudeSimpleEvent(ctx, seq, model.TypeFileHistorySnapshot)
	case "queue-operation":
		ev := claudeSimpleEvent(ctx, seq, model.TypeQueueOperation)
		if rec.SessionId != "" {
			ev.SessionID = rec.SessionId
		}
		if t, ok := timeparse.ParseString(rec.Timestamp); ok {
			ev.Timestamp = &t
		}
		if rec.Content != nil {
			ev.MessageContent = model.String(rec.Content.Text())
		}
		return ev
	default:
		// Unrecognized record types ride through with their raw tag so
		// new upstream vocabulary degrades to the fallback presentation
		// instead of a parse error.
		ev := claudeBaseEvent(&rec, ctx, seq, model.MessageType(rec.Type))
		if rec.Message != nil && rec.Message.Content != nil {
			ev.MessageContent = model.String(rec.Message.Content.Text())
		} else if rec.Content != nil {
			ev.MessageContent = model.String(rec.Content.Text())
		}
		return ev
	}
}

func claudeAssistantEvent(rec *model.ClaudeRecord, ctx ClaudeFileContext, seq int64) model.Event {
	ev := claudeBaseEvent(rec, ctx, seq, model.TypeAssistant)
	ev.MessageRole = model.String("assistant")

	msg := rec.Message
	if msg == nil {
		return ev
	}

	if msg.Content != nil {
		ev.MessageContent = model.String(msg.Content.Text())
		if tu := msg.Content.FirstToolUse(); tu != nil {
			ev.ToolName = model.StringOrNil(tu.Name)
			ev.ToolUseID = model.StringOrNil(tu.Id)
			if len(tu.Input) > 0 && string(tu.Input) != "null" {
				ev.ToolInput = model.String(string(tu.Input))
			}
		}
	}

	ev.Model = model.StringOrNil(msg.Model)
	if u := msg.Usage; u != nil {
		ev.InputTokens = u.InputTokens
		ev.OutputTokens = u.OutputTokens
		ev.CacheCreationTokens = u.CacheCreationInputTokens
		ev.CacheReadTokens = u.CacheReadInputTokens
	}
	ev.StopReason = msg.StopReason
	return ev
}

// claudeBaseEvent fills the fields shared by full conversation records.
func claudeBaseEvent(rec *model.ClaudeRecord, ctx ClaudeFileContext, seq int64, msgType model.MessageType) model.Event {
	sessionID := rec.SessionId
	if sessionID == "" {
		sessionID = ctx.SessionID
	}
	projectPath := rec.Cwd
	if projectPath == "" {
		projectPath = ctx.FallbackProjectPath
	}

	ev := model.Event{
		Source:      model.SourceClaude,
		SessionID:   sessionID,
		ProjectPath: projectPath,
		IsAgent:     ctx.IsAgent,
		Sequence:    seq,
		MessageType: msgType,
		UUID:        model.StringOrNil(rec.Uuid),
		ParentUUID:  rec.ParentUuid,
		Slug:        model.StringOrNil(rec.Slug),
		GitBranch:   model.StringOrNil(rec.GitBranch),
		Cwd:         model.StringOrNil(rec.Cwd),
		Version:     model.StringOrNil(rec.Version),
	}
	if t, ok := timeparse.ParseString(rec.Timestamp); ok {
		ev.Timestamp = &t
	}
	return ev
}

// claudeSimpleEvent fills only the file-derived identity, for record
// types that carry no conversation envelope.
func claudeSimpleEvent(ctx ClaudeFileContext, seq int64, msgType model.MessageType) model.Event {
	return model.Event{
		Source:      model.SourceClaude,
		SessionID:   ctx.SessionID,
		ProjectPath: ctx.FallbackProjectPath,
		IsAgent:     ctx.IsAgent,
		Sequence:    seq,
		MessageType: msgType,
	}
}

func claudeParseError(ctx ClaudeFileContext, seq int64, msg string) model.Event {
	ev := claudeSimpleEvent(ctx, seq, model.TypeParseError)
	ev.MessageContent = model.String(msg)
	return ev
}

// BackfillClaudeProjectPaths rewrites, in place, the synthetic
// decoded-directory project path with the first real cwd observed in
// the file. Claude writes the cwd on conversation records but not on
// summaries or snapshots, so early non-conversation rows would
// otherwise keep the lossy decoded form.
func BackfillClaudeProjectPaths(events []model.Event, fallback string) {
	var fileCwd string
	for i := range events {
		if events[i].Cwd != nil {
			fileCwd = *events[i].Cwd
			break
		}
	}
	if fileCwd == "" {
		return
	}
	for i := range events {
		if events[i].ProjectPath == fallback {
			events[i].ProjectPath = fileCwd
		}
	}
}
