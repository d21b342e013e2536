// Package categorize maps normalized events to presentation categories:
// a badge bucket, a one-line summary, and a detail-render variant. The
// mapping is total: every event gets all three, unknown types included.
package categorize

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Badge is the presentation bucket an event belongs to.
type Badge string

const (
	BadgeUser      Badge = "user"
	BadgeAssistant Badge = "assistant"
	BadgeTool      Badge = "tool"
	BadgeSession   Badge = "session"
	BadgeTurn      Badge = "turn"
	BadgeReasoning Badge = "reasoning"
	BadgeAnomaly   Badge = "anomaly"
	BadgeSystem    Badge = "system"
	BadgeUnknown   Badge = "unknown"
)

// Detail selects which structured layout a renderer should use for the
// expanded view of an event.
type Detail string

const (
	DetailPlainText Detail = "plain-text"
	DetailToolCall  Detail = "tool-call"
	DetailLifecycle Detail = "session-lifecycle"
)

// SummaryMaxLen is the display length summaries are truncated to.
const SummaryMaxLen = 120

// Category bundles the three presentation attributes of one event.
type Category struct {
	Badge   Badge  `json:"badge"`
	Summary string `json:"summary"`
	Detail  Detail `json:"detail"`
}

// Categorize derives the full category for one event.
func Categorize(ev model.Event) Category {
	return Category{
		Badge:   BadgeFor(ev.MessageType),
		Summary: Summarize(ev, SummaryMaxLen),
		Detail:  DetailFor(ev),
	}
}

// BadgeFor maps a message type to its badge bucket. Unrecognized types
// land in BadgeUnknown.
func BadgeFor(t model.MessageType) Badge {
	switch t {
	case model.TypeUser:
		return BadgeUser
	case model.TypeAssistant:
		return BadgeAssistant
	case model.TypeToolStart, model.TypeToolResult:
		return BadgeTool
	case model.TypeSessionStart, model.TypeSessionResume, model.TypeSessionInfo,
		model.TypeModelChange, model.TypeCompactionStart, model.TypeCompactionComplete:
		return BadgeSession
	case model.TypeTurnStart, model.TypeTurnEnd:
		return BadgeTurn
	case model.TypeReasoning:
		return BadgeReasoning
	case model.TypeSessionError, model.TypeAbort, model.TypeTruncation, model.TypeParseError:
		return BadgeAnomaly
	case model.TypeSystem, model.TypeSummary:
		return BadgeSystem
	default:
		return BadgeUnknown
	}
}

// DetailFor picks the detail layout. Tool executions and assistant
// messages carrying a tool call render as tool-call; lifecycle markers
// get the compact lifecycle layout; everything else is plain text.
func DetailFor(ev model.Event) Detail {
	switch ev.MessageType {
	case model.TypeToolStart, model.TypeToolResult:
		return DetailToolCall
	case model.TypeAssistant:
		if ev.ToolName != nil {
			return DetailToolCall
		}
		return DetailPlainText
	case model.TypeSessionStart, model.TypeSessionResume, model.TypeSessionInfo,
		model.TypeSessionError, model.TypeTurnStart, model.TypeTurnEnd,
		model.TypeTruncation, model.TypeModelChange, model.TypeCompactionStart,
		model.TypeCompactionComplete, model.TypeAbort:
		return DetailLifecycle
	default:
		return DetailPlainText
	}
}

// Summarize builds the one-line summary for an event, truncated to
// maxLen runes with a trailing ellipsis when exceeded. It never fails:
// unknown types fall back to their content or the raw type string.
func Summarize(ev model.Event, maxLen int) string {
	content := strings.TrimSpace(strings.ReplaceAll(ev.Content(), "\n", " "))
	tool := ev.Tool()

	var text string
	switch ev.MessageType {
	case model.TypeUser:
		if content != "" {
			text = "User: " + content
		} else {
			text = "User: (empty)"
		}
	case model.TypeAssistant:
		switch {
		case tool != "":
			text = "Assistant calls: " + tool
		case content != "":
			text = "Assistant: " + content
		default:
			text = "Assistant: (no content)"
		}
	case model.TypeToolStart:
		text = "⚡ " + tool + "(" + toolArgs(ev.ToolInput) + ")"
	case model.TypeToolResult:
		text = "✓ " + tool + " completed"
	case model.TypeSessionStart:
		if ev.Version != nil {
			text = "Session started — v" + *ev.Version
		} else {
			text = "Session started"
		}
	case model.TypeSessionInfo:
		if content != "" {
			text = content
		} else {
			text = "Session info"
		}
	case model.TypeSessionError:
		if content != "" {
			text = "Error: " + content
		} else {
			text = "Error"
		}
	case model.TypeSessionResume:
		text = "Session resumed"
	case model.TypeTurnStart:
		text = "Turn started"
	case model.TypeTurnEnd:
		text = "Turn ended"
	case model.TypeTruncation:
		if ev.InputTokens != nil {
			text = fmt.Sprintf("Truncation: %d tokens", *ev.InputTokens)
		} else {
			text = "Truncation"
		}
	case model.TypeCompactionStart:
		text = "Compaction started"
	case model.TypeCompactionComplete:
		text = "Compaction complete"
	case model.TypeAbort:
		text = "Aborted"
	case model.TypeReasoning:
		if content != "" {
			text = "Reasoning: " + content
		} else {
			text = "Reasoning"
		}
	default:
		if content != "" {
			text = content
		} else {
			text = string(ev.MessageType)
		}
	}

	return util.Ellipsize(text, maxLen)
}

// toolArgs renders tool-input arguments as redacted key names. Only key
// names are shown, never values: a payload that parses as a JSON object
// yields up to two "key=…" entries, anything unparseable yields "…",
// and an absent payload yields "".
func toolArgs(input *string) string {
	if input == nil {
		return ""
	}
	ti := *input
	if ti == "" || ti == "None" {
		return ""
	}
	keys, ok := firstObjectKeys(ti, 2)
	if !ok {
		return "…"
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=…"
	}
	return strings.Join(parts, ", ")
}

// firstObjectKeys streams through s and collects up to max top-level
// object keys in document order. The whole document must parse as a
// single JSON object; anything else reports ok=false. A streaming
// tokenizer is used because decoding into a map loses key order.
func firstObjectKeys(s string, max int) ([]string, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}
	keys := []string{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		if len(keys) < max {
			keys = append(keys, key)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return keys, true
}
