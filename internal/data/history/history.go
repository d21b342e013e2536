// Package history reads the producers' shell-history sidecar files:
// claude's history.jsonl and copilot's command-history-state.json.
// Missing or malformed files yield empty results, never errors.
package history

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Entry is one prompt or command from either producer's history.
type Entry struct {
	Source    model.Source `json:"source"`
	Display   string       `json:"display"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
	Project   *string      `json:"project,omitempty"`
	SessionID *string      `json:"sessionId,omitempty"`
}

// claudeHistoryLine is one raw line of history.jsonl. The timestamp is
// epoch milliseconds.
type claudeHistoryLine struct {
	Display   string   `json:"display"`
	Timestamp *float64 `json:"timestamp"`
	Project   *string  `json:"project"`
	SessionID *string  `json:"sessionId"`
}

// copilotCommandHistory mirrors command-history-state.json.
type copilotCommandHistory struct {
	CommandHistory []string `json:"commandHistory"`
}

// LoadClaude reads <root>/history.jsonl. Unparseable lines are
// skipped.
func LoadClaude(root string) []Entry {
	file, err := os.Open(filepath.Join(root, "history.jsonl"))
	if err != nil {
		return nil
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var raw claudeHistoryLine
		if err := sonic.Unmarshal(scanner.Bytes(), &raw); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid history line %d: %v", line, err))
			continue
		}
		entry := Entry{
			Source:    model.SourceClaude,
			Display:   raw.Display,
			Project:   raw.Project,
			SessionID: raw.SessionID,
		}
		if raw.Timestamp != nil {
			ts := time.UnixMilli(int64(*raw.Timestamp)).UTC()
			entry.Timestamp = &ts
		}
		entries = append(entries, entry)
	}
	return entries
}

// LoadCopilot reads <root>/command-history-state.json. The file holds
// bare command strings with no timestamps; order is preserved.
func LoadCopilot(root string) []Entry {
	data, err := os.ReadFile(filepath.Join(root, "command-history-state.json"))
	if err != nil {
		return nil
	}
	var raw copilotCommandHistory
	if err := sonic.Unmarshal(data, &raw); err != nil {
		util.LogDebug(fmt.Sprintf("Skip malformed command history: %v", err))
		return nil
	}

	entries := make([]Entry, 0, len(raw.CommandHistory))
	for _, cmd := range raw.CommandHistory {
		entries = append(entries, Entry{Source: model.SourceCopilot, Display: cmd})
	}
	return entries
}

// Merge combines both producers' histories, newest first. Entries
// without a timestamp sort after timestamped ones, keeping their file
// order. A positive limit truncates the result.
func Merge(claudeRoot, copilotRoot string, limit int) []Entry {
	var entries []Entry
	if claudeRoot != "" {
		entries = append(entries, LoadClaude(claudeRoot)...)
	}
	if copilotRoot != "" {
		entries = append(entries, LoadCopilot(copilotRoot)...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].Timestamp, entries[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
