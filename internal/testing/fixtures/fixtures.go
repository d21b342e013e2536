// Package fixtures builds deterministic claude and copilot log trees
// for tests.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/stretchr/testify/require"
)

// Generator writes session fixtures under a base directory, laid out
// the way the real producers lay out their data roots.
type Generator struct {
	baseDir string
}

func NewGenerator(baseDir string) *Generator {
	return &Generator{baseDir: baseDir}
}

// ClaudeRoot returns the claude data root the generator writes under.
func (g *Generator) ClaudeRoot() string {
	return filepath.Join(g.baseDir, "claude")
}

// CopilotRoot returns the copilot data root the generator writes under.
func (g *Generator) CopilotRoot() string {
	return filepath.Join(g.baseDir, "copilot")
}

// WriteClaudeSession writes one conversation file under
// <claude-root>/projects/<encoded-project>/<sessionID>.jsonl and
// returns its path. Lines are written verbatim, one per row, so tests
// can include malformed and blank lines.
func (g *Generator) WriteClaudeSession(t *testing.T, project, sessionID string, lines []string) string {
	t.Helper()
	dir := filepath.Join(g.ClaudeRoot(), "projects", "-"+project)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, sessionID+".jsonl")
	writeLines(t, path, lines)
	return path
}

// WriteCopilotSession writes an events file under
// <copilot-root>/session-state/<sessionID>/events.jsonl and returns
// its path.
func (g *Generator) WriteCopilotSession(t *testing.T, sessionID string, lines []string) string {
	t.Helper()
	dir := filepath.Join(g.CopilotRoot(), "session-state", sessionID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "events.jsonl")
	writeLines(t, path, lines)
	return path
}

// WriteCopilotWorkspace writes the workspace.yaml next to a session's
// events file.
func (g *Generator) WriteCopilotWorkspace(t *testing.T, sessionID, cwd, branch string) {
	t.Helper()
	dir := filepath.Join(g.CopilotRoot(), "session-state", sessionID)
	require.NoError(t, os.MkdirAll(dir, 0755))
	content := fmt.Sprintf("id: %s\ncwd: %s\nbranch: %s\n", sessionID, cwd, branch)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "workspace.yaml"), []byte(content), 0644))
}

// WriteClaudeHistory writes the claude history.jsonl sidecar.
func (g *Generator) WriteClaudeHistory(t *testing.T, lines []string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(g.ClaudeRoot(), 0755))
	path := filepath.Join(g.ClaudeRoot(), "history.jsonl")
	writeLines(t, path, lines)
	return path
}

// WriteCopilotHistory writes the copilot command-history-state.json
// sidecar.
func (g *Generator) WriteCopilotHistory(t *testing.T, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(g.CopilotRoot(), 0755))
	path := filepath.Join(g.CopilotRoot(), "command-history-state.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// WriteClaudeStats writes the claude stats-cache.json sidecar.
func (g *Generator) WriteClaudeStats(t *testing.T, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(g.ClaudeRoot(), 0755))
	path := filepath.Join(g.ClaudeRoot(), "stats-cache.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
}

// Line builders. Each returns one JSON log line in the producer's raw
// schema.

func ClaudeUserLine(sessionID, timestamp, content string) string {
	return mustJSON(map[string]any{
		"type":      "user",
		"uuid":      "u-" + sessionID,
		"sessionId": sessionID,
		"timestamp": timestamp,
		"cwd":       "/work/" + sessionID,
		"gitBranch": "main",
		"version":   "1.0.62",
		"message": map[string]any{
			"role":    "user",
			"content": content,
		},
	})
}

func ClaudeAssistantLine(sessionID, timestamp, content string, inputTokens, outputTokens int64) string {
	return mustJSON(map[string]any{
		"type":      "assistant",
		"uuid":      "a-" + sessionID,
		"sessionId": sessionID,
		"timestamp": timestamp,
		"cwd":       "/work/" + sessionID,
		"message": map[string]any{
			"role":  "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]any{
				{"type": "text", "text": content},
			},
			"usage": map[string]any{
				"input_tokens":  inputTokens,
				"output_tokens": outputTokens,
			},
		},
	})
}

func ClaudeAssistantToolLine(sessionID, timestamp, toolName, toolInput string) string {
	return mustJSON(map[string]any{
		"type":      "assistant",
		"uuid":      "t-" + sessionID,
		"sessionId": sessionID,
		"timestamp": timestamp,
		"message": map[string]any{
			"role":  "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]any{
				{"type": "tool_use", "id": "toolu_1", "name": toolName, "input": json.RawMessage(toolInput)},
			},
		},
	})
}

func ClaudeSummaryLine(summary string) string {
	return mustJSON(map[string]any{
		"type":     "summary",
		"summary":  summary,
		"leafUuid": "leaf-1",
	})
}

func CopilotSessionStartLine(sessionID, timestamp, version, cwd string) string {
	return mustJSON(map[string]any{
		"type":      "session.start",
		"id":        "e-1",
		"timestamp": timestamp,
		"data": map[string]any{
			"sessionId":      sessionID,
			"copilotVersion": version,
			"context":        map[string]any{"cwd": cwd, "branch": "main"},
		},
	})
}

func CopilotUserLine(timestamp, content string) string {
	return mustJSON(map[string]any{
		"type":      "user.message",
		"id":        "e-2",
		"timestamp": timestamp,
		"data":      map[string]any{"content": content},
	})
}

func CopilotAssistantLine(timestamp, content string) string {
	return mustJSON(map[string]any{
		"type":      "assistant.message",
		"id":        "e-3",
		"timestamp": timestamp,
		"data":      map[string]any{"content": content},
	})
}

func CopilotToolStartLine(timestamp, toolName, arguments string) string {
	return mustJSON(map[string]any{
		"type":      "tool.execution_start",
		"id":        "e-4",
		"timestamp": timestamp,
		"data": map[string]any{
			"toolCallId": "call-1",
			"toolName":   toolName,
			"arguments":  json.RawMessage(arguments),
		},
	})
}

func CopilotTruncationLine(timestamp string, pre, post int64) string {
	return mustJSON(map[string]any{
		"type":      "session.truncation",
		"id":        "e-5",
		"timestamp": timestamp,
		"data": map[string]any{
			"preTruncationTokensInMessages":  pre,
			"postTruncationTokensInMessages": post,
		},
	})
}

func mustJSON(v any) string {
	data, err := sonic.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
