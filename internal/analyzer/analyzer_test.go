package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/testing/fixtures"
)

func fixtureRoots(t *testing.T) *fixtures.Generator {
	t.Helper()
	g := fixtures.NewGenerator(t.TempDir())

	g.WriteClaudeSession(t, "work-myapp", "claude-session", []string{
		fixtures.ClaudeUserLine("claude-session", "2024-06-01T10:00:00Z", "fix the flaky test"),
		fixtures.ClaudeAssistantLine("claude-session", "2024-06-01T10:00:05Z", "looking", 100, 20),
		fixtures.ClaudeAssistantToolLine("claude-session", "2024-06-01T10:00:06Z", "Bash", `{"command":"go test"}`),
	})

	g.WriteCopilotSession(t, "copilot-session", []string{
		fixtures.CopilotSessionStartLine("copilot-session", "2024-06-02T09:00:00Z", "0.0.330", "/work/other"),
		fixtures.CopilotUserLine("2024-06-02T09:00:01Z", "list files"),
	})
	g.WriteCopilotWorkspace(t, "copilot-session", "/work/other", "main")

	return g
}

func newTestAnalyzer(g *fixtures.Generator, config *Config) *Analyzer {
	if config == nil {
		config = &Config{}
	}
	config.ClaudeRoot = g.ClaudeRoot()
	config.CopilotRoot = g.CopilotRoot()
	return New(config)
}

func TestListSessions(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, nil)

	summaries, err := a.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Default ordering is most recent first.
	assert.Equal(t, "copilot-session", summaries[0].SessionID)
	assert.Equal(t, "claude-session", summaries[1].SessionID)
	assert.Equal(t, "/work/claude-session", summaries[1].ProjectPath)
	assert.Equal(t, int64(1), summaries[1].ToolCallCount)
}

func TestListSessionsSourceFilter(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, &Config{Source: "claude"})

	summaries, err := a.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, model.SourceClaude, summaries[0].Source)
}

func TestListSessionsLimit(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, &Config{Limit: 1})

	summaries, err := a.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "copilot-session", summaries[0].SessionID)
}

func TestListSessionsCaches(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, nil)
	ctx := context.Background()

	_, err := a.ListSessions(ctx)
	require.NoError(t, err)
	_, err = a.ListSessions(ctx)
	require.NoError(t, err)

	stats := a.Store().Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
}

func TestSessionTimeline(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, nil)

	derived, err := a.SessionTimeline(context.Background(), "claude-session")
	require.NoError(t, err)
	require.Len(t, derived, 3)

	require.NotNil(t, derived[1].OffsetMs)
	assert.Equal(t, int64(5000), *derived[1].OffsetMs)
	require.NotNil(t, derived[2].DeltaMs)
	assert.Equal(t, int64(1000), *derived[2].DeltaMs)
}

func TestSessionTimelineFiltered(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, &Config{Types: []string{"assistant"}})

	derived, err := a.SessionTimeline(context.Background(), "claude-session")
	require.NoError(t, err)
	require.Len(t, derived, 2)
	for _, ev := range derived {
		assert.Equal(t, model.TypeAssistant, ev.MessageType)
	}
}

func TestSessionTimelineUnknownSession(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, nil)

	_, err := a.SessionTimeline(context.Background(), "nope")
	assert.ErrorContains(t, err, "not found")
}

func TestSearchEvents(t *testing.T) {
	g := fixtureRoots(t)
	a := newTestAnalyzer(g, &Config{Search: "flaky"})

	matches, err := a.SearchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "claude-session", matches[0].SessionID)
}

func TestRunSessionsJSON(t *testing.T) {
	g := fixtureRoots(t)
	var buf bytes.Buffer
	a := newTestAnalyzer(g, &Config{OutputFormat: "json", Out: &buf})

	require.NoError(t, a.RunSessions(context.Background()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
}

func TestRunTimelineTable(t *testing.T) {
	g := fixtureRoots(t)
	var buf bytes.Buffer
	a := newTestAnalyzer(g, &Config{Out: &buf})

	require.NoError(t, a.RunTimeline(context.Background(), "copilot-session"))
	out := buf.String()
	assert.Contains(t, out, "User: list files")
	assert.Contains(t, out, "Session started")
}

func TestCacheStatsRecord(t *testing.T) {
	cs := NewCacheStats()
	cs.Record("sessions:/tmp/a", cache.MissReasonNone)
	cs.Record("sessions:/tmp/b", cache.MissReasonNotFound)
	cs.Record("sessions:/tmp/b", cache.MissReasonExpired)

	total, hits, misses, hitRate := cs.GetStats()
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
	assert.InDelta(t, 33.3, hitRate, 0.1)
}

func TestNewWithStoreShares(t *testing.T) {
	g := fixtureRoots(t)
	store := cache.New(time.Minute)
	config := &Config{ClaudeRoot: g.ClaudeRoot(), CopilotRoot: g.CopilotRoot()}
	a := NewWithStore(config, store)

	_, err := a.ListSessions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, store.Invalidate(""))
}
