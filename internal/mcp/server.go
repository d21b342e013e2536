// Package mcp exposes the session index and timelines over the Model
// Context Protocol, stdio transport. A filesystem watcher keeps the
// shared cache fresh between requests.
package mcp

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/penwyp/go-agent-timeline/internal/analyzer"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const serverName = "agent-timeline"

// Server serves list_sessions, get_timeline and search_events tools.
// Every request builds its analyzer over one shared cache store, so
// the watcher's invalidations apply to all of them.
type Server struct {
	base    *analyzer.Config
	store   *cache.Store
	version string
}

func NewServer(base *analyzer.Config, version string) *Server {
	return &Server{
		base:    base,
		store:   cache.New(base.CacheTTL),
		version: version,
	}
}

// Run serves MCP over stdio until ctx is cancelled. Watcher startup
// failure is not fatal: the cache falls back to TTL-only freshness.
func (s *Server) Run(ctx context.Context) error {
	watcher, err := NewWatcher(s.store, s.base.ClaudeRoot, s.base.CopilotRoot)
	if err != nil {
		util.LogWarn(fmt.Sprintf("File watcher unavailable, relying on cache TTL: %v", err))
	} else {
		watcher.Start()
		defer watcher.Stop()
	}

	impl := &mcp.Implementation{Name: serverName, Version: s.version}
	server := mcp.NewServer(impl, &mcp.ServerOptions{})

	server.AddTool(&mcp.Tool{
		Name:        "list_sessions",
		Description: "List coding agent sessions with per-session event, tool and token totals",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "Restrict to one producer: claude or copilot",
				},
				"sort_by": {
					Type:        "string",
					Description: "Sort field: time (default), events, or tokens",
				},
				"limit": {
					Type:        "integer",
					Description: "Return at most this many sessions",
				},
			},
		},
	}, s.handleListSessions)

	server.AddTool(&mcp.Tool{
		Name:        "get_timeline",
		Description: "Return one session's event timeline with per-event offsets and deltas",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"session_id"},
			Properties: map[string]*jsonschema.Schema{
				"session_id": {
					Type:        "string",
					Description: "Session identifier from list_sessions",
				},
				"types": {
					Type:        "array",
					Items:       &jsonschema.Schema{Type: "string"},
					Description: "Keep only these message types",
				},
				"hide_noise": {
					Type:        "boolean",
					Description: "Drop turn boundary and truncation events",
				},
				"search": {
					Type:        "string",
					Description: "Keep only events whose content, tool name or type contains this text",
				},
			},
		},
	}, s.handleGetTimeline)

	server.AddTool(&mcp.Tool{
		Name:        "search_events",
		Description: "Search event content, tool names and types across all sessions",
		InputSchema: &jsonschema.Schema{
			Type:     "object",
			Required: []string{"query"},
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Case-insensitive text to search for",
				},
				"source": {
					Type:        "string",
					Description: "Restrict to one producer: claude or copilot",
				},
			},
		},
	}, s.handleSearchEvents)

	util.LogInfo(fmt.Sprintf("Starting MCP server %s %s on stdio", serverName, s.version))
	return server.Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) handleListSessions(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	config := s.requestConfig()
	config.Source = stringArg(params.Arguments, "source")
	config.SortBy = stringArg(params.Arguments, "sort_by")
	config.Limit = intArg(params.Arguments, "limit")

	summaries, err := analyzer.NewWithStore(config, s.store).ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(summaries)
}

func (s *Server) handleGetTimeline(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	sessionID := stringArg(params.Arguments, "session_id")
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}

	config := s.requestConfig()
	config.Types = stringSliceArg(params.Arguments, "types")
	config.HideNoise = boolArg(params.Arguments, "hide_noise")
	config.Search = stringArg(params.Arguments, "search")

	derived, err := analyzer.NewWithStore(config, s.store).SessionTimeline(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return jsonResult(derived)
}

func (s *Server) handleSearchEvents(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[map[string]any]) (*mcp.CallToolResultFor[any], error) {
	query := stringArg(params.Arguments, "query")
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	config := s.requestConfig()
	config.Search = query
	config.Source = stringArg(params.Arguments, "source")

	matches, err := analyzer.NewWithStore(config, s.store).SearchEvents(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(matches)
}

// requestConfig copies the base config so per-request overrides never
// leak between calls.
func (s *Server) requestConfig() *analyzer.Config {
	config := *s.base
	config.Types = nil
	config.HideNoise = false
	config.Search = ""
	config.Source = ""
	return &config
}

func jsonResult(v any) (*mcp.CallToolResultFor[any], error) {
	data, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
