package model

import (
	"strings"
	"time"
)

// SessionSummary is the per-(source, session) index record produced by
// the aggregator. Parse-error sentinel events are excluded from every
// statistic.
type SessionSummary struct {
	Source      Source  `json:"source"`
	SessionID   string  `json:"sessionId"`
	ProjectPath string  `json:"projectPath,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	IsAgent     bool    `json:"isAgent,omitempty"`

	FirstSeen *time.Time `json:"firstSeen,omitempty"`
	LastSeen  *time.Time `json:"lastSeen,omitempty"`

	EventCount    int64 `json:"eventCount"`
	ToolCallCount int64 `json:"toolCallCount"`

	TotalInputTokens         int64 `json:"totalInputTokens"`
	TotalOutputTokens        int64 `json:"totalOutputTokens"`
	TotalCacheCreationTokens int64 `json:"totalCacheCreationTokens"`
	TotalCacheReadTokens     int64 `json:"totalCacheReadTokens"`

	FirstUserMessagePreview string `json:"firstUserMessagePreview,omitempty"`
}

// Duration returns the wall-clock span of the session, or 0 when either
// bound is unknown.
func (s *SessionSummary) Duration() time.Duration {
	if s.FirstSeen == nil || s.LastSeen == nil {
		return 0
	}
	return s.LastSeen.Sub(*s.FirstSeen)
}

// ProjectName returns the last path segment of the project path, for
// compact display.
func (s *SessionSummary) ProjectName() string {
	parts := strings.Split(s.ProjectPath, "/")
	if name := parts[len(parts)-1]; name != "" {
		return name
	}
	return "unknown"
}

// FileEvent represents a file system change observed by a watcher.
type FileEvent struct {
	Path      string
	Operation string
}
