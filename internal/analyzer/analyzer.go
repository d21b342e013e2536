// Package analyzer orchestrates a session-view request: discover log
// files, load events through the cache, aggregate or derive, and hand
// the result to a formatter. Each phase logs its duration at debug
// level.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/filter"
	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/core/timeline"
	"github.com/penwyp/go-agent-timeline/internal/data/aggregator"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
	"github.com/penwyp/go-agent-timeline/internal/data/parser"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
	"github.com/penwyp/go-agent-timeline/internal/presentation/interaction"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

type Config struct {
	ClaudeRoot  string
	CopilotRoot string
	// Source restricts discovery to one producer ("claude"/"copilot");
	// empty means both.
	Source string

	// Filter parameters for timeline and search requests.
	Types     []string
	HideNoise bool
	Search    string

	SortBy       string
	Limit        int
	OutputFormat string

	CacheTTL    time.Duration
	Concurrency int

	// Out receives formatted output; defaults to os.Stdout.
	Out io.Writer
}

type Analyzer struct {
	config *Config
	store  *cache.Store
	parser *parser.Parser
	stats  *CacheStats
	out    io.Writer
}

func New(config *Config) *Analyzer {
	return NewWithStore(config, cache.New(config.CacheTTL))
}

// NewWithStore builds an analyzer over a shared cache store. The MCP
// server uses this so its watcher can invalidate the same store every
// request reads through.
func NewWithStore(config *Config, store *cache.Store) *Analyzer {
	if config.Concurrency == 0 {
		config.Concurrency = runtime.NumCPU()
	}
	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &Analyzer{
		config: config,
		store:  store,
		parser: parser.NewParser(config.Concurrency),
		stats:  NewCacheStats(),
		out:    out,
	}
}

// discover scans the configured roots, honoring the source
// restriction.
func (a *Analyzer) discover() ([]source.SessionFile, error) {
	claudeRoot, copilotRoot := a.config.ClaudeRoot, a.config.CopilotRoot
	switch a.config.Source {
	case string(model.SourceClaude):
		copilotRoot = ""
	case string(model.SourceCopilot):
		claudeRoot = ""
	}
	return source.NewScanner(claudeRoot, copilotRoot).Scan()
}

// ListSessions produces the sorted session index for the configured
// roots, reading through the cache per root.
func (a *Analyzer) ListSessions(ctx context.Context) ([]model.SessionSummary, error) {
	start := time.Now()

	files, err := a.discover()
	if err != nil {
		return nil, err
	}
	util.LogDebug(fmt.Sprintf("Phase discover: %v, %d session files", time.Since(start), len(files)))

	byRoot := map[string][]source.SessionFile{}
	for _, sf := range files {
		root := a.rootFor(sf.Source)
		byRoot[root] = append(byRoot[root], sf)
	}

	loadStart := time.Now()
	var summaries []model.SessionSummary
	for root, rootFiles := range byRoot {
		rootSummaries, err := a.loadSummaries(ctx, root, rootFiles)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, rootSummaries...)
	}
	util.LogDebug(fmt.Sprintf("Phase load+aggregate: %v, %d sessions", time.Since(loadStart), len(summaries)))

	sortStart := time.Now()
	sorter := interaction.NewSessionSorter()
	sorter.SetField(interaction.ParseSortField(a.config.SortBy))
	sorter.Sort(summaries)
	util.LogDebug(fmt.Sprintf("Phase sort: %v", time.Since(sortStart)))

	if a.config.Limit > 0 && len(summaries) > a.config.Limit {
		summaries = summaries[:a.config.Limit]
	}
	return summaries, nil
}

func (a *Analyzer) loadSummaries(ctx context.Context, root string, files []source.SessionFile) ([]model.SessionSummary, error) {
	key := cache.SummariesKey(root)
	cached, reason := a.store.GetSummaries(key)
	a.stats.Record(key, reason)
	if reason == cache.MissReasonNone {
		util.LogDebug(fmt.Sprintf("Session index cache hit for %s", root))
		return cached, nil
	}
	util.LogDebug(fmt.Sprintf("Session index cache miss for %s: %s", root, reason))

	events := a.parser.ParseAll(ctx, files)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	summaries := aggregator.AggregateAll(events)
	a.store.PutSummaries(key, summaries, stampAll(files))
	return summaries, nil
}

// SessionTimeline loads one session's events, derives timing, and
// applies the configured filter spec. A claude session resumed across
// files merges in file order.
func (a *Analyzer) SessionTimeline(ctx context.Context, sessionID string) ([]model.DerivedEvent, error) {
	files, err := a.discover()
	if err != nil {
		return nil, err
	}

	var matched []source.SessionFile
	for _, sf := range files {
		if sf.SessionID == sessionID {
			matched = append(matched, sf)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("session %q not found", sessionID)
	}

	src := matched[0].Source
	key := cache.EventsKey(a.rootFor(src), src, sessionID)
	events, reason := a.store.GetEvents(key)
	a.stats.Record(key, reason)
	if reason != cache.MissReasonNone {
		util.LogDebug(fmt.Sprintf("Event cache miss for %s: %s", sessionID, reason))
		events = a.parser.ParseAll(ctx, matched)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.store.PutEvents(key, events, stampAll(matched))
	}

	derived := timeline.Derive(dropParseErrors(events))
	return filter.Apply(derived, a.filterSpec()), nil
}

// SearchEvents runs the configured search across every session and
// returns matching events grouped by session, timing derived within
// each session.
func (a *Analyzer) SearchEvents(ctx context.Context) ([]model.DerivedEvent, error) {
	files, err := a.discover()
	if err != nil {
		return nil, err
	}

	spec := a.filterSpec()
	var matches []model.DerivedEvent
	for _, result := range a.parser.ParseFiles(ctx, files) {
		if result.Error != nil {
			continue
		}
		derived := timeline.Derive(dropParseErrors(result.Events))
		matches = append(matches, filter.Apply(derived, spec)...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

// RunSessions lists sessions and writes them in the configured output
// format.
func (a *Analyzer) RunSessions(ctx context.Context) error {
	summaries, err := a.ListSessions(ctx)
	if err != nil {
		return err
	}
	a.stats.PrintFinalStats()
	return a.sessionFormatter().FormatSessions(summaries)
}

// RunTimeline renders one session's timeline in the configured output
// format.
func (a *Analyzer) RunTimeline(ctx context.Context, sessionID string) error {
	derived, err := a.SessionTimeline(ctx, sessionID)
	if err != nil {
		return err
	}
	a.stats.PrintFinalStats()
	return a.timelineFormatter().FormatTimeline(formatter.BuildTimelineRows(derived))
}

func (a *Analyzer) filterSpec() filter.Spec {
	return filter.Spec{
		Types:     a.config.Types,
		HideNoise: a.config.HideNoise,
		Search:    a.config.Search,
	}
}

func (a *Analyzer) rootFor(src model.Source) string {
	if src == model.SourceCopilot {
		return a.config.CopilotRoot
	}
	return a.config.ClaudeRoot
}

func (a *Analyzer) sessionFormatter() formatter.SessionFormatter {
	switch a.config.OutputFormat {
	case "json":
		return formatter.NewJSONFormatter(a.out)
	case "csv":
		return formatter.NewCSVFormatter(a.out)
	default:
		return formatter.NewTableFormatter(a.out)
	}
}

func (a *Analyzer) timelineFormatter() formatter.TimelineFormatter {
	switch a.config.OutputFormat {
	case "json":
		return formatter.NewJSONFormatter(a.out)
	case "csv":
		return formatter.NewCSVFormatter(a.out)
	default:
		return formatter.NewTableFormatter(a.out)
	}
}

// Store exposes the cache store for watcher-driven invalidation.
func (a *Analyzer) Store() *cache.Store {
	return a.store
}

func stampAll(files []source.SessionFile) []cache.FileStamp {
	stamps := make([]cache.FileStamp, 0, len(files))
	for _, sf := range files {
		stamp, err := cache.StampFile(sf.Path)
		if err != nil {
			continue
		}
		stamps = append(stamps, stamp)
	}
	return stamps
}

// dropParseErrors removes the parse-failure sentinels before timing
// derivation; timeline views exclude them by contract.
func dropParseErrors(events []model.Event) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.IsParseError() {
			continue
		}
		out = append(out, ev)
	}
	return out
}
