// Package parser reads session log files line by line and hands each
// line to the normalizer. Line-level garbage becomes parse-error
// sentinel events; only I/O failures surface as errors.
package parser

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/normalizer"
	"github.com/penwyp/go-agent-timeline/internal/data/source"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Parser parses discovered session files into canonical events.
type Parser struct {
	concurrency int
}

// ParseResult is the outcome for one file.
type ParseResult struct {
	File   source.SessionFile
	Events []model.Event
	Error  error
}

func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile parses one session file. The sequence of each event is its
// 1-based line number; blank lines consume a number but produce no
// event, so sequences inside a file stay aligned with the file itself.
func (p *Parser) ParseFile(sf source.SessionFile) ([]model.Event, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", sf.Path))

	file, err := os.Open(sf.Path)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	var events []model.Event
	switch sf.Source {
	case model.SourceCopilot:
		events = parseCopilot(scanner, sf)
	default:
		events = parseClaude(scanner, sf)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan session file: %w", err)
	}
	return events, nil
}

func parseClaude(scanner *bufio.Scanner, sf source.SessionFile) []model.Event {
	ctx := normalizer.ClaudeFileContext{
		SessionID:           sf.SessionID,
		FallbackProjectPath: sf.ProjectPath,
		IsAgent:             sf.IsAgent,
	}

	var events []model.Event
	var line int64
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		events = append(events, normalizer.NormalizeClaudeLine(scanner.Bytes(), ctx, line))
	}
	normalizer.BackfillClaudeProjectPaths(events, sf.ProjectPath)
	return events
}

func parseCopilot(scanner *bufio.Scanner, sf source.SessionFile) []model.Event {
	n := normalizer.NewCopilotNormalizer(sf.SessionID, sf.Workspace)

	var events []model.Event
	var line int64
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		events = append(events, n.NormalizeLine(scanner.Bytes(), line))
	}
	normalizer.BackfillCopilotSessionIDs(events, n.SessionID())
	return events
}

// ParseFiles parses files concurrently under a bounded semaphore and
// returns per-file results sorted by path. Context cancellation stops
// scheduling of files not yet started.
func (p *Parser) ParseFiles(ctx context.Context, files []source.SessionFile) []ParseResult {
	start := time.Now()
	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d",
		len(files), p.concurrency))

	results := make([]ParseResult, 0, len(files))
	var mu sync.Mutex
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, p.concurrency)

	for _, sf := range files {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(sf source.SessionFile) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			events, err := p.ParseFile(sf)
			if err != nil {
				util.LogWarn(fmt.Sprintf("File parsing failed: %s - %v", sf.Path, err))
			}

			mu.Lock()
			results = append(results, ParseResult{File: sf, Events: events, Error: err})
			mu.Unlock()
		}(sf)
	}

	wg.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].File.Path < results[j].File.Path })

	util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	return results
}

// ParseAll parses files and merges the per-file event slices, dropping
// files that failed to open. The per-file order is preserved.
func (p *Parser) ParseAll(ctx context.Context, files []source.SessionFile) []model.Event {
	var all []model.Event
	for _, result := range p.ParseFiles(ctx, files) {
		if result.Error != nil {
			continue
		}
		all = append(all, result.Events...)
	}
	return all
}
