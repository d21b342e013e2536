// Package source discovers session log files under the two producers'
// data roots and classifies arbitrary paths by producer. A missing root
// is not an error: discovery over it yields an empty set.
package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// SessionFile is one discovered session log file plus the identity
// derived from its location.
type SessionFile struct {
	Source    model.Source
	Path      string
	SessionID string
	// ProjectPath is the decoded claude project directory name, or the
	// copilot workspace cwd when workspace.yaml supplied one.
	ProjectPath string
	// IsAgent marks claude sidechain sessions (agent- file stem prefix).
	IsAgent bool
	// Workspace carries the copilot per-session metadata when present.
	Workspace *model.CopilotWorkspace
}

// Scanner discovers session files under the configured roots. Either
// root may be empty to skip that producer.
type Scanner struct {
	claudeRoot  string
	copilotRoot string
}

func NewScanner(claudeRoot, copilotRoot string) *Scanner {
	return &Scanner{claudeRoot: claudeRoot, copilotRoot: copilotRoot}
}

// Scan walks both roots and returns all discovered session files,
// claude first, each group sorted by path.
func (s *Scanner) Scan() ([]SessionFile, error) {
	start := time.Now()
	var files []SessionFile

	if s.claudeRoot != "" {
		claude, err := ScanClaudeRoot(s.claudeRoot)
		if err != nil {
			return nil, fmt.Errorf("scan claude root: %w", err)
		}
		files = append(files, claude...)
	}
	if s.copilotRoot != "" {
		copilot, err := ScanCopilotRoot(s.copilotRoot)
		if err != nil {
			return nil, fmt.Errorf("scan copilot root: %w", err)
		}
		files = append(files, copilot...)
	}

	util.LogDebug(fmt.Sprintf("Source scan completed: duration %v, found %d session files",
		time.Since(start), len(files)))
	return files, nil
}

// ScanClaudeRoot finds conversation files under <root>/projects/*/,
// one JSONL file per session. The root itself may already be the
// projects directory.
func ScanClaudeRoot(root string) ([]SessionFile, error) {
	projectsDir := root
	if base := filepath.Base(root); base != "projects" {
		if candidate := filepath.Join(root, "projects"); dirExists(candidate) {
			projectsDir = candidate
		}
	}

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SessionFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		projectPath := DecodeProjectDir(entry.Name())
		dir := filepath.Join(projectsDir, entry.Name())
		names, err := os.ReadDir(dir)
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip project dir (error): %s - %v", dir, err))
			continue
		}
		for _, f := range names {
			if f.IsDir() || !strings.HasSuffix(strings.ToLower(f.Name()), ".jsonl") {
				continue
			}
			stem := strings.TrimSuffix(f.Name(), filepath.Ext(f.Name()))
			isAgent := strings.HasPrefix(stem, "agent-")
			files = append(files, SessionFile{
				Source:      model.SourceClaude,
				Path:        filepath.Join(dir, f.Name()),
				SessionID:   strings.TrimPrefix(stem, "agent-"),
				ProjectPath: projectPath,
				IsAgent:     isAgent,
			})
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// ScanCopilotRoot finds session files under <root>/session-state/<id>/.
// Each session directory holds an events.jsonl, or a flat <id>.jsonl in
// older layouts, optionally next to a workspace.yaml.
func ScanCopilotRoot(root string) ([]SessionFile, error) {
	stateDir := root
	if base := filepath.Base(root); base != "session-state" {
		if candidate := filepath.Join(root, "session-state"); dirExists(candidate) {
			stateDir = candidate
		}
	}

	entries, err := os.ReadDir(stateDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []SessionFile
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() {
			if strings.HasSuffix(strings.ToLower(name), ".jsonl") {
				files = append(files, SessionFile{
					Source:    model.SourceCopilot,
					Path:      filepath.Join(stateDir, name),
					SessionID: strings.TrimSuffix(name, filepath.Ext(name)),
				})
			}
			continue
		}

		dir := filepath.Join(stateDir, name)
		eventsPath := filepath.Join(dir, "events.jsonl")
		if !fileExists(eventsPath) {
			continue
		}
		sf := SessionFile{
			Source:    model.SourceCopilot,
			Path:      eventsPath,
			SessionID: name,
		}
		if ws := readWorkspace(filepath.Join(dir, "workspace.yaml")); ws != nil {
			sf.Workspace = ws
			sf.ProjectPath = ws.Cwd
			if ws.Id != "" {
				sf.SessionID = ws.Id
			}
		}
		files = append(files, sf)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// DecodeProjectDir reverses the encoding claude applies to project
// paths when naming project directories: path separators become dashes,
// so "-Users-foo-bar" decodes to "/Users/foo/bar". The encoding is
// lossy (dashes inside segments are indistinguishable), which is why
// parsed events later backfill the real cwd when one is recorded.
func DecodeProjectDir(name string) string {
	if name == "-" || name == "" {
		return "/"
	}
	if !strings.HasPrefix(name, "-") {
		return name
	}
	return "/" + strings.ReplaceAll(name[1:], "-", "/")
}

func readWorkspace(path string) *model.CopilotWorkspace {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var ws model.CopilotWorkspace
	if err := yaml.Unmarshal(data, &ws); err != nil {
		util.LogDebug(fmt.Sprintf("Skip malformed workspace.yaml: %s - %v", path, err))
		return nil
	}
	return &ws
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
