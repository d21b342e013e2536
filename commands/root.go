// Package commands wires the cobra command tree. The root command
// lists sessions; subcommands drill into one session, sidecar files,
// or serve the same queries over MCP.
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/analyzer"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

var (
	// Data roots
	claudeDir  string
	copilotDir string
	sourceName string

	// Output
	outputFormat string
	timezone     string

	// Logging
	logLevel string
	logFile  string

	// Config file
	configFile string

	// Listing
	sortBy   string
	limit    int
	cacheTTL time.Duration

	rootCmd = &cobra.Command{
		Use:   "go-agent-timeline [flags]",
		Short: "Session timeline explorer for coding agent logs",
		Long: `go-agent-timeline reads Claude Code and GitHub Copilot CLI session logs
and turns them into normalized, queryable timelines.

Without a subcommand it lists every discovered session with event, tool
and token totals.

Examples:
  go-agent-timeline                                  # List all sessions
  go-agent-timeline --source claude --limit 10       # 10 most recent claude sessions
  go-agent-timeline --output json                    # Session index as JSON
  go-agent-timeline events 4f0e9bb2 --hide-noise     # One session's timeline
  go-agent-timeline history --limit 20               # Recent prompts from both producers
  go-agent-timeline mcp                              # Serve queries over MCP stdio`,
		RunE: runSessions,
	}
)

const (
	defaultClaudeDir  = "~/.claude"
	defaultCopilotDir = "~/.copilot"
	defaultLogFile    = "~/.go-agent-timeline/logs/app.log"
	defaultConfigFile = "~/.go-agent-timeline/config.toml"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&claudeDir, "claude-dir", defaultClaudeDir,
		"Claude Code data root")
	pf.StringVar(&copilotDir, "copilot-dir", defaultCopilotDir,
		"Copilot CLI data root")
	pf.StringVar(&sourceName, "source", "auto",
		"Restrict to one producer (auto, claude, copilot)")
	pf.StringVarP(&outputFormat, "output", "o", "table",
		"Output format (table, json, csv)")
	pf.StringVar(&timezone, "timezone", "Local",
		"Timezone for displayed times (e.g., Asia/Shanghai, UTC)")
	pf.StringVar(&logLevel, "log-level", "info",
		"Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", defaultLogFile,
		"Log file path")
	pf.StringVar(&configFile, "config", "",
		"Config file path (default "+defaultConfigFile+")")

	rootCmd.Flags().StringVar(&sortBy, "sort-by", "time",
		"Sort sessions by field (time, events, tokens)")
	rootCmd.Flags().IntVar(&limit, "limit", 0,
		"Limit result count (0 = unlimited)")
	rootCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0,
		"Cache entry lifetime (0 = default 2m)")
}

// fileConfig mirrors ~/.go-agent-timeline/config.toml. Every field is
// a default; an explicitly set flag wins.
type fileConfig struct {
	ClaudeDir  string `toml:"claude_dir"`
	CopilotDir string `toml:"copilot_dir"`
	Source     string `toml:"source"`
	Output     string `toml:"output"`
	Timezone   string `toml:"timezone"`
	LogLevel   string `toml:"log_level"`
	LogFile    string `toml:"log_file"`
	SortBy     string `toml:"sort_by"`
	Limit      int    `toml:"limit"`
}

// setup merges the config file under unset flags, initializes logging
// and the time provider, and builds the shared analyzer config.
func setup(cmd *cobra.Command) (*analyzer.Config, error) {
	if err := mergeConfigFile(cmd); err != nil {
		return nil, err
	}

	logPath := expandPath(logFile)
	if err := ensureDir(filepath.Dir(logPath)); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	util.InitLogger(logLevel, logPath, logLevel == "debug")
	if err := util.InitializeTimeProvider(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	src := sourceName
	if src == "auto" {
		src = ""
	}
	return &analyzer.Config{
		ClaudeRoot:   expandPath(claudeDir),
		CopilotRoot:  expandPath(copilotDir),
		Source:       src,
		SortBy:       sortBy,
		Limit:        limit,
		OutputFormat: outputFormat,
		CacheTTL:     cacheTTL,
		Concurrency:  runtime.NumCPU(),
	}, nil
}

// mergeConfigFile fills flag variables from the TOML config for every
// flag the user did not set. A missing default config file is fine; an
// explicitly named one must exist.
func mergeConfigFile(cmd *cobra.Command) error {
	path := configFile
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	path = expandPath(path)

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	apply := func(flagName string, target *string, value string) {
		if value == "" {
			return
		}
		if flag := cmd.Flags().Lookup(flagName); flag != nil && !flag.Changed {
			*target = value
		}
	}
	apply("claude-dir", &claudeDir, cfg.ClaudeDir)
	apply("copilot-dir", &copilotDir, cfg.CopilotDir)
	apply("source", &sourceName, cfg.Source)
	apply("output", &outputFormat, cfg.Output)
	apply("timezone", &timezone, cfg.Timezone)
	apply("log-level", &logLevel, cfg.LogLevel)
	apply("log-file", &logFile, cfg.LogFile)
	apply("sort-by", &sortBy, cfg.SortBy)
	if cfg.Limit > 0 {
		if flag := cmd.Flags().Lookup("limit"); flag != nil && !flag.Changed {
			limit = cfg.Limit
		}
	}
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	return analyzer.New(config).RunSessions(cmd.Context())
}

func Execute() error {
	return rootCmd.Execute()
}

// Helper functions

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

func ensureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
