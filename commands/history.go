package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/data/history"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent prompts and commands from both producers",
	Long: `Merges claude's history.jsonl and copilot's command-history-state.json
into one list, newest first. Copilot entries carry no timestamps and
sort after timestamped ones.`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0,
		"Limit result count (0 = unlimited)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}

	claudeRoot, copilotRoot := config.ClaudeRoot, config.CopilotRoot
	switch config.Source {
	case "claude":
		copilotRoot = ""
	case "copilot":
		claudeRoot = ""
	}

	entries := history.Merge(claudeRoot, copilotRoot, historyLimit)
	return historyFormatter().FormatHistory(entries)
}

func historyFormatter() formatter.HistoryFormatter {
	switch outputFormat {
	case "json":
		return formatter.NewJSONFormatter(os.Stdout)
	case "csv":
		return formatter.NewCSVFormatter(os.Stdout)
	default:
		return formatter.NewTableFormatter(os.Stdout)
	}
}
