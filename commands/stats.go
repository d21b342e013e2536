package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/data/stats"
	"github.com/penwyp/go-agent-timeline/internal/presentation/formatter"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show claude's daily activity counters",
	Long:  `Reads claude's stats-cache.json and prints per-day message, session and tool-call counts with totals.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}

	days := stats.Load(config.ClaudeRoot)
	return statsFormatter().FormatStats(days, stats.Sum(days))
}

func statsFormatter() formatter.StatsFormatter {
	switch outputFormat {
	case "json":
		return formatter.NewJSONFormatter(os.Stdout)
	case "csv":
		return formatter.NewCSVFormatter(os.Stdout)
	default:
		return formatter.NewTableFormatter(os.Stdout)
	}
}
