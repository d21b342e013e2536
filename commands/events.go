package commands

import (
	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/analyzer"
)

var (
	eventTypes []string
	hideNoise  bool
	searchText string
)

var eventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Show one session's event timeline",
	Long: `Prints every event of a session in sequence order, with the offset
from the session start and the delta from the previous event.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	rootCmd.AddCommand(eventsCmd)

	eventsCmd.Flags().StringSliceVar(&eventTypes, "types", nil,
		"Keep only these message types (e.g., user,assistant,tool_call)")
	eventsCmd.Flags().BoolVar(&hideNoise, "hide-noise", false,
		"Hide turn boundaries and context-window events")
	eventsCmd.Flags().StringVar(&searchText, "search", "",
		"Keep only events containing this text")
	eventsCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0,
		"Cache entry lifetime (0 = default 2m)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	config.Types = eventTypes
	config.HideNoise = hideNoise
	config.Search = searchText

	return analyzer.New(config).RunTimeline(cmd.Context(), args[0])
}
