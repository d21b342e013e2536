package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/go-agent-timeline/internal/data/source"
)

var detectCmd = &cobra.Command{
	Use:    "detect [path...]",
	Short:  "Debug command to classify log files and inspect discovery",
	Long:   `With paths, classifies each by producer. Without, prints everything discovery finds under the configured roots.`,
	Hidden: true,
	RunE:   runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		for _, path := range args {
			if src, ok := source.DetectSource(path); ok {
				fmt.Printf("%s: %s\n", path, src)
			} else {
				fmt.Printf("%s: unknown\n", path)
			}
		}
		return nil
	}

	files, err := source.NewScanner(config.ClaudeRoot, config.CopilotRoot).Scan()
	if err != nil {
		return err
	}

	counts := map[string]int{}
	for _, sf := range files {
		counts[string(sf.Source)]++
		marker := ""
		if sf.IsAgent {
			marker = " [agent]"
		}
		fmt.Printf("%-8s %s%s\n", sf.Source, sf.Path, marker)
		if sf.ProjectPath != "" {
			fmt.Printf("         project: %s\n", sf.ProjectPath)
		}
		if sf.Workspace != nil && sf.Workspace.Cwd != "" {
			fmt.Printf("         cwd: %s\n", sf.Workspace.Cwd)
		}
	}
	fmt.Printf("\n%d session files", len(files))
	for src, n := range counts {
		fmt.Printf(", %s: %d", src, n)
	}
	fmt.Println()
	return nil
}
