package source

import (
	"path/filepath"
	"strings"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// DetectSource classifies a log file path by producer, using the layout
// markers each tool writes: claude keeps sessions under a "projects"
// directory, copilot under "session-state". Returns false when neither
// marker is present.
func DetectSource(path string) (model.Source, bool) {
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		switch segment {
		case "projects", ".claude":
			return model.SourceClaude, true
		case "session-state", ".copilot":
			return model.SourceCopilot, true
		}
	}
	return "", false
}
