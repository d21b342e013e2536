package formatter

import (
	"encoding/json"
	"io"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// JSONFormatter writes indented JSON. The stdlib encoder keeps field
// order stable across runs, which matters for diffable output.
type JSONFormatter struct {
	out io.Writer
}

func NewJSONFormatter(out io.Writer) *JSONFormatter {
	return &JSONFormatter{out: out}
}

func (f *JSONFormatter) FormatSessions(summaries []model.SessionSummary) error {
	if summaries == nil {
		summaries = []model.SessionSummary{}
	}
	return f.encode(summaries)
}

// timelineJSON flattens a TimelineRow for output: the derived event
// fields plus the categorization.
type timelineJSON struct {
	model.DerivedEvent
	Badge   string `json:"badge"`
	Summary string `json:"summary"`
	Detail  string `json:"detail"`
}

func (f *JSONFormatter) FormatTimeline(rows []TimelineRow) error {
	out := make([]timelineJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, timelineJSON{
			DerivedEvent: row.Event,
			Badge:        string(row.Category.Badge),
			Summary:      row.Category.Summary,
			Detail:       string(row.Category.Detail),
		})
	}
	return f.encode(out)
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
