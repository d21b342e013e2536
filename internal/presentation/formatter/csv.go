package formatter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// CSVFormatter writes RFC 4180 CSV with a header row. Times render in
// the configured timezone; unknown values render as empty cells.
type CSVFormatter struct {
	out      io.Writer
	location *time.Location
}

func NewCSVFormatter(out io.Writer) *CSVFormatter {
	return &CSVFormatter{out: out, location: util.GetTimeProvider().Location()}
}

func (f *CSVFormatter) FormatSessions(summaries []model.SessionSummary) error {
	w := csv.NewWriter(f.out)
	header := []string{
		"source", "session_id", "project_path", "first_seen", "last_seen",
		"event_count", "tool_call_count", "input_tokens", "output_tokens",
		"first_user_message",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, s := range summaries {
		record := []string{
			string(s.Source),
			s.SessionID,
			s.ProjectPath,
			formatTime(s.FirstSeen, f.location),
			formatTime(s.LastSeen, f.location),
			strconv.FormatInt(s.EventCount, 10),
			strconv.FormatInt(s.ToolCallCount, 10),
			strconv.FormatInt(s.TotalInputTokens, 10),
			strconv.FormatInt(s.TotalOutputTokens, 10),
			s.FirstUserMessagePreview,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func (f *CSVFormatter) FormatTimeline(rows []TimelineRow) error {
	w := csv.NewWriter(f.out)
	header := []string{
		"sequence", "timestamp", "offset_ms", "delta_ms", "type", "badge",
		"tool_name", "summary",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		ev := row.Event
		record := []string{
			strconv.FormatInt(ev.Sequence, 10),
			formatTime(ev.Timestamp, f.location),
			optionalInt(ev.OffsetMs),
			optionalInt(ev.DeltaMs),
			string(ev.MessageType),
			string(row.Category.Badge),
			ev.Tool(),
			row.Category.Summary,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
