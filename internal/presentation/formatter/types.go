// Package formatter renders session indexes and timelines as tables,
// JSON, or CSV. Formatters write to an injected io.Writer so output is
// testable; the CLI passes os.Stdout.
package formatter

import (
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/categorize"
	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/history"
	"github.com/penwyp/go-agent-timeline/internal/data/stats"
)

// TimelineRow is one presentation-ready timeline line: the derived
// event plus its categorization.
type TimelineRow struct {
	Event    model.DerivedEvent
	Category categorize.Category
}

// BuildTimelineRows categorizes a derived event stream.
func BuildTimelineRows(events []model.DerivedEvent) []TimelineRow {
	rows := make([]TimelineRow, 0, len(events))
	for _, ev := range events {
		rows = append(rows, TimelineRow{Event: ev, Category: categorize.Categorize(ev.Event)})
	}
	return rows
}

// SessionFormatter renders a session index.
type SessionFormatter interface {
	FormatSessions(summaries []model.SessionSummary) error
}

// TimelineFormatter renders one session's timeline.
type TimelineFormatter interface {
	FormatTimeline(rows []TimelineRow) error
}

// HistoryFormatter renders merged shell history.
type HistoryFormatter interface {
	FormatHistory(entries []history.Entry) error
}

// StatsFormatter renders daily activity counters.
type StatsFormatter interface {
	FormatStats(days []stats.DailyActivity, totals stats.Totals) error
}

// formatTime renders an instant for table and CSV cells.
func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("2006-01-02 15:04:05")
}
