package formatter

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/penwyp/go-agent-timeline/internal/data/history"
	"github.com/penwyp/go-agent-timeline/internal/data/stats"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

// Sidecar output: the history and stats verbs share the session/timeline
// formatters' output selection.

var historyHeaders = []string{"Source", "Time", "Project", "Display"}

func (f *TableFormatter) FormatHistory(entries []history.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(f.out, "No history found.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			string(e.Source),
			formatTime(e.Timestamp, f.location),
			optionalString(e.Project),
			e.Display,
		})
	}
	f.printTable(historyHeaders, rows, nil, 3)
	return nil
}

var statsHeaders = []string{"Date", "Messages", "Sessions", "Tool Calls"}

func (f *TableFormatter) FormatStats(days []stats.DailyActivity, totals stats.Totals) error {
	if len(days) == 0 {
		fmt.Fprintln(f.out, "No activity recorded.")
		return nil
	}

	rows := make([][]string, 0, len(days)+1)
	for _, day := range days {
		rows = append(rows, []string{
			day.Date,
			util.FormatCount(day.MessageCount),
			util.FormatCount(day.SessionCount),
			util.FormatCount(day.ToolCallCount),
		})
	}
	rows = append(rows, []string{
		"Total",
		util.FormatCount(totals.MessageCount),
		util.FormatCount(totals.SessionCount),
		util.FormatCount(totals.ToolCallCount),
	})
	f.printTable(statsHeaders, rows, map[int]bool{1: true, 2: true, 3: true}, 0)
	return nil
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return f.encode(entries)
}

func (f *JSONFormatter) FormatStats(days []stats.DailyActivity, totals stats.Totals) error {
	if days == nil {
		days = []stats.DailyActivity{}
	}
	return f.encode(map[string]any{
		"dailyActivity": days,
		"totals":        totals,
	})
}

func (f *CSVFormatter) FormatHistory(entries []history.Entry) error {
	w := csv.NewWriter(f.out)
	if err := w.Write([]string{"source", "timestamp", "project", "session_id", "display"}); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			string(e.Source),
			formatTime(e.Timestamp, f.location),
			optionalString(e.Project),
			optionalString(e.SessionID),
			e.Display,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (f *CSVFormatter) FormatStats(days []stats.DailyActivity, totals stats.Totals) error {
	w := csv.NewWriter(f.out)
	if err := w.Write([]string{"date", "message_count", "session_count", "tool_call_count"}); err != nil {
		return err
	}
	for _, day := range days {
		record := []string{
			day.Date,
			strconv.FormatInt(day.MessageCount, 10),
			strconv.FormatInt(day.SessionCount, 10),
			strconv.FormatInt(day.ToolCallCount, 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
