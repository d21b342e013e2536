package formatter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/util"
)

const fallbackTermWidth = 80

// TableFormatter renders box-drawing tables sized to the content, with
// preview columns truncated to fit the terminal.
type TableFormatter struct {
	out      io.Writer
	location *time.Location
	width    int
}

func NewTableFormatter(out io.Writer) *TableFormatter {
	return &TableFormatter{
		out:      out,
		location: util.GetTimeProvider().Location(),
		width:    terminalWidth(),
	}
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return fallbackTermWidth
}

var sessionHeaders = []string{
	"Source", "Session", "Project", "First Seen", "Duration",
	"Events", "Tools", "Input", "Output", "First Message",
}

// FormatSessions renders the session index as one table, with a totals
// row at the bottom.
func (f *TableFormatter) FormatSessions(summaries []model.SessionSummary) error {
	if len(summaries) == 0 {
		fmt.Fprintln(f.out, "No sessions found.")
		return nil
	}

	var totalEvents, totalTools, totalInput, totalOutput int64
	rows := make([][]string, 0, len(summaries)+1)
	for _, s := range summaries {
		rows = append(rows, []string{
			string(s.Source),
			shortSessionID(s.SessionID),
			s.ProjectName(),
			formatTime(s.FirstSeen, f.location),
			util.FormatDurationMs(s.Duration().Milliseconds()),
			util.FormatCount(s.EventCount),
			util.FormatCount(s.ToolCallCount),
			util.FormatCount(s.TotalInputTokens),
			util.FormatCount(s.TotalOutputTokens),
			s.FirstUserMessagePreview,
		})
		totalEvents += s.EventCount
		totalTools += s.ToolCallCount
		totalInput += s.TotalInputTokens
		totalOutput += s.TotalOutputTokens
	}
	rows = append(rows, []string{
		"Total", "", "", "", "",
		util.FormatCount(totalEvents),
		util.FormatCount(totalTools),
		util.FormatCount(totalInput),
		util.FormatCount(totalOutput),
		"",
	})

	f.printTable(sessionHeaders, rows, map[int]bool{5: true, 6: true, 7: true, 8: true}, 9)
	return nil
}

var timelineHeaders = []string{"Seq", "Time", "Offset", "Delta", "Type", "Summary"}

// FormatTimeline renders one session's rows in sequence order.
func (f *TableFormatter) FormatTimeline(rows []TimelineRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(f.out, "No events found.")
		return nil
	}

	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		ev := row.Event
		tableRows = append(tableRows, []string{
			util.FormatCount(ev.Sequence),
			formatTime(ev.Timestamp, f.location),
			util.FormatOffsetMs(ev.OffsetMs),
			util.FormatDeltaMs(ev.DeltaMs),
			string(row.Category.Badge),
			row.Category.Summary,
		})
	}

	f.printTable(timelineHeaders, tableRows, map[int]bool{0: true}, 5)
	return nil
}

// printTable sizes columns by content width and draws the table. The
// column at flexCol absorbs any overflow beyond the terminal width.
func (f *TableFormatter) printTable(headers []string, rows [][]string, rightAlign map[int]bool, flexCol int) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	// Shrink the flexible column when the table would overflow.
	total := 1
	for _, w := range widths {
		total += w + 3
	}
	if total > f.width {
		excess := total - f.width
		if widths[flexCol]-excess < 10 {
			widths[flexCol] = 10
		} else {
			widths[flexCol] -= excess
		}
	}

	f.printBorder(widths, "top")
	f.printRow(headers, widths, rightAlign)
	f.printBorder(widths, "middle")
	for i, row := range rows {
		// A totals row is separated from the data above it.
		if i == len(rows)-1 && len(rows) > 1 && row[0] == "Total" {
			f.printBorder(widths, "middle")
		}
		f.printRow(row, widths, rightAlign)
	}
	f.printBorder(widths, "bottom")
}

func (f *TableFormatter) printBorder(widths []int, borderType string) {
	var left, middle, right string
	switch borderType {
	case "top":
		left, middle, right = "┌", "┬", "┐"
	case "middle":
		left, middle, right = "├", "┼", "┤"
	case "bottom":
		left, middle, right = "└", "┴", "┘"
	}

	fmt.Fprint(f.out, left)
	for i, width := range widths {
		fmt.Fprint(f.out, strings.Repeat("─", width+2))
		if i < len(widths)-1 {
			fmt.Fprint(f.out, middle)
		}
	}
	fmt.Fprintln(f.out, right)
}

func (f *TableFormatter) printRow(values []string, widths []int, rightAlign map[int]bool) {
	fmt.Fprint(f.out, "│")
	for i, value := range values {
		cell := runewidth.Truncate(value, widths[i], "…")
		pad := widths[i] - runewidth.StringWidth(cell)
		if rightAlign[i] {
			fmt.Fprintf(f.out, " %s%s │", strings.Repeat(" ", pad), cell)
		} else {
			fmt.Fprintf(f.out, " %s%s │", cell, strings.Repeat(" ", pad))
		}
	}
	fmt.Fprintln(f.out)
}

// shortSessionID keeps ids scannable in tables; full ids stay in JSON
// and CSV output.
func shortSessionID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
