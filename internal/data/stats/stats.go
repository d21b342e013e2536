// Package stats reads claude's stats-cache.json sidecar, which records
// daily activity counters. A missing or malformed file yields an empty
// result.
package stats

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bytedance/sonic"
)

// DailyActivity is one day of recorded usage.
type DailyActivity struct {
	Date          string `json:"date"`
	MessageCount  int64  `json:"messageCount"`
	SessionCount  int64  `json:"sessionCount"`
	ToolCallCount int64  `json:"toolCallCount"`
}

// Totals sums the daily counters.
type Totals struct {
	Days          int   `json:"days"`
	MessageCount  int64 `json:"messageCount"`
	SessionCount  int64 `json:"sessionCount"`
	ToolCallCount int64 `json:"toolCallCount"`
}

type statsCache struct {
	DailyActivity []dailyStats `json:"dailyActivity"`
}

type dailyStats struct {
	Date          *string `json:"date"`
	MessageCount  *int64  `json:"messageCount"`
	SessionCount  *int64  `json:"sessionCount"`
	ToolCallCount *int64  `json:"toolCallCount"`
}

// Load reads <root>/stats-cache.json and returns the daily rows sorted
// by date ascending.
func Load(root string) []DailyActivity {
	data, err := os.ReadFile(filepath.Join(root, "stats-cache.json"))
	if err != nil {
		return nil
	}
	var cache statsCache
	if err := sonic.Unmarshal(data, &cache); err != nil {
		return nil
	}

	days := make([]DailyActivity, 0, len(cache.DailyActivity))
	for _, day := range cache.DailyActivity {
		row := DailyActivity{}
		if day.Date != nil {
			row.Date = *day.Date
		}
		if day.MessageCount != nil {
			row.MessageCount = *day.MessageCount
		}
		if day.SessionCount != nil {
			row.SessionCount = *day.SessionCount
		}
		if day.ToolCallCount != nil {
			row.ToolCallCount = *day.ToolCallCount
		}
		days = append(days, row)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

// Sum folds the daily rows into totals.
func Sum(days []DailyActivity) Totals {
	totals := Totals{Days: len(days)}
	for _, day := range days {
		totals.MessageCount += day.MessageCount
		totals.SessionCount += day.SessionCount
		totals.ToolCallCount += day.ToolCallCount
	}
	return totals
}
