// Package interaction holds presentation-side ordering helpers.
package interaction

import (
	"sort"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// SortField selects which session attribute drives the ordering.
type SortField int

const (
	SortByTime SortField = iota
	SortByEvents
	SortByTokens
)

// ParseSortField maps the CLI flag value onto a field. Unknown values
// fall back to time ordering.
func ParseSortField(s string) SortField {
	switch s {
	case "events":
		return SortByEvents
	case "tokens":
		return SortByTokens
	default:
		return SortByTime
	}
}

// SortOrder represents the sort direction.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// SessionSorter orders session summaries for display.
type SessionSorter struct {
	field SortField
	order SortOrder
}

// NewSessionSorter returns the default ordering: most recent activity
// first.
func NewSessionSorter() *SessionSorter {
	return &SessionSorter{field: SortByTime, order: SortDescending}
}

func (s *SessionSorter) SetField(field SortField) { s.field = field }

func (s *SessionSorter) SetOrder(order SortOrder) { s.order = order }

// Sort sorts the summaries in place. Sessions without a known first
// activity sort as oldest.
func (s *SessionSorter) Sort(summaries []model.SessionSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		var less bool
		switch s.field {
		case SortByEvents:
			less = summaries[i].EventCount < summaries[j].EventCount
		case SortByTokens:
			ti := summaries[i].TotalInputTokens + summaries[i].TotalOutputTokens
			tj := summaries[j].TotalInputTokens + summaries[j].TotalOutputTokens
			less = ti < tj
		default:
			fi, fj := summaries[i].FirstSeen, summaries[j].FirstSeen
			switch {
			case fi == nil:
				less = true
			case fj == nil:
				less = false
			default:
				less = fi.Before(*fj)
			}
		}
		if s.order == SortDescending {
			return !less
		}
		return less
	})
}
