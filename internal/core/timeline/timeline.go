// Package timeline derives per-event temporal context from an ordered
// run of normalized events: the delta since the previous timestamped
// event and the offset from the session's first timestamped event.
package timeline

import (
	"time"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// Derive walks events in order and attaches delta and offset
// milliseconds to each one. Events without a timestamp get nil for
// both and do not advance the previous-timestamp state, so the next
// timestamped event measures its delta against the last real instant.
// The first timestamped event gets delta 0 and offset 0. Negative
// values are kept as-is when timestamps run backward.
func Derive(events []model.Event) []model.DerivedEvent {
	out := make([]model.DerivedEvent, 0, len(events))
	var first, prev *time.Time
	for _, ev := range events {
		derived := model.DerivedEvent{Event: ev}
		if ev.Timestamp != nil {
			if first == nil {
				first = ev.Timestamp
			}
			var delta int64
			if prev != nil {
				delta = ev.Timestamp.Sub(*prev).Milliseconds()
			}
			derived.DeltaMs = model.Int64(delta)
			derived.OffsetMs = model.Int64(ev.Timestamp.Sub(*first).Milliseconds())
			prev = ev.Timestamp
		}
		out = append(out, derived)
	}
	return out
}
