// Package filter narrows a derived event stream by type, noise class,
// and free-text search. Predicates compose by AND and never mutate the
// input, so the same slice can be filtered repeatedly with different
// specs.
package filter

import (
	"strings"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// Noise holds the marker types hidden by the hide-noise toggle: turn
// boundaries and context-window management events that crowd out the
// conversation itself.
var Noise = map[model.MessageType]struct{}{
	model.TypeTurnStart:          {},
	model.TypeTurnEnd:            {},
	model.TypeTruncation:         {},
	model.TypeCompactionStart:    {},
	model.TypeCompactionComplete: {},
}

// Spec describes one filter pass. Zero value passes everything.
type Spec struct {
	// Types restricts output to the listed message types. Empty means
	// no restriction.
	Types []string
	// HideNoise drops the types in Noise.
	HideNoise bool
	// Search keeps events whose content, tool name, or message type
	// contains the text, case-insensitively.
	Search string
}

// Apply returns the events matching spec, in their original order.
func Apply(events []model.DerivedEvent, spec Spec) []model.DerivedEvent {
	allowed := make(map[string]struct{}, len(spec.Types))
	for _, t := range spec.Types {
		allowed[t] = struct{}{}
	}
	search := strings.ToLower(spec.Search)

	out := make([]model.DerivedEvent, 0, len(events))
	for _, ev := range events {
		if !matches(ev.Event, allowed, spec.HideNoise, search) {
			continue
		}
		out = append(out, ev)
	}
	return out
}

func matches(ev model.Event, allowed map[string]struct{}, hideNoise bool, search string) bool {
	if len(allowed) > 0 {
		if _, ok := allowed[string(ev.MessageType)]; !ok {
			return false
		}
	}
	if hideNoise {
		if _, noisy := Noise[ev.MessageType]; noisy {
			return false
		}
	}
	if search != "" {
		if !strings.Contains(strings.ToLower(ev.Content()), search) &&
			!strings.Contains(strings.ToLower(ev.Tool()), search) &&
			!strings.Contains(strings.ToLower(string(ev.MessageType)), search) {
			return false
		}
	}
	return true
}
