package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

func ts(sec int) *time.Time {
	t := time.Date(2024, 6, 1, 10, 0, sec, 0, time.UTC)
	return &t
}

func tsMilli(sec, milli int) *time.Time {
	t := time.Date(2024, 6, 1, 10, 0, sec, milli*int(time.Millisecond), time.UTC)
	return &t
}

func TestDerive(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Derive(nil))
		assert.Empty(t, Derive([]model.Event{}))
	})

	t.Run("first timestamped event anchors the run", func(t *testing.T) {
		events := []model.Event{
			{Sequence: 1, Timestamp: ts(0)},
			{Sequence: 2, Timestamp: ts(2)},
			{Sequence: 3, Timestamp: ts(5)},
		}
		got := Derive(events)
		require.Len(t, got, 3)

		require.NotNil(t, got[0].DeltaMs)
		assert.Equal(t, int64(0), *got[0].DeltaMs)
		assert.Equal(t, int64(0), *got[0].OffsetMs)

		assert.Equal(t, int64(2000), *got[1].DeltaMs)
		assert.Equal(t, int64(2000), *got[1].OffsetMs)

		assert.Equal(t, int64(3000), *got[2].DeltaMs)
		assert.Equal(t, int64(5000), *got[2].OffsetMs)
	})

	t.Run("untimestamped events carry nil and do not advance state", func(t *testing.T) {
		events := []model.Event{
			{Sequence: 1, Timestamp: ts(0)},
			{Sequence: 2},
			{Sequence: 3, Timestamp: ts(3)},
		}
		got := Derive(events)
		require.Len(t, got, 3)

		assert.Nil(t, got[1].DeltaMs)
		assert.Nil(t, got[1].OffsetMs)

		// Delta for the third event spans the gap, measured against the
		// first event rather than the untimestamped one between them.
		assert.Equal(t, int64(3000), *got[2].DeltaMs)
		assert.Equal(t, int64(3000), *got[2].OffsetMs)
	})

	t.Run("leading untimestamped events do not anchor the offset", func(t *testing.T) {
		events := []model.Event{
			{Sequence: 1},
			{Sequence: 2, Timestamp: ts(10)},
			{Sequence: 3, Timestamp: ts(11)},
		}
		got := Derive(events)
		require.Len(t, got, 3)

		assert.Nil(t, got[0].DeltaMs)
		assert.Nil(t, got[0].OffsetMs)

		assert.Equal(t, int64(0), *got[1].DeltaMs)
		assert.Equal(t, int64(0), *got[1].OffsetMs)
		assert.Equal(t, int64(1000), *got[2].DeltaMs)
		assert.Equal(t, int64(1000), *got[2].OffsetMs)
	})

	t.Run("backward timestamps surface negative values", func(t *testing.T) {
		events := []model.Event{
			{Sequence: 1, Timestamp: ts(10)},
			{Sequence: 2, Timestamp: ts(7)},
		}
		got := Derive(events)
		require.Len(t, got, 2)

		assert.Equal(t, int64(-3000), *got[1].DeltaMs)
		assert.Equal(t, int64(-3000), *got[1].OffsetMs)
	})

	t.Run("no timestamps at all", func(t *testing.T) {
		events := []model.Event{{Sequence: 1}, {Sequence: 2}}
		got := Derive(events)
		require.Len(t, got, 2)
		for _, d := range got {
			assert.Nil(t, d.DeltaMs)
			assert.Nil(t, d.OffsetMs)
		}
	})

	t.Run("millisecond precision", func(t *testing.T) {
		events := []model.Event{
			{Sequence: 1, Timestamp: tsMilli(0, 100)},
			{Sequence: 2, Timestamp: tsMilli(0, 350)},
		}
		got := Derive(events)
		require.Len(t, got, 2)
		assert.Equal(t, int64(250), *got[1].DeltaMs)
	})

	t.Run("source event is carried through unchanged", func(t *testing.T) {
		ev := model.Event{
			Source:      model.SourceClaude,
			SessionID:   "abc",
			Sequence:    7,
			MessageType: model.TypeUser,
			Timestamp:   ts(0),
		}
		got := Derive([]model.Event{ev})
		require.Len(t, got, 1)
		assert.Equal(t, ev, got[0].Event)
	})
}
