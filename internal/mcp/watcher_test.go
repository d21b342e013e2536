package mcp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
	"github.com/penwyp/go-agent-timeline/internal/data/cache"
)

func TestWatcherInvalidatesOnWrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "projects", "-work-app"), 0755))

	store := cache.New(time.Hour)
	store.PutSummaries(cache.SummariesKey(root), []model.SessionSummary{{SessionID: "s"}}, nil)

	w, err := NewWatcher(store, root)
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	path := filepath.Join(root, "projects", "-work-app", "s.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	require.Eventually(t, func() bool {
		_, reason := store.GetSummaries(cache.SummariesKey(root))
		return reason == cache.MissReasonNotFound
	}, 5*time.Second, 50*time.Millisecond)
}

func TestNewWatcherNoRoots(t *testing.T) {
	store := cache.New(time.Hour)
	_, err := NewWatcher(store, "", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"source": "claude",
		"limit":  float64(5),
		"hide":   true,
		"types":  []any{"user", "assistant", 7},
	}

	assert.Equal(t, "claude", stringArg(args, "source"))
	assert.Equal(t, "", stringArg(args, "absent"))
	assert.Equal(t, 5, intArg(args, "limit"))
	assert.Equal(t, 0, intArg(args, "absent"))
	assert.True(t, boolArg(args, "hide"))
	assert.Equal(t, []string{"user", "assistant"}, stringSliceArg(args, "types"))
	assert.Nil(t, stringSliceArg(args, "absent"))
}
