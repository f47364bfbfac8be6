package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManojD37/ZEN-AI-Referral-Fax-Extractor/constants"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

func TestDiscoverFiltersAndSkipsHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.TXT"))
	touch(t, filepath.Join(root, "notes.xlsx"))
	touch(t, filepath.Join(root, ".hidden.png"))
	touch(t, filepath.Join(root, ".cache", "c.docx"))
	touch(t, filepath.Join(root, "sub", "d.tiff"))

	got, stats, err := Discover(root, true)
	require.NoError(t, err)

	assert.Equal(t, []Candidate{
		{Path: filepath.Join(root, "a.pdf"), Format: constants.FormatPDF},
		{Path: filepath.Join(root, "b.TXT"), Format: constants.FormatText},
		{Path: filepath.Join(root, "sub", "d.tiff"), Format: constants.FormatImage},
	}, got)
	assert.EqualValues(t, 3, stats.Matched)
	assert.Zero(t, stats.Failed)

	all, _, err := Discover(root, false)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestDiscoverRequiresRoot(t *testing.T) {
	_, _, err := Discover("  ", true)
	require.Error(t, err)

	_, _, err = Discover(filepath.Join(t.TempDir(), "missing"), true)
	require.Error(t, err)
}

func TestWatcherInitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "existing.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, SkipHidden: true})
	require.NoError(t, err)

	next := func() Candidate {
		select {
		case c := <-events:
			return c
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for watcher event")
			return Candidate{}
		}
	}

	assert.Equal(t, Candidate{Path: filepath.Join(root, "existing.pdf"), Format: constants.FormatPDF}, next())

	touch(t, filepath.Join(root, "ignored.csv"))
	touch(t, filepath.Join(root, "fresh.png"))
	c := next()
	assert.Equal(t, filepath.Join(root, "fresh.png"), c.Path)
	assert.Equal(t, constants.FormatImage, c.Format)

	cancel()
	for range events {
	}
}

func TestWatcherSkipsRenamedAwayPaths(t *testing.T) {
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, Debounce: time.Second})
	require.NoError(t, err)

	draft := filepath.Join(root, "draft.txt")
	final := filepath.Join(root, "final.txt")
	touch(t, draft)
	require.NoError(t, os.Rename(draft, final))

	var seen []string
	deadline := time.After(5 * time.Second)
	for len(seen) == 0 || seen[len(seen)-1] != final {
		select {
		case c := <-events:
			seen = append(seen, c.Path)
		case <-deadline:
			t.Fatalf("timed out waiting for %s, got %v", final, seen)
		}
	}
	assert.NotContains(t, seen, draft, "the old name no longer exists")

	cancel()
	for range events {
	}
}
