// Package testutil provides shared test helpers for building backup trees.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// Logger returns a logger that discards everything below error level.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// BackupRoot creates an empty temporary backup root.
func BackupRoot(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

// WriteFile creates rel (slash-separated, relative to root) with data and sets
// its modification time. Parent directories are created as needed.
func WriteFile(t *testing.T, root, rel string, data []byte, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(p, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

// WriteSection creates an (empty-bodied) section file with the given mtime.
func WriteSection(t *testing.T, root, rel string, mtime time.Time) string {
	t.Helper()
	return WriteFile(t, root, rel, []byte("section"), mtime)
}
