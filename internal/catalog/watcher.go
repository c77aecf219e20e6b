package catalog

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/onebridge/internal/models"
)

// Change kinds reported by Watch.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// SectionRef names one section of one notebook.
type SectionRef struct {
	Notebook string
	Section  string
}

// Change describes how one section's canonical file moved between two builds.
type Change struct {
	Kind string
	SectionRef
}

// EventCallback is called once per change after a watcher-driven rebuild.
type EventCallback func(c Change)

// Snapshot records the canonical file of every section in cat.
func Snapshot(cat *models.Catalog) map[SectionRef]models.File {
	out := make(map[SectionRef]models.File)
	for _, nb := range cat.Notebooks() {
		for _, s := range nb.Sections() {
			out[SectionRef{Notebook: nb.Name, Section: s.Key}] = s.Canonical
		}
	}
	return out
}

// Diff compares two snapshots. Results are ordered by notebook, then section.
func Diff(prev, next map[SectionRef]models.File) []Change {
	var out []Change
	for ref, f := range next {
		old, ok := prev[ref]
		switch {
		case !ok:
			out = append(out, Change{Kind: ChangeCreated, SectionRef: ref})
		case old.Path != f.Path || !old.ModTime.Equal(f.ModTime) || old.Size != f.Size:
			out = append(out, Change{Kind: ChangeUpdated, SectionRef: ref})
		}
	}
	for ref := range prev {
		if _, ok := next[ref]; !ok {
			out = append(out, Change{Kind: ChangeDeleted, SectionRef: ref})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Notebook != out[j].Notebook {
			return out[i].Notebook < out[j].Notebook
		}
		return out[i].Section < out[j].Section
	})
	return out
}

// Watch observes the backup root and, after each burst of file events settles
// for debounce, rebuilds the catalog and reports the sections whose canonical
// file changed. It only notifies; request paths still build their own catalog.
func Watch(ctx context.Context, b *Builder, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, b.Root()); err != nil {
		return err
	}

	var prev map[SectionRef]models.File
	if cat, err := b.Build(); err == nil {
		prev = Snapshot(cat)
	} else {
		logger.Warn("watcher: initial build failed", slog.String("error", err.Error()))
	}

	logger.Info("watcher: started", slog.String("root", b.Root()))

	var rebuildTimer *time.Timer
	var rebuildCh <-chan time.Time

	scheduleRebuild := func() {
		if rebuildTimer == nil {
			rebuildTimer = time.NewTimer(debounce)
			rebuildCh = rebuildTimer.C
		} else {
			rebuildTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rebuildTimer != nil {
				rebuildTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-rebuildCh:
			cat, err := b.Build()
			if err != nil {
				logger.Warn("watcher: rebuild failed", slog.String("error", err.Error()))
				continue
			}
			next := Snapshot(cat)
			for _, c := range Diff(prev, next) {
				logger.Debug("watcher: section changed",
					slog.String("kind", c.Kind),
					slog.String("notebook", c.Notebook),
					slog.String("section", c.Section))
				if cb != nil {
					cb(c)
				}
			}
			prev = next

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					scheduleRebuild()
					continue
				}
			}
			// Removed or renamed directories carry no extension.
			if strings.HasSuffix(ev.Name, Ext) || ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleRebuild()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its non-trash subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.Contains(d.Name(), TrashMarker) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
