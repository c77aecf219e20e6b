// Package catalog discovers notebooks and sections in a OneNote backup tree
// and resolves each section to its most recent snapshot.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/starford/onebridge/internal/models"
)

// Builder scans a backup root. It holds no state between builds.
type Builder struct {
	root   string
	logger *slog.Logger
}

// NewBuilder returns a Builder for root. The root is resolved to an absolute
// path but not checked; see CheckRoot.
func NewBuilder(root string, logger *slog.Logger) *Builder {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{root: root, logger: logger}
}

// Root returns the absolute backup root.
func (b *Builder) Root() string {
	return b.root
}

// CheckRoot fails unless the backup root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("catalog: stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("catalog: root is not a directory: %s", root)
	}
	return nil
}

// Build scans the root and returns a fresh catalog. Only a failure to list the
// root itself is returned; unreadable entries below it are logged and skipped.
func (b *Builder) Build() (*models.Catalog, error) {
	entries, err := os.ReadDir(b.root)
	if err != nil {
		return nil, fmt.Errorf("catalog: read root: %w", err)
	}

	cat := models.NewCatalog(b.root)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		nb := b.scanNotebook(e.Name(), filepath.Join(b.root, e.Name()))
		if nb.Len() == 0 {
			continue
		}
		cat.Add(nb)
	}
	return cat, nil
}

func (b *Builder) scanNotebook(name, dir string) *models.Notebook {
	nb := models.NewNotebook(name, dir)

	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			b.logger.Warn("catalog: walk failed", slog.String("path", p), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() && p != dir {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && inTrash(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), Ext) || inTrash(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			b.logger.Warn("catalog: stat failed", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		nb.AddFile(SectionKey(dir, p), models.File{
			Path:    p,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})

	for _, s := range nb.Sections() {
		pickCanonical(s)
	}
	return nb
}

// pickCanonical orders candidates newest first, breaking mtime ties by path,
// and makes the first one canonical.
func pickCanonical(s *models.Section) {
	sort.SliceStable(s.Files, func(i, j int) bool {
		a, b := s.Files[i], s.Files[j]
		if !a.ModTime.Equal(b.ModTime) {
			return a.ModTime.After(b.ModTime)
		}
		return a.Path < b.Path
	})
	if len(s.Files) > 0 {
		s.Canonical = s.Files[0]
	}
}
