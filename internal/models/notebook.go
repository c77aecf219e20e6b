// Package models defines the catalog types for onebridge.
//
// A Catalog is rebuilt from disk on every request; callers must not hold a
// *Notebook or *Section across rebuilds.
package models

import (
	"sort"
	"time"
)

// File is one candidate snapshot of a section on disk.
type File struct {
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
	Size    int64     `json:"size"`
}

// Section is one logical section; Files are ordered newest first and
// Canonical is Files[0].
type Section struct {
	Key       string `json:"key"`
	Files     []File `json:"files"`
	Canonical File   `json:"canonical"`
}

// Notebook is a top-level directory of the backup tree.
type Notebook struct {
	Name     string
	Path     string
	sections map[string]*Section
	order    []string
}

// NewNotebook returns an empty notebook rooted at path.
func NewNotebook(name, path string) *Notebook {
	return &Notebook{Name: name, Path: path, sections: make(map[string]*Section)}
}

// AddFile files f under the given section key, creating the section on first use.
func (n *Notebook) AddFile(key string, f File) *Section {
	s, ok := n.sections[key]
	if !ok {
		s = &Section{Key: key}
		n.sections[key] = s
		n.order = append(n.order, key)
	}
	s.Files = append(s.Files, f)
	return s
}

// Section returns the section stored under key (exact match).
func (n *Notebook) Section(key string) (*Section, bool) {
	s, ok := n.sections[key]
	return s, ok
}

// Sections returns sections in insertion order.
func (n *Notebook) Sections() []*Section {
	out := make([]*Section, 0, len(n.order))
	for _, k := range n.order {
		out = append(out, n.sections[k])
	}
	return out
}

// SectionNames returns section keys sorted lexicographically.
func (n *Notebook) SectionNames() []string {
	names := append([]string(nil), n.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of sections.
func (n *Notebook) Len() int {
	return len(n.order)
}

// Catalog maps notebook names to notebooks for one scan of the backup root.
type Catalog struct {
	Root      string
	notebooks map[string]*Notebook
	order     []string
}

// NewCatalog returns an empty catalog for root.
func NewCatalog(root string) *Catalog {
	return &Catalog{Root: root, notebooks: make(map[string]*Notebook)}
}

// Add registers nb; a later notebook with the same name replaces the earlier one.
func (c *Catalog) Add(nb *Notebook) {
	if _, ok := c.notebooks[nb.Name]; !ok {
		c.order = append(c.order, nb.Name)
	}
	c.notebooks[nb.Name] = nb
}

// Notebook returns the notebook stored under name (exact match).
func (c *Catalog) Notebook(name string) (*Notebook, bool) {
	nb, ok := c.notebooks[name]
	return nb, ok
}

// Notebooks returns notebooks in directory enumeration order.
func (c *Catalog) Notebooks() []*Notebook {
	out := make([]*Notebook, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.notebooks[name])
	}
	return out
}

// NotebookNames returns notebook names sorted lexicographically.
func (c *Catalog) NotebookNames() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}

// Len returns the number of notebooks.
func (c *Catalog) Len() int {
	return len(c.order)
}
