package catalog

import (
	"strings"

	"github.com/starford/onebridge/internal/apperr"
	"github.com/starford/onebridge/internal/models"
)

// Index answers case-insensitive lookups over one built catalog.
type Index struct {
	cat *models.Catalog
}

// NewIndex wraps cat.
func NewIndex(cat *models.Catalog) *Index {
	return &Index{cat: cat}
}

// Catalog returns the wrapped catalog.
func (ix *Index) Catalog() *models.Catalog {
	return ix.cat
}

// ResolveNotebook finds a notebook by name, ignoring case. When two names
// differ only by case the first in enumeration order wins.
func (ix *Index) ResolveNotebook(name string) (*models.Notebook, error) {
	if nb, ok := ix.cat.Notebook(name); ok {
		return nb, nil
	}
	for _, nb := range ix.cat.Notebooks() {
		if strings.EqualFold(nb.Name, name) {
			return nb, nil
		}
	}
	return nil, &apperr.NotFoundError{Kind: "notebook", Name: name, Available: ix.cat.NotebookNames()}
}

// ResolveSection finds a section of nb by key, ignoring case.
func (ix *Index) ResolveSection(nb *models.Notebook, name string) (*models.Section, error) {
	if s, ok := nb.Section(name); ok {
		return s, nil
	}
	for _, s := range nb.Sections() {
		if strings.EqualFold(s.Key, name) {
			return s, nil
		}
	}
	return nil, &apperr.NotFoundError{Kind: "section", Name: name, Available: nb.SectionNames()}
}

// Resolve looks up a notebook and then one of its sections.
func (ix *Index) Resolve(notebook, section string) (*models.Notebook, *models.Section, error) {
	nb, err := ix.ResolveNotebook(notebook)
	if err != nil {
		return nil, nil, err
	}
	s, err := ix.ResolveSection(nb, section)
	if err != nil {
		return nb, nil, err
	}
	return nb, s, nil
}
