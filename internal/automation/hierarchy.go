package automation

import (
	"sort"
	"strings"

	"github.com/beevik/etree"

	"github.com/starford/onebridge/internal/apperr"
	"github.com/starford/onebridge/internal/pagexml"
)

// Page is a page listed in the live hierarchy.
type Page struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LiveSection is a section open in the running application.
type LiveSection struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Locked bool   `json:"locked,omitempty"`
}

// LiveNotebook is a notebook open in the running application.
type LiveNotebook struct {
	Name     string        `json:"name"`
	Sections []LiveSection `json:"sections"`
}

// Hierarchy is a parsed GetHierarchy result.
type Hierarchy struct {
	doc *etree.Document
}

// ParseHierarchy reads the XML returned by GetHierarchy.
func ParseHierarchy(s string) (*Hierarchy, error) {
	doc, err := pagexml.Parse(s)
	if err != nil {
		return nil, err
	}
	return &Hierarchy{doc: doc}, nil
}

// Notebooks lists top-level notebooks with their non-trashed sections, found
// depth-first through section groups.
func (h *Hierarchy) Notebooks() []LiveNotebook {
	var out []LiveNotebook
	for _, nb := range h.notebookElements() {
		ln := LiveNotebook{Name: nb.SelectAttrValue("name", "?")}
		walkSections(nb, func(sec *etree.Element) bool {
			ln.Sections = append(ln.Sections, LiveSection{
				ID:     sec.SelectAttrValue("ID", ""),
				Name:   sec.SelectAttrValue("name", "?"),
				Locked: sec.SelectAttrValue("locked", "") == "true",
			})
			return true
		})
		out = append(out, ln)
	}
	return out
}

// FindSectionID returns the ID of the first non-trashed section named section
// (case-insensitive) inside the notebook named notebook (exact).
func (h *Hierarchy) FindSectionID(notebook, section string) (string, error) {
	var names []string
	found := false
	for _, nb := range h.notebookElements() {
		if nb.SelectAttrValue("name", "") != notebook {
			continue
		}
		found = true
		id := ""
		walkSections(nb, func(sec *etree.Element) bool {
			name := sec.SelectAttrValue("name", "")
			if strings.EqualFold(name, section) {
				id = sec.SelectAttrValue("ID", "")
				return false
			}
			names = append(names, name)
			return true
		})
		if id != "" {
			return id, nil
		}
	}
	if !found {
		var nbNames []string
		for _, nb := range h.notebookElements() {
			nbNames = append(nbNames, nb.SelectAttrValue("name", ""))
		}
		sort.Strings(nbNames)
		return "", &apperr.NotFoundError{Kind: "notebook", Name: notebook, Available: nbNames}
	}
	sort.Strings(names)
	return "", &apperr.NotFoundError{Kind: "section", Name: section, Available: names}
}

// Pages lists the non-trashed pages of the section with the given ID.
func (h *Hierarchy) Pages(sectionID string) []Page {
	var out []Page
	for _, sec := range h.doc.FindElements("//Section") {
		if !inNamespace(sec) || sec.SelectAttrValue("ID", "") != sectionID {
			continue
		}
		for _, p := range sec.FindElements(".//Page") {
			if !inNamespace(p) || trashed(p) {
				continue
			}
			out = append(out, Page{
				ID:   p.SelectAttrValue("ID", ""),
				Name: p.SelectAttrValue("name", "(untitled)"),
			})
		}
		break
	}
	return out
}

func (h *Hierarchy) notebookElements() []*etree.Element {
	var out []*etree.Element
	for _, nb := range h.doc.FindElements("//Notebook") {
		if inNamespace(nb) {
			out = append(out, nb)
		}
	}
	return out
}

// walkSections visits the sections below e depth-first in document order,
// skipping trashed ones, until fn returns false.
func walkSections(e *etree.Element, fn func(*etree.Element) bool) bool {
	for _, c := range e.ChildElements() {
		if !inNamespace(c) {
			continue
		}
		switch c.Tag {
		case "Section":
			if trashed(c) {
				continue
			}
			if !fn(c) {
				return false
			}
		case "SectionGroup":
			if !walkSections(c, fn) {
				return false
			}
		}
	}
	return true
}

func trashed(e *etree.Element) bool {
	return e.SelectAttrValue("isInRecycleBin", "") == "true"
}

func inNamespace(e *etree.Element) bool {
	return e.NamespaceURI() == pagexml.Namespace
}
