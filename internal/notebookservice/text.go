package notebookservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/starford/onebridge/internal/apperr"
)

// Text renders each operation as the human-readable string returned by the
// tool surfaces. Failures become messages, never errors.
type Text struct {
	svc *Service
}

// NewText wraps svc.
func NewText(svc *Service) *Text {
	return &Text{svc: svc}
}

// ListNotebooks lists notebook names with section counts.
func (t *Text) ListNotebooks(ctx context.Context) string {
	items, err := t.svc.ListNotebooks(ctx)
	if err != nil || len(items) == 0 {
		return fmt.Sprintf("No notebooks found in %s", t.svc.Root())
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s  (%d sections)", it.Name, it.Sections))
	}
	return strings.Join(lines, "\n")
}

// ListSections lists the sections of one notebook with their sizes.
func (t *Text) ListSections(ctx context.Context, notebook string) string {
	res, err := t.svc.ListSections(ctx, notebook)
	if err != nil {
		return message(err)
	}
	lines := make([]string, 0, len(res.Sections))
	for _, s := range res.Sections {
		lines = append(lines, "- "+s.String())
	}
	return strings.Join(lines, "\n")
}

// ReadSection returns all text of a section separated by blank lines.
func (t *Text) ReadSection(ctx context.Context, notebook, section string) string {
	res, err := t.svc.ReadSection(ctx, notebook, section)
	if err != nil {
		return message(err)
	}
	if len(res.Fragments) == 0 {
		return fmt.Sprintf("No text content found in section '%s'.", section)
	}
	return strings.Join(res.Fragments, "\n\n")
}

// PageTitles lists the page titles of a section.
func (t *Text) PageTitles(ctx context.Context, notebook, section string) string {
	res, err := t.svc.PageTitles(ctx, notebook, section)
	if err != nil {
		return message(err)
	}
	if len(res.Fragments) == 0 {
		return fmt.Sprintf("No page titles found in section '%s'.", section)
	}
	lines := make([]string, 0, len(res.Fragments))
	for _, title := range res.Fragments {
		lines = append(lines, "- "+title)
	}
	return strings.Join(lines, "\n")
}

// Search renders up to 30 matches with a header carrying the total count.
func (t *Text) Search(ctx context.Context, query string) string {
	res, err := t.svc.Search(ctx, query)
	if err != nil {
		return message(err)
	}
	if len(res.Results) == 0 {
		return fmt.Sprintf("No results found for '%s'.", query)
	}
	blocks := make([]string, 0, len(res.Results))
	for _, r := range res.Results {
		blocks = append(blocks, fmt.Sprintf("[%s / %s]\n  %s", r.Notebook, r.Section, r.Snippet))
	}
	return fmt.Sprintf("Found %d match(es) for '%s':\n\n", res.Total, query) + strings.Join(blocks, "\n\n")
}

// ListAllSections lists every section grouped by notebook.
func (t *Text) ListAllSections(ctx context.Context) string {
	all, err := t.svc.ListAllSections(ctx)
	if err != nil || len(all) == 0 {
		return fmt.Sprintf("No notebooks found in %s", t.svc.Root())
	}
	var lines []string
	for _, nb := range all {
		lines = append(lines, "\n## "+nb.Notebook)
		for _, s := range nb.Sections {
			lines = append(lines, "  - "+s.String())
		}
	}
	return strings.Join(lines, "\n")
}

// Summary previews every section of a notebook.
func (t *Text) Summary(ctx context.Context, notebook string) string {
	sum, err := t.svc.Summary(ctx, notebook)
	if err != nil {
		return message(err)
	}
	lines := []string{"# " + sum.Notebook + "\n"}
	for _, s := range sum.Sections {
		lines = append(lines, "## "+s.Section)
		if s.Preview != "" {
			lines = append(lines, "  Preview: "+s.Preview)
		} else {
			lines = append(lines, "  (no text content)")
		}
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// LiveNotebooks lists notebooks and sections open in OneNote.
func (t *Text) LiveNotebooks(ctx context.Context) string {
	nbs, err := t.svc.LiveNotebooks(ctx)
	if err != nil {
		return "Could not connect to OneNote. Make sure the OneNote desktop app is installed. (" + err.Error() + ")"
	}
	var lines []string
	for _, nb := range nbs {
		lines = append(lines, "\n## "+nb.Name)
		for _, s := range nb.Sections {
			locked := ""
			if s.Locked {
				locked = " (locked)"
			}
			lines = append(lines, "  - "+s.Name+locked)
		}
	}
	if len(lines) == 0 {
		return "No notebooks found in OneNote."
	}
	return strings.Join(lines, "\n")
}

// CreatePage creates a page and reports its ID.
func (t *Text) CreatePage(ctx context.Context, req CreatePageRequest) string {
	id, err := t.svc.CreatePage(ctx, req)
	switch {
	case err == nil:
		return fmt.Sprintf("Page '%s' created successfully (ID: %s)", req.Title, id)
	case errors.Is(err, apperr.ErrNotFound):
		return sectionNotFound(req.Notebook, req.Section, err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		return message(err)
	}
	return "Failed to create page: " + err.Error()
}

// LivePages lists the pages of a live section with their IDs.
func (t *Text) LivePages(ctx context.Context, notebook, section string) string {
	pages, err := t.svc.LivePages(ctx, notebook, section)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return sectionNotFound(notebook, section, err)
	case errors.Is(err, apperr.ErrInvalidArgument):
		return message(err)
	case err != nil:
		return "Failed to list pages: " + err.Error()
	}
	if len(pages) == 0 {
		return "No pages found in this section."
	}
	lines := make([]string, 0, len(pages))
	for _, p := range pages {
		lines = append(lines, fmt.Sprintf("- %s  (id: %s)", p.Name, p.ID))
	}
	return strings.Join(lines, "\n")
}

// AppendToPage appends content to a page.
func (t *Text) AppendToPage(ctx context.Context, req AppendRequest) string {
	err := t.svc.AppendToPage(ctx, req)
	switch {
	case err == nil:
		return "Content appended successfully."
	case errors.Is(err, apperr.ErrInvalidArgument):
		return message(err)
	}
	return "Failed to append content: " + err.Error()
}

func sectionNotFound(notebook, section string, err error) string {
	return fmt.Sprintf("Could not find section '%s' in notebook '%s'. %s\nUse list_live_notebooks to see available notebooks and sections.",
		section, notebook, err.Error())
}

// message renders an error for a caller; not-found errors already carry the
// available alternatives.
func message(err error) string {
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	if errors.Is(err, apperr.ErrInvalidArgument) {
		return "Invalid arguments: " + strings.TrimPrefix(err.Error(), apperr.ErrInvalidArgument.Error()+"\n")
	}
	return "Error: " + err.Error()
}
