// Package automation drives the OneNote desktop application through its COM
// automation interface, one short-lived PowerShell process per call.
package automation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/beevik/etree"
	"github.com/microcosm-cc/bluemonday"

	"github.com/starford/onebridge/internal/apperr"
	"github.com/starford/onebridge/internal/pagexml"
)

// Gateway resolves display names to OneNote IDs and issues page writes.
type Gateway struct {
	open     Opener
	sanitize *bluemonday.Policy
	logger   *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithSanitizer filters every body fragment through policy before it is
// written. Without it fragments are inserted verbatim.
func WithSanitizer(policy *bluemonday.Policy) GatewayOption {
	return func(g *Gateway) {
		g.sanitize = policy
	}
}

// WithLogger sets the gateway logger.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway returns a Gateway that acquires a Surface from open per operation.
func NewGateway(open Opener, opts ...GatewayOption) *Gateway {
	g := &Gateway{open: open, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// withSurface acquires a surface, runs fn and releases the surface on every path.
func (g *Gateway) withSurface(ctx context.Context, op string, fn func(Surface) error) error {
	s, err := g.open(ctx)
	if err != nil {
		return &apperr.AutomationError{Op: op, Err: err}
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			g.logger.Warn("automation: release failed", slog.String("op", op), slog.String("error", cerr.Error()))
		}
	}()
	err = fn(s)
	var ae *apperr.AutomationError
	if err != nil && !errors.Is(err, apperr.ErrNotFound) && !errors.As(err, &ae) {
		err = &apperr.AutomationError{Op: op, Err: err}
	}
	return err
}

func (g *Gateway) hierarchy(ctx context.Context, s Surface, scope HierarchyScope) (*Hierarchy, error) {
	raw, err := s.GetHierarchy(ctx, scope)
	if err != nil {
		return nil, err
	}
	h, err := ParseHierarchy(raw)
	if err != nil {
		return nil, &apperr.AutomationError{Op: "GetHierarchy", Err: err}
	}
	return h, nil
}

// LiveNotebooks lists the notebooks open in the application.
func (g *Gateway) LiveNotebooks(ctx context.Context) ([]LiveNotebook, error) {
	var out []LiveNotebook
	err := g.withSurface(ctx, "LiveNotebooks", func(s Surface) error {
		h, err := g.hierarchy(ctx, s, ScopeSections)
		if err != nil {
			return err
		}
		out = h.Notebooks()
		return nil
	})
	return out, err
}

// FindSectionID resolves a notebook (exact name) and section (any case) to
// the section's ID.
func (g *Gateway) FindSectionID(ctx context.Context, notebook, section string) (string, error) {
	var id string
	err := g.withSurface(ctx, "FindSectionID", func(s Surface) error {
		h, err := g.hierarchy(ctx, s, ScopeSections)
		if err != nil {
			return err
		}
		id, err = h.FindSectionID(notebook, section)
		return err
	})
	return id, err
}

// ListPages lists the pages of a section.
func (g *Gateway) ListPages(ctx context.Context, sectionID string) ([]Page, error) {
	var out []Page
	err := g.withSurface(ctx, "ListPages", func(s Surface) error {
		h, err := g.hierarchy(ctx, s, ScopePages)
		if err != nil {
			return err
		}
		out = h.Pages(sectionID)
		return nil
	})
	return out, err
}

// CreatePage creates a page, sets its title and appends body as its first
// outline. The title and body are written in two round trips because a new
// page has no title node until it has been fetched once.
func (g *Gateway) CreatePage(ctx context.Context, sectionID, title, body string) (string, error) {
	var pageID string
	err := g.withSurface(ctx, "CreatePage", func(s Surface) error {
		id, err := s.CreateNewPage(ctx, sectionID)
		if err != nil {
			return err
		}
		pageID = id

		if err := g.mutate(ctx, s, id, func(doc *etree.Document) error {
			if !pagexml.SetTitle(doc, title) {
				g.logger.Debug("automation: new page has no title node", slog.String("page_id", id))
			}
			return nil
		}); err != nil {
			return err
		}
		return g.mutate(ctx, s, id, func(doc *etree.Document) error {
			return pagexml.AppendBody(doc, g.clean(body))
		})
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("automation: page created", slog.String("section_id", sectionID), slog.String("page_id", pageID))
	return pageID, nil
}

// AppendToPage adds body as a new outline at the bottom of an existing page.
func (g *Gateway) AppendToPage(ctx context.Context, pageID, body string) error {
	return g.withSurface(ctx, "AppendToPage", func(s Surface) error {
		return g.mutate(ctx, s, pageID, func(doc *etree.Document) error {
			return pagexml.AppendBody(doc, g.clean(body))
		})
	})
}

// mutate fetches a page, applies fn and submits the result.
func (g *Gateway) mutate(ctx context.Context, s Surface, pageID string, fn func(*etree.Document) error) error {
	raw, err := s.GetPageContent(ctx, pageID)
	if err != nil {
		return err
	}
	doc, err := pagexml.Parse(raw)
	if err != nil {
		return &apperr.AutomationError{Op: "GetPageContent", Err: err}
	}
	if err := fn(doc); err != nil {
		return err
	}
	out, err := pagexml.Serialize(doc)
	if err != nil {
		return err
	}
	return s.UpdatePageContent(ctx, out)
}

func (g *Gateway) clean(fragment string) string {
	if g.sanitize == nil {
		return fragment
	}
	return g.sanitize.Sanitize(fragment)
}

// IsUnavailable reports whether err came from the automation surface.
func IsUnavailable(err error) bool {
	return errors.Is(err, apperr.ErrAutomationUnavailable)
}
