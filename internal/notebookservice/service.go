// Package notebookservice implements the notebook operations shared by the
// MCP tools, the HTTP API and the CLI. Every catalog-backed call rebuilds the
// catalog from disk; nothing is cached between calls.
package notebookservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/starford/onebridge/internal/automation"
	"github.com/starford/onebridge/internal/catalog"
	"github.com/starford/onebridge/internal/models"
	"github.com/starford/onebridge/internal/search"
)

// previewLimit caps the notebook summary preview per section, in characters.
const previewLimit = 200

// Extractor reads section files.
type Extractor interface {
	ExtractText(ctx context.Context, path string) []string
	ExtractTitles(ctx context.Context, path string) []string
}

// LiveGateway writes through the running OneNote application.
type LiveGateway interface {
	LiveNotebooks(ctx context.Context) ([]automation.LiveNotebook, error)
	FindSectionID(ctx context.Context, notebook, section string) (string, error)
	ListPages(ctx context.Context, sectionID string) ([]automation.Page, error)
	CreatePage(ctx context.Context, sectionID, title, body string) (string, error)
	AppendToPage(ctx context.Context, pageID, body string) error
}

// NotebookItem summarises one notebook.
type NotebookItem struct {
	Name     string `json:"name"`
	Sections int    `json:"sections"`
}

// SectionItem describes a section's canonical file.
type SectionItem struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
	Snapshots int       `json:"snapshots"`
}

// NotebookSections lists the sections of one notebook.
type NotebookSections struct {
	Notebook string        `json:"notebook"`
	Sections []SectionItem `json:"sections"`
}

// SectionContent is the text (or titles) read from one section.
type SectionContent struct {
	Notebook  string   `json:"notebook"`
	Section   string   `json:"section"`
	Path      string   `json:"path"`
	Fragments []string `json:"fragments"`
}

// SectionPreview is one entry of a notebook summary.
type SectionPreview struct {
	Section string `json:"section"`
	Preview string `json:"preview"`
}

// NotebookSummary previews every section of a notebook.
type NotebookSummary struct {
	Notebook string           `json:"notebook"`
	Sections []SectionPreview `json:"sections"`
}

// SearchResponse holds capped search results and the uncapped match count.
type SearchResponse struct {
	Query   string          `json:"query"`
	Total   int             `json:"total"`
	Results []search.Result `json:"results"`
}

// Service coordinates catalog, extraction, search and the live gateway.
type Service struct {
	builder   *catalog.Builder
	extractor Extractor
	gateway   LiveGateway
	logger    *slog.Logger
}

// NewService creates a Service. gateway may be nil when writes are disabled.
func NewService(builder *catalog.Builder, extractor Extractor, gateway LiveGateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{builder: builder, extractor: extractor, gateway: gateway, logger: logger}
}

// Root returns the backup root being served.
func (s *Service) Root() string {
	return s.builder.Root()
}

// Index builds a fresh catalog and wraps it for lookups.
func (s *Service) Index() (*catalog.Index, error) {
	cat, err := s.builder.Build()
	if err != nil {
		return nil, err
	}
	return catalog.NewIndex(cat), nil
}

// ListNotebooks returns notebooks sorted by name.
func (s *Service) ListNotebooks(_ context.Context) ([]NotebookItem, error) {
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	cat := ix.Catalog()
	out := make([]NotebookItem, 0, cat.Len())
	for _, name := range cat.NotebookNames() {
		nb, _ := cat.Notebook(name)
		out = append(out, NotebookItem{Name: name, Sections: nb.Len()})
	}
	return out, nil
}

// ListSections returns the sections of one notebook, sorted by name.
func (s *Service) ListSections(_ context.Context, notebook string) (*NotebookSections, error) {
	if err := requireArgs(arg{"notebook_name", notebook}); err != nil {
		return nil, err
	}
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	nb, err := ix.ResolveNotebook(notebook)
	if err != nil {
		return nil, err
	}
	return sectionsOf(nb), nil
}

// ListAllSections returns every notebook with its sections, sorted.
func (s *Service) ListAllSections(_ context.Context) ([]NotebookSections, error) {
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	cat := ix.Catalog()
	out := make([]NotebookSections, 0, cat.Len())
	for _, name := range cat.NotebookNames() {
		nb, _ := cat.Notebook(name)
		out = append(out, *sectionsOf(nb))
	}
	return out, nil
}

// ReadSection returns every text fragment of a section's canonical file.
func (s *Service) ReadSection(ctx context.Context, notebook, section string) (*SectionContent, error) {
	return s.readSection(ctx, notebook, section, s.extractor.ExtractText)
}

// PageTitles returns the page titles found in a section's canonical file.
func (s *Service) PageTitles(ctx context.Context, notebook, section string) (*SectionContent, error) {
	return s.readSection(ctx, notebook, section, s.extractor.ExtractTitles)
}

func (s *Service) readSection(ctx context.Context, notebook, section string, extract func(context.Context, string) []string) (*SectionContent, error) {
	if err := requireArgs(arg{"notebook_name", notebook}, arg{"section_name", section}); err != nil {
		return nil, err
	}
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	nb, sec, err := ix.Resolve(notebook, section)
	if err != nil {
		return nil, err
	}
	return &SectionContent{
		Notebook:  nb.Name,
		Section:   sec.Key,
		Path:      sec.Canonical.Path,
		Fragments: nonNilSlice(extract(ctx, sec.Canonical.Path)),
	}, nil
}

// Search scans every section for query.
func (s *Service) Search(ctx context.Context, query string) (*SearchResponse, error) {
	if err := requireArgs(arg{"query", query}); err != nil {
		return nil, err
	}
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	results, total := search.Search(ctx, ix.Catalog(), s.extractor, query)
	s.logger.Debug("search done", slog.String("query", query), slog.Int("total", total))
	return &SearchResponse{Query: query, Total: total, Results: nonNilSlice(results)}, nil
}

// Summary previews the first characters of every section in a notebook.
func (s *Service) Summary(ctx context.Context, notebook string) (*NotebookSummary, error) {
	if err := requireArgs(arg{"notebook_name", notebook}); err != nil {
		return nil, err
	}
	ix, err := s.Index()
	if err != nil {
		return nil, err
	}
	nb, err := ix.ResolveNotebook(notebook)
	if err != nil {
		return nil, err
	}
	out := &NotebookSummary{Notebook: nb.Name}
	for _, key := range nb.SectionNames() {
		sec, _ := nb.Section(key)
		out.Sections = append(out.Sections, SectionPreview{
			Section: key,
			Preview: preview(s.extractor.ExtractText(ctx, sec.Canonical.Path)),
		})
	}
	return out, nil
}

func sectionsOf(nb *models.Notebook) *NotebookSections {
	out := &NotebookSections{Notebook: nb.Name, Sections: []SectionItem{}}
	for _, key := range nb.SectionNames() {
		sec, _ := nb.Section(key)
		out.Sections = append(out.Sections, SectionItem{
			Name:      key,
			Path:      sec.Canonical.Path,
			Size:      sec.Canonical.Size,
			UpdatedAt: sec.Canonical.ModTime,
			Snapshots: len(sec.Files),
		})
	}
	return out
}

// preview joins fragments and cuts the result to previewLimit characters.
func preview(texts []string) string {
	p := strings.Join(texts, " | ")
	if utf8.RuneCountInString(p) > previewLimit {
		p = string([]rune(p)[:previewLimit]) + "..."
	}
	return p
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// String renders a SectionItem size the way listings show it.
func (i SectionItem) String() string {
	return fmt.Sprintf("%s  (%.0f KB)", i.Name, float64(i.Size)/1024)
}
