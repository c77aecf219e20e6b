package notebookservice

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/onebridge/internal/apperr"
	"github.com/starford/onebridge/internal/automation"
	"github.com/starford/onebridge/internal/catalog"
	"github.com/starford/onebridge/internal/testutil"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// fakeExtractor serves fragments keyed by file base name.
type fakeExtractor struct {
	text   map[string][]string
	titles map[string][]string
}

func (f *fakeExtractor) ExtractText(_ context.Context, path string) []string {
	return f.text[filepath.Base(path)]
}

func (f *fakeExtractor) ExtractTitles(_ context.Context, path string) []string {
	return f.titles[filepath.Base(path)]
}

func newTestService(t *testing.T, gw LiveGateway) *Service {
	t.Helper()
	root := testutil.BackupRoot(t)
	testutil.WriteSection(t, root, "Work/Inbox.one (On 2025-01-01).one", t0)
	testutil.WriteSection(t, root, "Work/Inbox.one (On 2025-02-01).one", t0.Add(time.Hour))
	testutil.WriteSection(t, root, "Work/Ideas.one", t0)
	testutil.WriteSection(t, root, "Personal/Recipes.one", t0)
	testutil.WriteSection(t, root, "Personal/OneNote_RecycleBin/Gone.one", t0)

	ext := &fakeExtractor{
		text: map[string][]string{
			"Inbox.one (On 2025-02-01).one": {"Call the plumber", "Buy milk"},
			"Inbox.one (On 2025-01-01).one": {"stale text"},
			"Recipes.one":                   {strings.Repeat("a", 250)},
		},
		titles: map[string][]string{
			"Inbox.one (On 2025-02-01).one": {"Monday"},
		},
	}
	return NewService(catalog.NewBuilder(root, testutil.Logger()), ext, gw, testutil.Logger())
}

func TestListNotebooks(t *testing.T) {
	svc := newTestService(t, nil)
	items, err := svc.ListNotebooks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Name != "Personal" || items[1].Name != "Work" {
		t.Fatalf("unexpected notebooks: %+v", items)
	}
	if items[0].Sections != 1 || items[1].Sections != 2 {
		t.Fatalf("unexpected section counts: %+v", items)
	}
}

func TestListSections_Sorted(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.ListSections(context.Background(), "work")
	if err != nil {
		t.Fatal(err)
	}
	if res.Notebook != "Work" || len(res.Sections) != 2 {
		t.Fatalf("unexpected: %+v", res)
	}
	if res.Sections[0].Name != "Ideas" || res.Sections[1].Name != "Inbox" {
		t.Fatalf("sections not sorted: %+v", res.Sections)
	}
	if res.Sections[1].Snapshots != 2 {
		t.Fatalf("expected 2 snapshots, got %d", res.Sections[1].Snapshots)
	}
}

func TestListSections_NotFound(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.ListSections(context.Background(), "Nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available: Personal, Work") {
		t.Fatalf("missing alternatives: %v", err)
	}
}

func TestListSections_BlankName(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.ListSections(context.Background(), "  ")
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestReadSection_UsesNewestSnapshot(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.ReadSection(context.Background(), "Work", "inbox")
	if err != nil {
		t.Fatal(err)
	}
	if res.Section != "Inbox" || len(res.Fragments) != 2 || res.Fragments[0] != "Call the plumber" {
		t.Fatalf("unexpected content: %+v", res)
	}
}

func TestReadSection_EmptyIsNotNil(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.ReadSection(context.Background(), "Work", "Ideas")
	if err != nil {
		t.Fatal(err)
	}
	if res.Fragments == nil || len(res.Fragments) != 0 {
		t.Fatalf("expected empty non-nil fragments, got %#v", res.Fragments)
	}
}

func TestPageTitles(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.PageTitles(context.Background(), "Work", "Inbox")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Fragments) != 1 || res.Fragments[0] != "Monday" {
		t.Fatalf("unexpected titles: %+v", res.Fragments)
	}
}

func TestSearch_SkipsStaleSnapshots(t *testing.T) {
	svc := newTestService(t, nil)
	res, err := svc.Search(context.Background(), "STALE")
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 0 || len(res.Results) != 0 {
		t.Fatalf("stale snapshot searched: %+v", res)
	}

	res, err = svc.Search(context.Background(), "milk")
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 1 || res.Results[0].Section != "Inbox" {
		t.Fatalf("unexpected results: %+v", res)
	}
}

func TestSummary_TruncatesPreview(t *testing.T) {
	svc := newTestService(t, nil)
	sum, err := svc.Summary(context.Background(), "Personal")
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Sections) != 1 {
		t.Fatalf("trash section listed: %+v", sum.Sections)
	}
	p := sum.Sections[0].Preview
	if len(p) != previewLimit+3 || !strings.HasSuffix(p, "...") {
		t.Fatalf("unexpected preview length %d", len(p))
	}
}

func TestPreview_JoinsFragments(t *testing.T) {
	if got := preview([]string{"a", "b"}); got != "a | b" {
		t.Fatalf("got %q", got)
	}
	if got := preview(nil); got != "" {
		t.Fatalf("got %q", got)
	}
}

// fakeGateway is an in-memory live gateway.
type fakeGateway struct {
	notebooks []automation.LiveNotebook
	pages     map[string][]automation.Page
	created   []string
	appended  map[string]string
	err       error
}

func (g *fakeGateway) LiveNotebooks(context.Context) ([]automation.LiveNotebook, error) {
	return g.notebooks, g.err
}

func (g *fakeGateway) FindSectionID(_ context.Context, notebook, section string) (string, error) {
	for _, nb := range g.notebooks {
		if nb.Name != notebook {
			continue
		}
		for _, s := range nb.Sections {
			if strings.EqualFold(s.Name, section) {
				return s.ID, nil
			}
		}
		return "", &apperr.NotFoundError{Kind: "section", Name: section}
	}
	return "", &apperr.NotFoundError{Kind: "notebook", Name: notebook}
}

func (g *fakeGateway) ListPages(_ context.Context, sectionID string) ([]automation.Page, error) {
	return g.pages[sectionID], g.err
}

func (g *fakeGateway) CreatePage(_ context.Context, sectionID, title, _ string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.created = append(g.created, sectionID+"/"+title)
	return "{PAGE-1}", nil
}

func (g *fakeGateway) AppendToPage(_ context.Context, pageID, body string) error {
	if g.err != nil {
		return g.err
	}
	if g.appended == nil {
		g.appended = make(map[string]string)
	}
	g.appended[pageID] += body
	return nil
}

func liveGateway() *fakeGateway {
	return &fakeGateway{
		notebooks: []automation.LiveNotebook{{
			Name:     "Work",
			Sections: []automation.LiveSection{{ID: "{S-1}", Name: "Inbox"}, {ID: "{S-2}", Name: "Vault", Locked: true}},
		}},
		pages: map[string][]automation.Page{"{S-1}": {{ID: "{P-1}", Name: "Monday"}}},
	}
}

func TestCreatePage(t *testing.T) {
	gw := liveGateway()
	svc := newTestService(t, gw)
	id, err := svc.CreatePage(context.Background(), CreatePageRequest{Notebook: "Work", Section: "inbox", Title: "Plan", Content: "<p>x</p>"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "{PAGE-1}" || len(gw.created) != 1 || gw.created[0] != "{S-1}/Plan" {
		t.Fatalf("unexpected create: id=%s created=%v", id, gw.created)
	}
}

func TestCreatePage_Validation(t *testing.T) {
	gw := liveGateway()
	svc := newTestService(t, gw)
	_, err := svc.CreatePage(context.Background(), CreatePageRequest{Notebook: "Work"})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if len(gw.created) != 0 {
		t.Fatal("gateway called with invalid request")
	}
}

func TestLiveOps_WritesDisabled(t *testing.T) {
	svc := newTestService(t, nil)
	if _, err := svc.LiveNotebooks(context.Background()); !errors.Is(err, apperr.ErrAutomationUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	err := svc.AppendToPage(context.Background(), AppendRequest{PageID: "{P}", Content: "x"})
	if !errors.Is(err, ErrWritesDisabled) {
		t.Fatalf("expected writes disabled, got %v", err)
	}
}

func TestLivePages(t *testing.T) {
	svc := newTestService(t, liveGateway())
	pages, err := svc.LivePages(context.Background(), "Work", "Inbox")
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].ID != "{P-1}" {
		t.Fatalf("unexpected pages: %+v", pages)
	}
}

func TestAppendToPage(t *testing.T) {
	gw := liveGateway()
	svc := newTestService(t, gw)
	if err := svc.AppendToPage(context.Background(), AppendRequest{PageID: "{P-1}", Content: "<p>more</p>"}); err != nil {
		t.Fatal(err)
	}
	if gw.appended["{P-1}"] != "<p>more</p>" {
		t.Fatalf("unexpected append: %v", gw.appended)
	}
}
