package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/onebridge/internal/catalog"
	"github.com/starford/onebridge/internal/notebookservice"
	"github.com/starford/onebridge/internal/testutil"
)

type fakeExtractor map[string][]string

func (f fakeExtractor) ExtractText(_ context.Context, path string) []string {
	return f[filepath.Base(path)]
}

func (f fakeExtractor) ExtractTitles(_ context.Context, path string) []string {
	return nil
}

func testServer(t *testing.T) *Server {
	t.Helper()
	root := testutil.BackupRoot(t)
	mtime := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.WriteSection(t, root, "NotebookA/Algorithm.one (On 2025-01-01).one", mtime)
	testutil.WriteSection(t, root, "NotebookA/Algorithm.one (On 2025-02-01).one", mtime.Add(24*time.Hour))
	testutil.WriteSection(t, root, "NotebookB/Misc.one", mtime)

	ext := fakeExtractor{
		"Algorithm.one (On 2025-02-01).one": {"Dijkstra finds shortest paths"},
		"Algorithm.one (On 2025-01-01).one": {"old draft"},
	}
	svc := notebookservice.NewService(catalog.NewBuilder(root, testutil.Logger()), ext, nil, testutil.Logger())
	return New(svc, "test", testutil.Logger())
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_notebooks":       srv.listNotebooks,
		"list_sections":        srv.listSections,
		"read_section":         srv.readSection,
		"list_page_titles":     srv.listPageTitles,
		"search_notes":         srv.searchNotes,
		"list_all_sections":    srv.listAllSections,
		"get_notebook_summary": srv.notebookSummary,
		"list_live_notebooks":  srv.listLiveNotebooks,
		"create_page":          srv.createPage,
		"list_live_pages":      srv.listLivePages,
		"append_to_page":       srv.appendToPage,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListNotebooks(t *testing.T) {
	srv := testServer(t)
	got := resultText(callTool(t, srv, "list_notebooks", nil))
	if got != "- NotebookA  (1 sections)\n- NotebookB  (1 sections)" {
		t.Errorf("list_notebooks = %q", got)
	}
}

func TestReadSection_CaseInsensitiveNewestSnapshot(t *testing.T) {
	srv := testServer(t)
	got := resultText(callTool(t, srv, "read_section", map[string]any{
		"notebook_name": "notebooka",
		"section_name":  "algorithm",
	}))
	if got != "Dijkstra finds shortest paths" {
		t.Errorf("read_section = %q", got)
	}
}

func TestReadSection_MissingArgument(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_section", map[string]any{"notebook_name": "NotebookA"})
	if !r.IsError {
		t.Error("expected error for missing section_name")
	}
}

func TestListSections_NotFound(t *testing.T) {
	srv := testServer(t)
	got := resultText(callTool(t, srv, "list_sections", map[string]any{"notebook_name": "Nope"}))
	if got != "Notebook 'Nope' not found. Available: NotebookA, NotebookB" {
		t.Errorf("list_sections = %q", got)
	}
}

func TestSearchNotes(t *testing.T) {
	srv := testServer(t)
	got := resultText(callTool(t, srv, "search_notes", map[string]any{"query": "SHORTEST"}))
	want := "Found 1 match(es) for 'SHORTEST':\n\n[NotebookA / Algorithm]\n  Dijkstra finds shortest paths"
	if got != want {
		t.Errorf("search_notes = %q, want %q", got, want)
	}

	got = resultText(callTool(t, srv, "search_notes", map[string]any{"query": "draft"}))
	if got != "No results found for 'draft'." {
		t.Errorf("search_notes = %q", got)
	}
}

func TestLiveTools_Disabled(t *testing.T) {
	srv := testServer(t)
	got := resultText(callTool(t, srv, "list_live_notebooks", nil))
	if !strings.HasPrefix(got, "Could not connect to OneNote.") {
		t.Errorf("list_live_notebooks = %q", got)
	}
	got = resultText(callTool(t, srv, "create_page", map[string]any{
		"notebook_name": "Work",
		"section_name":  "Inbox",
		"title":         "Plan",
	}))
	if !strings.HasPrefix(got, "Failed to create page: ") {
		t.Errorf("create_page = %q", got)
	}
}

func TestContentFormatResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readContentFormat(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != ContentFormatURI || !strings.Contains(tc.Text, "Append only") {
		t.Errorf("unexpected resource: %+v", contents)
	}
}
