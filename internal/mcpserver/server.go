// Package mcpserver exposes the OneNote backup tools over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/onebridge/internal/notebookservice"
)

// ContentFormatURI is the resource holding the page content contract.
const ContentFormatURI = "onenote://content-format"

// Server wraps the MCP server with the OneNote tools.
type Server struct {
	mcp    *server.MCPServer
	text   *notebookservice.Text
	logger *slog.Logger
}

// New creates an MCP server with every tool registered. Tool results are
// plain text; failures are reported inside the text, never as protocol errors.
func New(svc *notebookservice.Service, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{text: notebookservice.NewText(svc), logger: logger}

	s.mcp = server.NewMCPServer(
		"onenote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
	)

	notebookArg := mcp.WithString("notebook_name", mcp.Required(), mcp.Description("Notebook name (case-insensitive)"))
	sectionArg := mcp.WithString("section_name", mcp.Required(), mcp.Description("Section name (case-insensitive)"))

	s.mcp.AddTool(mcp.NewTool("list_notebooks",
		mcp.WithDescription("List all OneNote notebooks found in the backup folder, with section counts."),
	), s.listNotebooks)

	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the sections of a notebook with their sizes."),
		notebookArg,
	), s.listSections)

	s.mcp.AddTool(mcp.NewTool("read_section",
		mcp.WithDescription("Read all text content from a section, using its most recent backup."),
		notebookArg, sectionArg,
	), s.readSection)

	s.mcp.AddTool(mcp.NewTool("list_page_titles",
		mcp.WithDescription("List the page titles found in a section's most recent backup."),
		notebookArg, sectionArg,
	), s.listPageTitles)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive text search across every section of every notebook. "+
			"Returns at most 30 snippets and the total number of matches."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Text to search for")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_all_sections",
		mcp.WithDescription("List every section of every notebook, grouped by notebook."),
	), s.listAllSections)

	s.mcp.AddTool(mcp.NewTool("get_notebook_summary",
		mcp.WithDescription("Show a short text preview of every section in a notebook."),
		notebookArg,
	), s.notebookSummary)

	s.mcp.AddTool(mcp.NewTool("list_live_notebooks",
		mcp.WithDescription("List notebooks and sections currently open in the OneNote desktop app (Windows only)."),
	), s.listLiveNotebooks)

	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page in a section of the running OneNote app. "+
			"Content is an HTML fragment; read the "+ContentFormatURI+" resource first."),
		mcp.WithString("notebook_name", mcp.Required(), mcp.Description("Exact notebook name as shown by list_live_notebooks")),
		sectionArg,
		mcp.WithString("title", mcp.Required(), mcp.Description("Page title")),
		mcp.WithString("content", mcp.Description("Optional HTML body")),
	), s.createPage)

	s.mcp.AddTool(mcp.NewTool("list_live_pages",
		mcp.WithDescription("List the pages of a section in the running OneNote app, with page IDs."),
		mcp.WithString("notebook_name", mcp.Required(), mcp.Description("Exact notebook name as shown by list_live_notebooks")),
		sectionArg,
	), s.listLivePages)

	s.mcp.AddTool(mcp.NewTool("append_to_page",
		mcp.WithDescription("Append an HTML fragment to the end of an existing page. Existing content is never modified."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page ID as returned by list_live_pages or create_page")),
		mcp.WithString("content", mcp.Required(), mcp.Description("HTML fragment to append")),
	), s.appendToPage)

	s.mcp.AddResource(
		mcp.NewResource(ContentFormatURI, "Page Content Format",
			mcp.WithResourceDescription("HTML subset accepted when creating or appending to pages."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormat,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotebooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result("list_notebooks", s.text.ListNotebooks(ctx)), nil
}

func (s *Server) listSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, err := req.RequireString("notebook_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("list_sections", s.text.ListSections(ctx, notebook)), nil
}

func (s *Server) readSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, section, err := notebookAndSection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("read_section", s.text.ReadSection(ctx, notebook, section)), nil
}

func (s *Server) listPageTitles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, section, err := notebookAndSection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("list_page_titles", s.text.PageTitles(ctx, notebook, section)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("search_notes", s.text.Search(ctx, query)), nil
}

func (s *Server) listAllSections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result("list_all_sections", s.text.ListAllSections(ctx)), nil
}

func (s *Server) notebookSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, err := req.RequireString("notebook_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("get_notebook_summary", s.text.Summary(ctx, notebook)), nil
}

func (s *Server) listLiveNotebooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.result("list_live_notebooks", s.text.LiveNotebooks(ctx)), nil
}

func (s *Server) createPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, section, err := notebookAndSection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("create_page", s.text.CreatePage(ctx, notebookservice.CreatePageRequest{
		Notebook: notebook,
		Section:  section,
		Title:    title,
		Content:  req.GetString("content", ""),
	})), nil
}

func (s *Server) listLivePages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebook, section, err := notebookAndSection(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("list_live_pages", s.text.LivePages(ctx, notebook, section)), nil
}

func (s *Server) appendToPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := req.RequireString("page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.result("append_to_page", s.text.AppendToPage(ctx, notebookservice.AppendRequest{
		PageID:  pageID,
		Content: content,
	})), nil
}

func (s *Server) readContentFormat(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContentFormatURI,
			MIMEType: "text/markdown",
			Text:     ContentFormat,
		},
	}, nil
}

func (s *Server) result(tool, text string) *mcp.CallToolResult {
	s.logger.Debug("tool call", slog.String("tool", tool), slog.Int("bytes", len(text)))
	return mcp.NewToolResultText(text)
}

func notebookAndSection(req mcp.CallToolRequest) (string, string, error) {
	notebook, err := req.RequireString("notebook_name")
	if err != nil {
		return "", "", err
	}
	section, err := req.RequireString("section_name")
	if err != nil {
		return "", "", err
	}
	return notebook, section, nil
}
