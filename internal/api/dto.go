package api

import (
	"github.com/starford/onebridge/internal/automation"
	"github.com/starford/onebridge/internal/notebookservice"
)

// NotebookListResponse wraps the notebook listing.
type NotebookListResponse struct {
	Root      string                         `json:"root" validate:"required"`
	Notebooks []notebookservice.NotebookItem `json:"notebooks" validate:"required"`
}

// SectionListResponse lists the sections of one notebook.
type SectionListResponse = notebookservice.NotebookSections

// SectionResponse is the text or title list of a section.
type SectionResponse = notebookservice.SectionContent

// SummaryResponse previews every section of a notebook.
type SummaryResponse = notebookservice.NotebookSummary

// SearchResponse wraps capped search results and the total match count.
type SearchResponse = notebookservice.SearchResponse

// LiveNotebooksResponse lists notebooks open in the running application.
type LiveNotebooksResponse struct {
	Notebooks []automation.LiveNotebook `json:"notebooks" validate:"required"`
}

// LivePagesResponse lists the pages of a live section.
type LivePagesResponse struct {
	Pages []automation.Page `json:"pages" validate:"required"`
}

// CreatePageRequest is the request body for creating a page.
type CreatePageRequest = notebookservice.CreatePageRequest

// CreatePageResponse carries the new page ID.
type CreatePageResponse struct {
	ID string `json:"id" example:"{A1B2C3D4-...}" validate:"required"`
}

// AppendRequest is the request body for appending to a page.
type AppendRequest struct {
	Content string `json:"content" example:"<p>More</p>" validate:"required"`
}
