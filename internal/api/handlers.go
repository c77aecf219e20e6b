package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/onebridge/internal/automation"
	"github.com/starford/onebridge/internal/notebookservice"
)

// maxBody caps JSON request bodies.
const maxBody = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *notebookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *notebookservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pathParam returns a decoded URL parameter. Section keys of nested sections
// contain slashes, which clients send as %2F.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListNotebooks handles GET /api/notebooks.
//
//	@Summary		List notebooks in the backup folder
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	NotebookListResponse
//	@Security		BearerAuth
//	@Router			/notebooks [get]
func (h *Handler) ListNotebooks(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotebooks(r.Context())
	if err != nil {
		writeError(w, "list notebooks", err)
		return
	}
	writeJSON(w, http.StatusOK, NotebookListResponse{Root: h.svc.Root(), Notebooks: items})
}

// ListSections handles GET /api/notebooks/{notebook}/sections.
//
//	@Summary		List the sections of a notebook
//	@Tags			catalog
//	@Produce		json
//	@Param			notebook	path		string	true	"Notebook name"
//	@Success		200			{object}	SectionListResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{notebook}/sections [get]
func (h *Handler) ListSections(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListSections(r.Context(), pathParam(r, "notebook"))
	if err != nil {
		writeError(w, "list sections", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReadSection handles GET /api/notebooks/{notebook}/sections/{section}.
//
//	@Summary		Read every text fragment of a section
//	@Tags			catalog
//	@Produce		json
//	@Param			notebook	path		string	true	"Notebook name"
//	@Param			section		path		string	true	"Section name"
//	@Success		200			{object}	SectionResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{notebook}/sections/{section} [get]
func (h *Handler) ReadSection(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ReadSection(r.Context(), pathParam(r, "notebook"), pathParam(r, "section"))
	if err != nil {
		writeError(w, "read section", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PageTitles handles GET /api/notebooks/{notebook}/sections/{section}/titles.
//
//	@Summary		List page titles of a section
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	SectionResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notebooks/{notebook}/sections/{section}/titles [get]
func (h *Handler) PageTitles(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.PageTitles(r.Context(), pathParam(r, "notebook"), pathParam(r, "section"))
	if err != nil {
		writeError(w, "page titles", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Summary handles GET /api/notebooks/{notebook}/summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Summary(r.Context(), pathParam(r, "notebook"))
	if err != nil {
		writeError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary		Substring search across every section
//	@Tags			search
//	@Produce		json
//	@Param			q	query		string	true	"Search query"
//	@Success		200	{object}	SearchResponse
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LiveNotebooks handles GET /api/live/notebooks.
//
//	@Summary		List notebooks open in OneNote
//	@Tags			live
//	@Produce		json
//	@Success		200	{object}	LiveNotebooksResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/live/notebooks [get]
func (h *Handler) LiveNotebooks(w http.ResponseWriter, r *http.Request) {
	nbs, err := h.svc.LiveNotebooks(r.Context())
	if err != nil {
		writeError(w, "live notebooks", err)
		return
	}
	if nbs == nil {
		nbs = []automation.LiveNotebook{}
	}
	writeJSON(w, http.StatusOK, LiveNotebooksResponse{Notebooks: nbs})
}

// LivePages handles GET /api/live/pages?notebook=&section=.
//
//	@Summary		List the pages of a live section
//	@Tags			live
//	@Produce		json
//	@Param			notebook	query		string	true	"Exact notebook name"
//	@Param			section		query		string	true	"Section name"
//	@Success		200			{object}	LivePagesResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/live/pages [get]
func (h *Handler) LivePages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pages, err := h.svc.LivePages(r.Context(), q.Get("notebook"), q.Get("section"))
	if err != nil {
		writeError(w, "live pages", err)
		return
	}
	if pages == nil {
		pages = []automation.Page{}
	}
	writeJSON(w, http.StatusOK, LivePagesResponse{Pages: pages})
}

// CreatePage handles POST /api/live/pages.
//
//	@Summary		Create a page in a live section
//	@Tags			live
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreatePageRequest	true	"Page to create"
//	@Success		201		{object}	CreatePageResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/live/pages [post]
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req CreatePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	id, err := h.svc.CreatePage(r.Context(), req)
	if err != nil {
		writeError(w, "create page", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatePageResponse{ID: id})
}

// AppendToPage handles POST /api/live/pages/{id}/append.
//
//	@Summary		Append an HTML fragment to a page
//	@Tags			live
//	@Accept			json
//	@Param			id		path	string			true	"Page ID"
//	@Param			body	body	AppendRequest	true	"Content to append"
//	@Success		204		"Content appended"
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/live/pages/{id}/append [post]
func (h *Handler) AppendToPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	err := h.svc.AppendToPage(r.Context(), notebookservice.AppendRequest{
		PageID:  pathParam(r, "id"),
		Content: req.Content,
	})
	if err != nil {
		writeError(w, "append to page", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
