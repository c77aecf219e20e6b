package notebookservice

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/onebridge/internal/apperr"
	"github.com/starford/onebridge/internal/automation"
)

// ErrWritesDisabled is returned by live operations when no gateway is configured.
var ErrWritesDisabled = &apperr.AutomationError{Op: "live", Output: "OneNote automation is disabled in the configuration"}

// CreatePageRequest describes a new page.
type CreatePageRequest struct {
	Notebook string `json:"notebook_name"`
	Section  string `json:"section_name"`
	Title    string `json:"title"`
	Content  string `json:"content"`
}

// Validate checks the request fields.
func (r CreatePageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notebook, validation.Required),
		validation.Field(&r.Section, validation.Required),
		validation.Field(&r.Title, validation.Required),
	)
}

// AppendRequest describes content appended to an existing page.
type AppendRequest struct {
	PageID  string `json:"page_id"`
	Content string `json:"content"`
}

// Validate checks the request fields.
func (r AppendRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.Required),
		validation.Field(&r.Content, validation.Required),
	)
}

// LiveNotebooks lists notebooks open in the running application.
func (s *Service) LiveNotebooks(ctx context.Context) ([]automation.LiveNotebook, error) {
	if s.gateway == nil {
		return nil, ErrWritesDisabled
	}
	return s.gateway.LiveNotebooks(ctx)
}

// LivePages lists the pages of a live section.
func (s *Service) LivePages(ctx context.Context, notebook, section string) ([]automation.Page, error) {
	if err := requireArgs(arg{"notebook_name", notebook}, arg{"section_name", section}); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, ErrWritesDisabled
	}
	id, err := s.gateway.FindSectionID(ctx, notebook, section)
	if err != nil {
		return nil, err
	}
	return s.gateway.ListPages(ctx, id)
}

// CreatePage resolves the target section and creates a page in it.
func (s *Service) CreatePage(ctx context.Context, req CreatePageRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errors.Join(apperr.ErrInvalidArgument, err)
	}
	if s.gateway == nil {
		return "", ErrWritesDisabled
	}
	id, err := s.gateway.FindSectionID(ctx, req.Notebook, req.Section)
	if err != nil {
		return "", err
	}
	pageID, err := s.gateway.CreatePage(ctx, id, req.Title, req.Content)
	if err != nil {
		s.logger.Warn("create page failed",
			slog.String("notebook", req.Notebook),
			slog.String("section", req.Section),
			slog.String("error", err.Error()))
		return "", err
	}
	return pageID, nil
}

// AppendToPage appends content to a page.
func (s *Service) AppendToPage(ctx context.Context, req AppendRequest) error {
	if err := req.Validate(); err != nil {
		return errors.Join(apperr.ErrInvalidArgument, err)
	}
	if s.gateway == nil {
		return ErrWritesDisabled
	}
	if err := s.gateway.AppendToPage(ctx, req.PageID, req.Content); err != nil {
		s.logger.Warn("append failed", slog.String("page_id", req.PageID), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type arg struct {
	name  string
	value string
}

// requireArgs rejects blank required arguments.
func requireArgs(args ...arg) error {
	errs := validation.Errors{}
	for _, a := range args {
		if err := validation.Validate(a.value, validation.Required, validation.By(notBlank)); err != nil {
			errs[a.name] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return errors.Join(apperr.ErrInvalidArgument, err)
	}
	return nil
}

func notBlank(v any) error {
	if s, _ := v.(string); s != "" && strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}
