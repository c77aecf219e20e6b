package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/starford/onebridge/internal/apperr"
)

// DefaultTimeout bounds every script run.
const DefaultTimeout = 30 * time.Second

const utf8BOM = "\xef\xbb\xbf"

// Surface is one acquired handle on the OneNote automation interface. It is
// opened per gateway operation and must be closed by the caller.
type Surface interface {
	GetHierarchy(ctx context.Context, scope HierarchyScope) (string, error)
	CreateNewPage(ctx context.Context, sectionID string) (string, error)
	GetPageContent(ctx context.Context, pageID string) (string, error)
	UpdatePageContent(ctx context.Context, pageXML string) error
	Close() error
}

// Opener acquires a fresh Surface.
type Opener func(ctx context.Context) (Surface, error)

// Runner executes one script file and returns its trimmed standard output.
type Runner interface {
	Run(ctx context.Context, scriptPath string) (string, error)
}

// PowerShell runs scripts with powershell.exe (or another configured shell).
type PowerShell struct {
	Shell   string
	Timeout time.Duration
}

// Run executes scriptPath under a fixed timeout. Failures are reported as
// *apperr.AutomationError; nothing is retried.
func (p *PowerShell) Run(ctx context.Context, scriptPath string) (string, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Shell, "-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-File", scriptPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := strings.TrimSpace(stdout.String())
	switch {
	case err == nil:
		return out, nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", &apperr.AutomationError{Op: "run script", Output: "PowerShell command timed out", Err: ctx.Err()}
	case errors.Is(err, exec.ErrNotFound):
		return "", &apperr.AutomationError{Op: "run script", Output: "PowerShell not found (write features require Windows)", Err: err}
	}
	msg := strings.TrimSpace(stderr.String())
	if msg == "" {
		msg = out
	}
	return "", &apperr.AutomationError{Op: "run script", Output: msg, Err: err}
}

// Session is a Surface backed by generated scripts. It owns a private
// temporary directory for scripts and exchanged documents, removed on Close.
type Session struct {
	runner Runner
	dir    string
	logger *slog.Logger
}

// NewOpener returns an Opener that creates a Session per call.
func NewOpener(runner Runner, logger *slog.Logger) Opener {
	if logger == nil {
		logger = slog.Default()
	}
	return func(_ context.Context) (Surface, error) {
		return OpenSession(runner, logger)
	}
}

// OpenSession creates a Session with its own temporary directory.
func OpenSession(runner Runner, logger *slog.Logger) (*Session, error) {
	dir, err := os.MkdirTemp("", "onebridge-")
	if err != nil {
		return nil, fmt.Errorf("automation: create session dir: %w", err)
	}
	return &Session{runner: runner, dir: dir, logger: logger}, nil
}

// Dir returns the session's working directory.
func (s *Session) Dir() string {
	return s.dir
}

// Close removes every file the session created.
func (s *Session) Close() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("automation: remove session dir: %w", err)
	}
	return nil
}

// GetHierarchy returns the hierarchy XML at the given scope.
func (s *Session) GetHierarchy(ctx context.Context, scope HierarchyScope) (string, error) {
	out := s.file(".xml")
	if _, err := s.exec(ctx, "GetHierarchy", hierarchyTmpl, hierarchyParams{Scope: scope, Out: out}); err != nil {
		return "", err
	}
	return s.readResult("GetHierarchy", out)
}

// CreateNewPage creates an empty page in sectionID and returns its ID.
func (s *Session) CreateNewPage(ctx context.Context, sectionID string) (string, error) {
	id, err := s.exec(ctx, "CreateNewPage", createPageTmpl, createPageParams{SectionID: sectionID})
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", &apperr.AutomationError{Op: "CreateNewPage", Output: "no page ID returned"}
	}
	return id, nil
}

// GetPageContent returns the page document for pageID.
func (s *Session) GetPageContent(ctx context.Context, pageID string) (string, error) {
	out := s.file(".xml")
	if _, err := s.exec(ctx, "GetPageContent", getPageTmpl, getPageParams{PageID: pageID, Out: out}); err != nil {
		return "", err
	}
	return s.readResult("GetPageContent", out)
}

// UpdatePageContent submits a modified page document.
func (s *Session) UpdatePageContent(ctx context.Context, pageXML string) error {
	in := s.file(".xml")
	if err := os.WriteFile(in, []byte(pageXML), 0o600); err != nil {
		return &apperr.AutomationError{Op: "UpdatePageContent", Err: err}
	}
	_, err := s.exec(ctx, "UpdatePageContent", updatePageTmpl, updatePageParams{In: in})
	return err
}

func (s *Session) exec(ctx context.Context, op string, t *template.Template, params any) (string, error) {
	script, err := render(t, params)
	if err != nil {
		return "", err
	}
	path := s.file(".ps1")
	// PowerShell 5 only reads UTF-8 scripts correctly with a BOM.
	if err := os.WriteFile(path, append([]byte(utf8BOM), script...), 0o600); err != nil {
		return "", &apperr.AutomationError{Op: op, Err: err}
	}

	start := time.Now()
	out, err := s.runner.Run(ctx, path)
	if err != nil {
		var ae *apperr.AutomationError
		if errors.As(err, &ae) {
			ae.Op = op
			return "", ae
		}
		return "", &apperr.AutomationError{Op: op, Err: err}
	}
	s.logger.Debug("automation: script done", slog.String("op", op), slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (s *Session) readResult(op, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &apperr.AutomationError{Op: op, Output: "no output written", Err: err}
	}
	return strings.TrimPrefix(string(data), utf8BOM), nil
}

func (s *Session) file(ext string) string {
	return filepath.Join(s.dir, uuid.NewString()+ext)
}
