// Package apperr defines the error taxonomy shared by the catalog, the
// automation gateway and the tool surfaces.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrAutomationUnavailable = errors.New("automation unavailable")
	ErrInvalidArgument       = errors.New("invalid argument")
)

// NotFoundError reports a missing notebook, section or page together with
// the sorted names that do exist at that level.
type NotFoundError struct {
	Kind      string
	Name      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found. Available: %s", capitalize(e.Kind), e.Name, strings.Join(e.Available, ", "))
}

// Is makes errors.Is(err, ErrNotFound) hold for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AutomationError wraps a failed call against the live application.
type AutomationError struct {
	Op     string
	Output string
	Err    error
}

func (e *AutomationError) Error() string {
	switch {
	case e.Output != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Output)
	case e.Output != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Output)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": failed"
}

func (e *AutomationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrAutomationUnavailable) hold for every AutomationError.
func (e *AutomationError) Is(target error) bool {
	return target == ErrAutomationUnavailable
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
