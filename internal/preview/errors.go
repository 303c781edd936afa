package preview

import (
	"fmt"
	"strings"
)

// FieldError reports a descriptor field that is missing or malformed.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q %s", e.Field, e.Reason)
}

// InvalidPathError reports an image path (or base URL) that cannot be turned
// into an absolute https URL.
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// DuplicateSlugError reports a slug shared by several descriptors. Indices
// lists every position that uses it.
type DuplicateSlugError struct {
	Slug    string
	Indices []int
}

func (e *DuplicateSlugError) Error() string {
	positions := make([]string, len(e.Indices))
	for i, idx := range e.Indices {
		positions[i] = fmt.Sprint(idx)
	}
	return fmt.Sprintf("duplicate slug %q at positions %s", e.Slug, strings.Join(positions, ", "))
}

// Problem ties a validation failure to the descriptor it was found in.
type Problem struct {
	Index int
	Slug  string
	Err   error
}

func (p *Problem) Error() string {
	return fmt.Sprintf("post #%d (%q): %v", p.Index, p.Slug, p.Err)
}

func (p *Problem) Unwrap() error {
	return p.Err
}

// ValidationError collects every problem found in a descriptor list. It is
// returned before anything is written.
type ValidationError struct {
	Problems []*Problem
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d invalid post descriptor(s)", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = p
	}
	return errs
}

// WriteError wraps the filesystem failure that stopped a run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
