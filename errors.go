package csi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies compile failures.
type ErrorKind int

const (
	KindIO ErrorKind = iota + 1
	KindCyclicInclude
	KindMissingVariable
	KindUnterminatedDirective
	KindInvalidDirective
	KindDepthExceeded
)

// Sentinels for use with errors.Is.
var (
	ErrIO                    = errors.New("io error")
	ErrCyclicInclude         = errors.New("cyclic include")
	ErrMissingVariable       = errors.New("missing variable")
	ErrUnterminatedDirective = errors.New("unterminated directive")
	ErrInvalidDirective      = errors.New("invalid directive")
	ErrDepthExceeded         = errors.New("maximum include depth exceeded")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindIO:
		return ErrIO
	case KindCyclicInclude:
		return ErrCyclicInclude
	case KindMissingVariable:
		return ErrMissingVariable
	case KindUnterminatedDirective:
		return ErrUnterminatedDirective
	case KindInvalidDirective:
		return ErrInvalidDirective
	case KindDepthExceeded:
		return ErrDepthExceeded
	}
	return nil
}

func (k ErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is returned by every failing compile. Path is the file whose content
// was being processed when the failure happened, which for nested includes is
// the innermost file, not the top-level one.
type Error struct {
	Kind ErrorKind
	// Path of the file being compiled, empty for in-memory sources without a name
	Path string
	// Directive is the raw directive body, if the failure came from one
	Directive string
	// Offset is the byte offset of the directive in the file content, -1 if unknown
	Offset int
	// Message is a short human-readable description
	Message string
	// Err is the underlying cause, e.g. an *fs.PathError
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Path != "" {
		b.WriteString("[")
		b.WriteString(e.Path)
		if e.Offset >= 0 {
			fmt.Fprintf(&b, ":%d", e.Offset)
		}
		b.WriteString("] ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	} else {
		b.WriteString(e.Kind.String())
	}
	if e.Directive != "" {
		fmt.Fprintf(&b, ": %q", e.Directive)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func newError(kind ErrorKind, path, directive string, offset int, format string, args ...any) *Error {
	return &Error{
		Kind:      kind,
		Path:      path,
		Directive: directive,
		Offset:    offset,
		Message:   fmt.Sprintf(format, args...),
	}
}
