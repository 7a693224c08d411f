package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseContainer  Phase = "container"  // PE/COFF image walking
	PhaseMetadata   Phase = "metadata"   // metadata root and stream directory
	PhaseTables     Phase = "tables"     // table stream decoding
	PhaseHeaps      Phase = "heaps"      // string/blob heap access
	PhaseAttributes Phase = "attributes" // custom attribute resolution
	PhasePolicy     Phase = "policy"     // provenance fallback evaluation
	PhaseInput      Phase = "input"      // file access before parsing
)

// Kind categorizes the error
type Kind string

const (
	KindFileUnreadable       Kind = "file_unreadable"
	KindInvalidContainer     Kind = "invalid_container"
	KindNotManaged           Kind = "not_managed"
	KindMalformedTableStream Kind = "malformed_table_stream"
	KindMalformedEncoding    Kind = "malformed_encoding"
	KindOutOfBounds          Kind = "out_of_bounds"
	KindInvalidUTF8          Kind = "invalid_utf8"
	KindNoMetadata           Kind = "no_metadata"
	KindIncompleteMetadata   Kind = "incomplete_metadata"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Offset int64 // byte offset in the image where the error was detected, -1 if unknown
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset 0x%x", e.Offset)
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the byte offset where the error was detected
func (b *Builder) Offset(off int64) *Builder {
	b.err.Offset = off
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidContainer creates an error for a file that is not a recognizable PE image
func InvalidContainer(detail string, args ...any) *Error {
	return New(PhaseContainer, KindInvalidContainer).Detail(detail, args...).Build()
}

// NotManaged creates an error for a valid PE image carrying no managed metadata
func NotManaged(detail string) *Error {
	return New(PhaseContainer, KindNotManaged).Detail(detail).Build()
}

// MalformedTableStream creates an error for a table stream whose declared
// layout disagrees with its recorded size
func MalformedTableStream(detail string, args ...any) *Error {
	return New(PhaseTables, KindMalformedTableStream).Detail(detail, args...).Build()
}

// MalformedEncoding creates an error for an invalid compressed-integer or
// serialized-string encoding
func MalformedEncoding(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindMalformedEncoding).Detail(detail, args...).Build()
}

// OutOfBounds creates an error for a read that would cross a region boundary
func OutOfBounds(phase Phase, offset int64, n, remaining int) *Error {
	return New(phase, KindOutOfBounds).
		Offset(offset).
		Detail("read of %d bytes exceeds region (%d remaining)", n, remaining).
		Build()
}

// FileUnreadable wraps an I/O failure that occurred before parsing started
func FileUnreadable(path string, cause error) *Error {
	return New(PhaseInput, KindFileUnreadable).
		Detail("read %s", path).
		Cause(cause).
		Build()
}

// NoMetadata creates the terminal error for an assembly carrying neither
// provenance value
func NoMetadata() *Error {
	return New(PhasePolicy, KindNoMetadata).
		Detail("no repository URL or commit hash recorded in assembly metadata").
		Build()
}

// IncompleteMetadata creates the terminal error for an assembly where exactly
// one of the two provenance values resolved
func IncompleteMetadata(missing string) *Error {
	return New(PhasePolicy, KindIncompleteMetadata).
		Detail("%s not recorded in assembly metadata", missing).
		Build()
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Returns the empty Kind when err carries no structured kind.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
