// internal/errors/errors.go
package errors

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Class names one of the three error tiers from the engine's error handling
// design: Lexical and Semantic never leave the tag-local fallback path (the
// offending tag is emitted verbatim and rendering continues); Fatal is the
// only tier a render entry point returns to its caller.
type Class string

const (
	Lexical  Class = "Lexical"  // unclosed tag, unbalanced quote, missing attribute
	Semantic Class = "Semantic" // undefined path, container where a scalar was needed, division by zero
	Fatal    Class = "Fatal"    // allocator exhaustion, sink I/O failure
)

// SourceLocation represents a location in a template or JSON document.
type SourceLocation struct {
	Offset int
	Line   int
	Column int
}

// EngineError carries a classified failure plus enough context to explain
// it without aborting the render.
type EngineError struct {
	Class     Class
	Message   string
	Location  SourceLocation
	Snippet   string // the verbatim text that triggered the error, if any
	CallStack []StackFrame
}

// StackFrame represents a single frame of nested tag evaluation (svar
// arguments, inline-if bodies, nested expression substitution).
type StackFrame struct {
	Tag    string
	Offset int
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s: %s", e.Class, e.Message))

	if e.Location.Line > 0 {
		sb.WriteString(fmt.Sprintf(" (line %d, col %d)", e.Location.Line, e.Location.Column))
	} else if e.Location.Offset != 0 || e.Snippet != "" {
		sb.WriteString(fmt.Sprintf(" (offset %d)", e.Location.Offset))
	}
	if e.Snippet != "" {
		sb.WriteString(fmt.Sprintf(": %q", e.Snippet))
	}

	for _, frame := range e.CallStack {
		sb.WriteString(fmt.Sprintf("\n  in %s (offset %d)", frame.Tag, frame.Offset))
	}

	return sb.String()
}

// NewLexical builds a Lexical-class error for a malformed tag found at
// offset; snippet is the verbatim text that will be emitted in its place.
func NewLexical(message string, offset int, snippet string) *EngineError {
	return &EngineError{
		Class:    Lexical,
		Message:  message,
		Location: SourceLocation{Offset: offset},
		Snippet:  snippet,
	}
}

// NewSemantic builds a Semantic-class error: the tag parsed but its path or
// expression failed to resolve.
func NewSemantic(message string, offset int, snippet string) *EngineError {
	return &EngineError{
		Class:    Semantic,
		Message:  message,
		Location: SourceLocation{Offset: offset},
		Snippet:  snippet,
	}
}

// NewJSONError builds a Semantic-class error for a JSON document position,
// used by the JSON reader to report line/column instead of a byte offset.
func NewJSONError(message string, line, column int) *EngineError {
	return &EngineError{
		Class:    Semantic,
		Message:  message,
		Location: SourceLocation{Line: line, Column: column},
	}
}

// NewFatal wraps cause (via pkgerrors.Wrap) as a Fatal-class error; this is
// the only class Render returns. cause may be nil when the failure has no
// underlying error of its own (e.g. a depth limit), in which case
// pkgerrors.New builds the error from message alone. Only the resulting
// message text is kept in the EngineError: the stack trace pkg/errors
// records, and the cause itself, are not retained.
func NewFatal(message string, cause error) *EngineError {
	var wrapped error
	if cause != nil {
		wrapped = pkgerrors.Wrap(cause, message)
	} else {
		wrapped = pkgerrors.New(message)
	}
	return &EngineError{
		Class:     Fatal,
		Message:   wrapped.Error(),
		CallStack: nil,
	}
}

// WithStack appends a nested-tag frame, innermost first, used when
// re-entrant rendering (svar arguments, inline-if bodies) fails.
func (e *EngineError) WithStack(tag string, offset int) *EngineError {
	e.CallStack = append(e.CallStack, StackFrame{Tag: tag, Offset: offset})
	return e
}
