// Package compiler runs the five-pass front end spec.md §4 describes over
// a shared symboltable.Table, then hands the result to textplan/emitter.
// File organization mirrors the teacher's datalog/planner package: one
// file per pass (types_pass.go, declarations_pass.go, pipeline_pass.go,
// relation_bodies_*.go, subquery_fixup_pass.go), plus errors.go and
// cache.go for cross-pass infrastructure and compiler.go for the
// top-level entry point that sequences them.
package compiler

import "fmt"

// ErrorKind classifies a CompileError, generalizing the teacher's
// common/error.rs ErrorKind enum (read during the original_source/
// supplement pass) into the categories this compiler's five passes and
// emitter can actually raise.
type ErrorKind int

const (
	ParseError ErrorKind = iota
	SymbolError
	TypeError
	EmitError
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case SymbolError:
		return "SymbolError"
	case TypeError:
		return "TypeError"
	case EmitError:
		return "EmitError"
	default:
		return "UnknownError"
	}
}

// CompileError is one diagnostic raised during compilation.
type CompileError struct {
	Kind     ErrorKind
	Message  string
	Line     int
	Col      int
}

func (e CompileError) Error() string {
	if e.Line <= 0 && e.Col <= 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Line, e.Col, e.Message)
}

// ErrorListener collects diagnostics across all five passes instead of
// aborting on the first one, per spec.md §7: a single bad relation
// shouldn't hide every other mistake in the same document.
type ErrorListener struct {
	errors []CompileError
}

// NewErrorListener returns an empty ErrorListener.
func NewErrorListener() *ErrorListener { return &ErrorListener{} }

// Add records a new diagnostic.
func (l *ErrorListener) Add(kind ErrorKind, line, col int, format string, args ...interface{}) {
	l.errors = append(l.errors, CompileError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Col:     col,
	})
}

// HasErrors reports whether any diagnostic has been recorded.
func (l *ErrorListener) HasErrors() bool { return len(l.errors) > 0 }

// Errors returns every recorded diagnostic, in the order raised.
func (l *ErrorListener) Errors() []CompileError { return l.errors }

// Err returns a single combined error summarizing all diagnostics, or nil
// if none were recorded — the shape callers that just want a pass/fail
// result expect from a Go function.
func (l *ErrorListener) Err() error {
	if !l.HasErrors() {
		return nil
	}
	msg := fmt.Sprintf("%d compile error(s):", len(l.errors))
	for _, e := range l.errors {
		msg += "\n  " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
