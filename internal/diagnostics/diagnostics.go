// Package diagnostics holds the error taxonomy shared by the expert-system
// front end, knowledge-base builder, CLI, and HTTP service: SyntaxError,
// UnsupportedRuleShape, UsageError, and IOError.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// SyntaxError is returned by the lexer and parser when the token stream
// deviates from the grammar. It is fatal for the parse that produced it: no
// partial AST is ever returned alongside one.
type SyntaxError struct {
	Line       int
	Col        int
	SourceLine string
	Msg        string
}

func (e SyntaxError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("syntax error: %s", e.Msg)
	}
	return fmt.Sprintf("syntax error: line %d, column %d: %s", e.Line, e.Col, e.Msg)
}

// FullMessage renders the error message together with the offending source
// line and a cursor pointing at the exact column, wrapping the message
// itself to 80 columns for display to a human (e.g. the CLI's -p pretty
// printer).
func (e SyntaxError) FullMessage() string {
	msg := rosed.Edit(e.Error()).Wrap(80).String()
	if e.SourceLine == "" {
		return msg
	}
	return e.SourceLine + "\n" + strings.Repeat(" ", e.Col-1) + "^" + "\n" + msg
}

// UnsupportedRuleShape is a non-fatal diagnostic emitted when a rule's
// conclusion (or, for an IFF rule, its premise) is not a conjunction of plain
// symbols. The offending rule is skipped; processing continues.
type UnsupportedRuleShape struct {
	Line       int
	SourceLine string
	Reason     string
}

func (e UnsupportedRuleShape) Error() string {
	return fmt.Sprintf("unsupported conclusion type, skipping (line %d): %s", e.Line, e.Reason)
}

// UsageError indicates the program was invoked incorrectly (e.g. missing the
// source file argument). It is fatal at startup.
type UsageError struct {
	Msg string
}

func (e UsageError) Error() string { return e.Msg }

// IOError wraps a failure to open or read the source file. It is fatal at
// startup.
type IOError struct {
	Path string
	Err  error
}

func (e IOError) Error() string {
	return fmt.Sprintf("cannot read %q: %s", e.Path, e.Err.Error())
}

func (e IOError) Unwrap() error { return e.Err }

// Diagnostics collects non-fatal messages produced while building a
// knowledge base, so a caller (the CLI, the REPL, or the HTTP API) can
// surface them without the builder knowing anything about output streams.
type Diagnostics []UnsupportedRuleShape

// Add appends shape to the collector.
func (d *Diagnostics) Add(shape UnsupportedRuleShape) {
	*d = append(*d, shape)
}

// Lines renders each collected diagnostic as one Error() string.
func (d Diagnostics) Lines() []string {
	lines := make([]string, len(d))
	for i, shape := range d {
		lines[i] = shape.Error()
	}
	return lines
}
