// Package errs defines the three structured error kinds ParserCraft
// returns to callers, per spec.md §6/§7: grammar syntax, source parse, and
// backend structural errors. Each kind is a concrete type rather than an
// opaque wrapped string so that callers can use the standard library's
// errors.As to recover the exact fields (line, column, message, ...)
// listed in §6, while fmt's "%+v" verb additionally prints a call-site
// the way golang.org/x/exp/errors' own annotated errors do for theirs.
package errs

import (
	"fmt"

	xerrors "golang.org/x/exp/errors"
)

// statePrinter adapts a standard fmt.State into golang.org/x/exp/errors'
// Printer interface, the same bridging job the teacher's errors/fmt
// adaptor package does for callers who want "%+v" detail without
// switching away from the standard library's fmt.
type statePrinter struct {
	s      fmt.State
	detail bool
}

func (p *statePrinter) Print(args ...interface{}) { fmt.Fprint(p.s, args...) }
func (p *statePrinter) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.s, format, args...)
}
func (p *statePrinter) Detail() bool { return p.detail }

// formatPlusV implements the fmt.Formatter side of a FormatError-shaped
// error: "%+v" walks the chain printing each error's message plus detail
// (here, the call site that raised it); every other verb falls back to
// Error().
func formatPlusV(f fmt.State, verb rune, err interface {
	error
	FormatError(xerrors.Printer) error
}) {
	if verb != 'v' || !f.Flag('+') {
		fmt.Fprint(f, err.Error())
		return
	}
	p := &statePrinter{s: f, detail: true}
	for e := error(err); e != nil; {
		fe, ok := e.(interface {
			FormatError(xerrors.Printer) error
		})
		if !ok {
			p.Print(e.Error())
			break
		}
		e = fe.FormatError(p)
	}
}

// Grammar reports a malformed PEG notation document (spec.md §4.A, §6).
type Grammar struct {
	Line    int
	Column  int
	Message string
	stack   xerrors.Stack
}

// NewGrammar builds a Grammar error at the given 1-based line and column.
func NewGrammar(line, column int, format string, args ...interface{}) *Grammar {
	return &Grammar{
		Line:    line,
		Column:  column,
		Message: fmt.Sprintf(format, args...),
		stack:   xerrors.NewStack(),
	}
}

func (e *Grammar) Error() string {
	return fmt.Sprintf("grammar:%d:%d: %s", e.Line, e.Column, e.Message)
}

// FormatError implements golang.org/x/exp/errors' Formatter-shaped
// contract: print the message, then let the captured stack print its
// own detail (the call site), terminating the chain.
func (e *Grammar) FormatError(p xerrors.Printer) (next error) {
	p.Print(e.Error())
	e.stack.FormatError(p)
	return nil
}

// Format implements fmt.Formatter so "%+v" includes the call-site detail.
func (e *Grammar) Format(f fmt.State, verb rune) { formatPlusV(f, verb, e) }

// Source reports a failure to match the start rule against a source
// program (spec.md §4.B, §6). FurthestPosition and DeepestRule are the
// error-reporting aids required by §4.B: the single largest byte offset
// ever reached, and the last rule attempted there.
type Source struct {
	Line             int
	Column           int
	FurthestPosition int
	DeepestRule      string
	Message          string
	stack            xerrors.Stack
}

// NewSource builds a Source error.
func NewSource(line, column, furthest int, deepestRule, format string, args ...interface{}) *Source {
	return &Source{
		Line:             line,
		Column:           column,
		FurthestPosition: furthest,
		DeepestRule:      deepestRule,
		Message:          fmt.Sprintf(format, args...),
		stack:            xerrors.NewStack(),
	}
}

func (e *Source) Error() string {
	return fmt.Sprintf("source:%d:%d: %s (deepest rule: %s)", e.Line, e.Column, e.Message, e.DeepestRule)
}

// FormatError implements golang.org/x/exp/errors' Formatter-shaped
// contract.
func (e *Source) FormatError(p xerrors.Printer) (next error) {
	p.Print(e.Error())
	e.stack.FormatError(p)
	return nil
}

// Format implements fmt.Formatter so "%+v" includes the call-site detail.
func (e *Source) Format(f fmt.State, verb rune) { formatPlusV(f, verb, e) }

// Backend reports an AST a named backend cannot lower (spec.md §4.D, §6):
// a nil AST, a malformed known shape, or a node outside what that backend
// handles. The transpile backend emits unknown node types as their
// children and does not fail on them; the wat and llvm-ir backends fail on
// any node that is not an assignment or an arithmetic chain of numbers,
// identifiers and parenthesized groups, and the C backend fails on a call
// to anything but print.
type Backend struct {
	BackendName string
	Message     string
	err         error
	stack       xerrors.Stack
}

// NewBackend builds a Backend error. cause may be nil.
func NewBackend(backendName, message string, cause error) *Backend {
	return &Backend{
		BackendName: backendName,
		Message:     message,
		err:         cause,
		stack:       xerrors.NewStack(),
	}
}

func (e *Backend) Error() string {
	if e.err != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.BackendName, e.Message, e.err)
	}
	return fmt.Sprintf("backend %s: %s", e.BackendName, e.Message)
}

// Unwrap exposes the underlying cause, if any, to errors.Is/errors.As.
func (e *Backend) Unwrap() error { return e.err }

// FormatError implements golang.org/x/exp/errors' Formatter-shaped
// contract, continuing the chain into the wrapped cause so "%+v" prints
// every cause's own detail in turn.
func (e *Backend) FormatError(p xerrors.Printer) (next error) {
	p.Print(fmt.Sprintf("backend %s: %s", e.BackendName, e.Message))
	e.stack.FormatError(p)
	return e.err
}

// Format implements fmt.Formatter so "%+v" includes the call-site detail.
func (e *Backend) Format(f fmt.State, verb rune) { formatPlusV(f, verb, e) }
