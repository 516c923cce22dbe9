// Package llvmir implements the LLVM IR lowering target described in
// spec.md §4.D.4.
package llvmir

import (
	"fmt"
	"strings"

	"parsercraft/ast"
	"parsercraft/backend"
	"parsercraft/internal/errs"
)

func init() {
	backend.Register(New())
}

// Backend lowers an AST to a single `@main` function in SSA form, with
// one stack slot per assigned variable.
type Backend struct{}

// New returns a Backend. There are no configurable options.
func New() *Backend { return &Backend{} }

// Name identifies this backend in the dispatch registry.
func (*Backend) Name() string { return "llvm-ir" }

// Translate lowers root to LLVM IR text.
func (b *Backend) Translate(root *ast.Node) (string, error) {
	if root == nil {
		return "", errs.NewBackend(b.Name(), "nil AST", nil)
	}

	e := &emitter{backendName: b.Name()}
	for _, name := range backend.AssignedNames(root) {
		e.emit(fmt.Sprintf("%%%s = alloca i32", name))
	}
	for _, stmt := range root.Children {
		if err := e.translateStatement(stmt); err != nil {
			return "", err
		}
	}
	e.emit("ret i32 0")

	var out strings.Builder
	out.WriteString("define i32 @main() {\n")
	out.WriteString("entry:\n")
	for _, line := range e.instrs {
		out.WriteString("  ")
		out.WriteString(line)
		out.WriteString("\n")
	}
	out.WriteString("}\n")
	return out.String(), nil
}

// emitter accumulates the straight-line instruction list for @main and
// hands out serially numbered SSA temporaries.
type emitter struct {
	backendName string
	instrs      []string
	temp        int
}

func (e *emitter) emit(s string) { e.instrs = append(e.instrs, s) }

func (e *emitter) newTemp() string {
	e.temp++
	return fmt.Sprintf("%%t%d", e.temp)
}

func (e *emitter) translateStatement(stmt *ast.Node) error {
	shape, ok := ast.DetectAssignment(stmt)
	if !ok {
		// A bare expression statement's value is computed for its side
		// effect on temp numbering but otherwise discarded; LLVM IR has
		// no "drop" — an unused SSA value is simply never referenced
		// again.
		_, err := e.lower(stmt)
		return err
	}
	if shape.Target == nil {
		return errs.NewBackend(e.backendName, "assignment with no target identifier", nil)
	}
	val, err := e.lower(shape.Value)
	if err != nil {
		return err
	}
	e.emit(fmt.Sprintf("store i32 %s, i32* %%%s", val, shape.Target.Value))
	return nil
}

var llvmOp = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "mul",
	"/": "sdiv",
}

// lower renders n's value as an LLVM IR operand — a literal for a
// constant, or an SSA register produced by a load/arithmetic
// instruction appended to e.instrs.
func (e *emitter) lower(n *ast.Node) (string, error) {
	n = backend.Unwrap(n)
	if n == nil {
		return "", errs.NewBackend(e.backendName, "empty expression", nil)
	}
	if n.IsLeaf() {
		switch n.Type {
		case ast.TypeNumber:
			return fmt.Sprintf("%d", backend.ParseIntOrZero(n.Value)), nil
		case ast.TypeIdentifier:
			t := e.newTemp()
			e.emit(fmt.Sprintf("%s = load i32, i32* %%%s", t, n.Value))
			return t, nil
		default:
			return "", errs.NewBackend(e.backendName, fmt.Sprintf("cannot lower leaf of type %q", n.Type), nil)
		}
	}
	if inner, ok := backend.IsParenGroup(n); ok {
		return e.lower(inner)
	}
	operands, operators, ok := backend.ArithmeticChain(n)
	if !ok {
		return "", errs.NewBackend(e.backendName, fmt.Sprintf("cannot lower node of type %q", n.Type), nil)
	}
	acc, err := e.lower(operands[0])
	if err != nil {
		return "", err
	}
	for i, op := range operators {
		rhs, err := e.lower(operands[i+1])
		if err != nil {
			return "", err
		}
		instr, ok := llvmOp[op]
		if !ok {
			return "", errs.NewBackend(e.backendName, fmt.Sprintf("unsupported operator %q", op), nil)
		}
		t := e.newTemp()
		e.emit(fmt.Sprintf("%s = %s i32 %s, %s", t, instr, acc, rhs))
		acc = t
	}
	return acc, nil
}
