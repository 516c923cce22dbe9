// Package wat implements the WebAssembly text format lowering target
// described in spec.md §4.D.3.
package wat

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

// Backend lowers an AST to a single-function WAT module operating
// entirely on i32 locals.
type Backend struct{}

// New returns a Backend. There are no configurable options.
func New() *Backend { return &Backend{} }

// Name identifies this backend in the dispatch registry.
func (*Backend) Name() string { return "wat" }

// Translate lowers root to WebAssembly text.
func (b *Backend) Translate(root *ast.Node) (string, error) {
	if root == nil {
		return "", errs.NewBackend(b.Name(), "nil AST", nil)
	}

	locals := backend.AssignedNames(root)

	var body strings.Builder
	for _, stmt := range root.Children {
		instr, err := b.translateStatement(stmt)
		if err != nil {
			return "", err
		}
		body.WriteString("    ")
		body.WriteString(instr)
		body.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString("(module\n")
	out.WriteString("  (memory 256)\n")
	out.WriteString("  (func $main\n")
	for _, name := range locals {
		fmt.Fprintf(&out, "    (local $%s i32)\n", name)
	}
	out.WriteString(body.String())
	out.WriteString("  )\n")
	out.WriteString(")\n")
	return out.String(), nil
}

func (b *Backend) translateStatement(stmt *ast.Node) (string, error) {
	if shape, ok := ast.DetectAssignment(stmt); ok {
		if shape.Target == nil {
			return "", errs.NewBackend(b.Name(), "assignment with no target identifier", nil)
		}
		rhs, err := b.lower(shape.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(local.set $%s %s)", shape.Target.Value, rhs), nil
	}
	// A bare expression statement's value is computed and discarded —
	// WAT requires every pushed value to be consumed.
	instr, err := b.lower(stmt)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(drop %s)", instr), nil
}

var wasmOp = map[string]string{
	"+": "i32.add",
	"-": "i32.sub",
	"*": "i32.mul",
	"/": "i32.div_s",
}

// lower renders n as a nested WAT s-expression, per spec.md §4.D.3:
// NUMBER leaves become i32.const, IDENT leaves become local.get, and an
// arithmetic chain folds left into nested i32.add/sub/mul/div_s forms.
func (b *Backend) lower(n *ast.Node) (string, error) {
	n = backend.Unwrap(n)
	if n == nil {
		return "", errs.NewBackend(b.Name(), "empty expression", nil)
	}
	if n.IsLeaf() {
		switch n.Type {
		case ast.TypeNumber:
			return fmt.Sprintf("(i32.const %d)", backend.ParseIntOrZero(n.Value)), nil
		case ast.TypeIdentifier:
			return fmt.Sprintf("(local.get $%s)", n.Value), nil
		default:
			return "", errs.NewBackend(b.Name(), fmt.Sprintf("cannot lower leaf of type %q", n.Type), nil)
		}
	}
	if inner, ok := backend.IsParenGroup(n); ok {
		return b.lower(inner)
	}
	operands, operators, ok := backend.ArithmeticChain(n)
	if !ok {
		return "", errs.NewBackend(b.Name(), fmt.Sprintf("cannot lower node of type %q", n.Type), nil)
	}
	acc, err := b.lower(operands[0])
	if err != nil {
		return "", err
	}
	for i, op := range operators {
		rhs, err := b.lower(operands[i+1])
		if err != nil {
			return "", err
		}
		instr, ok := wasmOp[op]
		if !ok {
			return "", errs.NewBackend(b.Name(), fmt.Sprintf("unsupported operator %q", op), nil)
		}
		acc = fmt.Sprintf("(%s %s %s)", instr, acc, rhs)
	}
	return acc, nil
}
