// Package cbackend implements the ANSI C lowering target described in
// spec.md §4.D.2. Grounded on backend.EmitExpr for expression rendering
// and on the shared recognition rules for assignment/call detection.
package cbackend

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

// Backend lowers an AST to a single translation unit with a fixed
// three-header preamble and a `main(void)` body (spec.md §4.D.2).
type Backend struct{}

// New returns a Backend. There are no configurable options.
func New() *Backend { return &Backend{} }

// Name identifies this backend in the dispatch registry and in error
// values.
func (*Backend) Name() string { return "c" }

// Translate lowers root to ANSI C source text.
func (b *Backend) Translate(root *ast.Node) (string, error) {
	if root == nil {
		return "", errs.NewBackend(b.Name(), "nil AST", nil)
	}

	declared := map[string]bool{}
	var body strings.Builder
	for _, stmt := range root.Children {
		line, err := b.translateStatement(stmt, declared)
		if err != nil {
			return "", err
		}
		body.WriteString("    ")
		body.WriteString(line)
		body.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString("#include <stdio.h>\n")
	out.WriteString("#include <stdlib.h>\n")
	out.WriteString("#include <string.h>\n\n")
	out.WriteString("int main(void) {\n")
	out.WriteString(body.String())
	out.WriteString("    return 0;\n")
	out.WriteString("}\n")
	return out.String(), nil
}

func (b *Backend) translateStatement(stmt *ast.Node, declared map[string]bool) (string, error) {
	if shape, ok := ast.DetectAssignment(stmt); ok {
		return b.translateAssignment(shape, declared)
	}
	if call, ok := ast.DetectCall(stmt); ok {
		return b.translateCall(call)
	}
	return backend.EmitExpr(stmt, backend.EmitOptions{}) + ";", nil
}

func (b *Backend) translateAssignment(shape ast.AssignmentShape, declared map[string]bool) (string, error) {
	if shape.Target == nil {
		return "", errs.NewBackend(b.Name(), "assignment with no target identifier", nil)
	}
	rhs := backend.EmitExpr(shape.Value, backend.EmitOptions{})
	name := shape.Target.Value
	if declared[name] {
		return fmt.Sprintf("%s = %s;", name, rhs), nil
	}
	declared[name] = true
	return fmt.Sprintf("int %s = %s;", name, rhs), nil
}

// translateCall emits a printf invocation for a print-analog call,
// inferring one %d per integer argument and one %s per string-literal
// argument, per spec.md §4.D.2.
func (b *Backend) translateCall(call ast.CallShape) (string, error) {
	if !strings.EqualFold(call.Name, "print") {
		return "", errs.NewBackend(b.Name(), fmt.Sprintf("unsupported call to %q", call.Name), nil)
	}

	var specifiers []string
	var args []string
	for _, arg := range call.Args {
		leaf := backend.Unwrap(arg)
		if leaf != nil && leaf.Type == ast.TypeString {
			specifiers = append(specifiers, "%s")
			args = append(args, `"`+cEscape(leaf.Value)+`"`)
			continue
		}
		specifiers = append(specifiers, "%d")
		args = append(args, backend.EmitExpr(arg, backend.EmitOptions{}))
	}

	format := `"` + strings.Join(specifiers, " ") + `\n"`
	var line strings.Builder
	line.WriteString("printf(")
	line.WriteString(format)
	for _, a := range args {
		line.WriteString(", ")
		line.WriteString(a)
	}
	line.WriteString(");")
	return line.String(), nil
}

func cEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
