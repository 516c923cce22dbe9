// Package transpile implements the high-level, indentation-sensitive
// lowering target described in spec.md §4.D.1, along with its "execute"
// convenience entry point.
package transpile

import (
	"fmt"
	"strings"

	"parsercraft/ast"
	"parsercraft/backend"
	"parsercraft/internal/errs"
)

func init() {
	backend.Register(New(Options{}))
}

// Options configures a Transpiler. The zero value is a usable
// transpiler with four-space indentation and no remapping.
type Options struct {
	// Indent is prepended once per nesting level. Defaults to four
	// spaces.
	Indent string
	// KeywordMap remaps an Identifier leaf's text to a target reserved
	// word, e.g. "si" -> "if" (spec.md §4.D.1).
	KeywordMap map[string]string
	// FunctionMap remaps a call-position identifier's text to the
	// target's function name (spec.md §4.D.1).
	FunctionMap map[string]string
	// OperatorMap remaps an operator leaf's text, per spec.md §6's
	// operator_map configuration key.
	OperatorMap map[string]string
	// WrapMain wraps emitted top-level statements in a main-style guard
	// (spec.md §4.D.1).
	WrapMain bool
	// SourceMapComments emits one comment line per statement recording
	// its source line (spec.md §4.D.1).
	SourceMapComments bool
}

func (o Options) indent() string {
	if o.Indent == "" {
		return "    "
	}
	return o.Indent
}

// Backend is the high-level transpiler.
type Backend struct {
	opts Options
}

// New returns a Backend configured by opts.
func New(opts Options) *Backend {
	return &Backend{opts: opts}
}

// Name identifies this backend in the dispatch registry.
func (*Backend) Name() string { return "transpile" }

// Translate lowers root to the high-level target form.
func (b *Backend) Translate(root *ast.Node) (string, error) {
	if root == nil {
		return "", errs.NewBackend(b.Name(), "nil AST", nil)
	}
	level := 0
	if b.opts.WrapMain {
		level = 1
	}
	body, err := b.translateStatements(root.Children, level)
	if err != nil {
		return "", err
	}

	if !b.opts.WrapMain {
		return body, nil
	}

	var out strings.Builder
	out.WriteString("def main():\n")
	out.WriteString(body)
	out.WriteString("\n\nif __name__ == \"__main__\":\n")
	out.WriteString(b.opts.indent())
	out.WriteString("main()\n")
	return out.String(), nil
}

func (b *Backend) translateStatements(stmts []*ast.Node, level int) (string, error) {
	var out strings.Builder
	for _, stmt := range stmts {
		line, err := b.translateStatement(stmt, level)
		if err != nil {
			return "", err
		}
		out.WriteString(line)
	}
	return out.String(), nil
}

func (b *Backend) indentPrefix(level int) string {
	return strings.Repeat(b.opts.indent(), level)
}

func (b *Backend) emitOptions() backend.EmitOptions {
	return backend.EmitOptions{Ident: b.remapIdentifier, Operator: b.remapOperator}
}

// remapOperator applies OperatorMap, passing an unmapped operator through
// unchanged.
func (b *Backend) remapOperator(op string) string {
	if mapped, ok := b.opts.OperatorMap[op]; ok {
		return mapped
	}
	return op
}

// remapIdentifier applies KeywordMap; a name not in it passes through
// unchanged. FunctionMap is applied separately, only to the callee name
// of a recognized call statement (translateCallStatement).
func (b *Backend) remapIdentifier(name string) string {
	if mapped, ok := b.opts.KeywordMap[name]; ok {
		return mapped
	}
	return name
}

func (b *Backend) translateStatement(stmt *ast.Node, level int) (string, error) {
	prefix := b.indentPrefix(level)
	var comment string
	if b.opts.SourceMapComments && stmt != nil {
		comment = fmt.Sprintf("%s# source line %d\n", prefix, stmt.Line)
	}

	var (
		text    string
		err     error
		handled = true
	)
	switch stmt.Type {
	case "if_stmt":
		text, err = b.translateBlockHeader(stmt, level, "if")
	case "while_stmt":
		text, err = b.translateBlockHeader(stmt, level, "while")
	case "for_stmt":
		text, err = b.translateBlockHeader(stmt, level, "for")
	case "function_def":
		text, err = b.translateFunctionDef(stmt, level)
	case "return_stmt":
		text, err = b.translateReturn(stmt, level)
	default:
		handled = false
	}
	if handled {
		return comment + text, err
	}

	if shape, ok := ast.DetectAssignment(stmt); ok {
		rhs := backend.EmitExpr(shape.Value, b.emitOptions())
		name := b.remapIdentifier(shape.Target.Value)
		return fmt.Sprintf("%s%s%s = %s\n", comment, prefix, name, rhs), nil
	}
	if call, ok := ast.DetectCall(stmt); ok {
		return comment + b.translateCallStatement(call, prefix), nil
	}

	// Unknown node type: recursively emit children, per the shared
	// recognition rules.
	return fmt.Sprintf("%s%s%s\n", comment, prefix, backend.EmitExpr(stmt, b.emitOptions())), nil
}

func (b *Backend) translateCallStatement(call ast.CallShape, prefix string) string {
	name, ok := b.opts.FunctionMap[call.Name]
	if !ok {
		name = b.remapIdentifier(call.Name)
	}
	args := make([]string, len(call.Args))
	for i, a := range call.Args {
		args[i] = backend.EmitExpr(a, b.emitOptions())
	}
	return fmt.Sprintf("%s%s(%s)\n", prefix, name, strings.Join(args, ", "))
}

// translateBlockHeader handles if_stmt/while_stmt/for_stmt generically:
// the first child is the header expression (condition, or for-stmt's
// full header), the rest are body statements. This is an approximation
// in the absence of a concrete grammar for control flow — spec.md
// §4.D.1 allows emitting the flat children when a shape does not match
// conventional expectations, which the body loop below still does for
// any statement that isn't itself recognizable.
func (b *Backend) translateBlockHeader(stmt *ast.Node, level int, keyword string) (string, error) {
	if len(stmt.Children) == 0 {
		return fmt.Sprintf("%s%s:\n", b.indentPrefix(level), keyword), nil
	}
	header := backend.EmitExpr(stmt.Children[0], b.emitOptions())
	body, err := b.translateStatements(stmt.Children[1:], level+1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s %s:\n%s", b.indentPrefix(level), keyword, header, body), nil
}

func (b *Backend) translateFunctionDef(stmt *ast.Node, level int) (string, error) {
	if len(stmt.Children) == 0 {
		return "", errs.NewBackend("transpile", "function_def node has no children", nil)
	}
	nameNode := stmt.Children[0]
	if nameNode == nil || nameNode.Type != ast.TypeIdentifier {
		return "", errs.NewBackend("transpile", "function_def's first child is not an identifier", nil)
	}
	name := b.remapIdentifier(nameNode.Value)

	rest := stmt.Children[1:]
	var params []string
	bodyStart := 0
	for i, child := range rest {
		if child.Type == ast.TypeIdentifier {
			params = append(params, b.remapIdentifier(child.Value))
			bodyStart = i + 1
			continue
		}
		break
	}
	body, err := b.translateStatements(rest[bodyStart:], level+1)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%sdef %s(%s):\n%s", b.indentPrefix(level), name, strings.Join(params, ", "), body), nil
}

func (b *Backend) translateReturn(stmt *ast.Node, level int) (string, error) {
	if len(stmt.Children) == 0 {
		return fmt.Sprintf("%sreturn\n", b.indentPrefix(level)), nil
	}
	return fmt.Sprintf("%sreturn %s\n", b.indentPrefix(level), backend.EmitExpr(stmt.Children[0], b.emitOptions())), nil
}
