// Package backend defines the shared AST-to-text lowering contract
// spec.md §4.D describes, plus the recognition and emission helpers
// every concrete backend (transpile, cbackend, wat, llvmir) builds on.
// Grounded on other_examples/f5d0650e_eaburns-peggy__gen.go.go's
// Generate/writeRule pipeline for the general shape of "walk structured
// input, emit target text via small formatting helpers and a
// strings.Builder". Unlike the teacher's peg.Grammar.Format/formatChild,
// EmitExpr below never adds parentheses of its own.
package backend

import (
	"sort"
	"strconv"
	"strings"

	"parsercraft/ast"
)

// Backend is the single-method contract spec.md §4.D requires: adding a
// fifth backend means implementing this interface and nothing else.
type Backend interface {
	Name() string
	Translate(root *ast.Node) (string, error)
}

var registry = map[string]Backend{}

// Register adds b to the name-keyed dispatch registry used by the CLI's
// -backend flag. Concrete backend packages call this from an init func.
func Register(b Backend) {
	registry[b.Name()] = b
}

// Get looks up a registered backend by name.
func Get(name string) (Backend, bool) {
	b, ok := registry[name]
	return b, ok
}

// Names returns every registered backend name, sorted, for CLI usage
// text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EmitOptions configures EmitExpr's rendering of leaf nodes, the place
// spec.md §6's keyword_map/operator_map configuration keys and a
// backend's own identifier remapping hook into expression emission.
type EmitOptions struct {
	// Ident remaps an Identifier leaf's value, e.g. for the transpiler's
	// keyword_map. Nil means identity.
	Ident func(name string) string
	// QuoteString renders a String leaf's value with target-specific
	// quoting. Nil means the raw value, unquoted.
	QuoteString func(value string) string
	// Operator remaps an Operator leaf's value, e.g. for
	// config.Config.OperatorMap. Nil means identity.
	Operator func(op string) string
}

func (o EmitOptions) ident(name string) string {
	if o.Ident == nil {
		return name
	}
	return o.Ident(name)
}

func (o EmitOptions) quoteString(value string) string {
	if o.QuoteString == nil {
		return value
	}
	return o.QuoteString(value)
}

func (o EmitOptions) operator(op string) string {
	if o.Operator == nil {
		return op
	}
	return o.Operator(op)
}

// EmitExpr renders n following the shared recognition rules of spec.md
// §4.D: a leaf emits per its token type; a composite node (an
// expression rule, or any unrecognized node type) emits its children's
// textual forms joined by single spaces. Parentheses are never
// synthesized — grouping in the source shows up only because a grammar
// that wants visible parens elevates its own "(" / ")" literals to
// Operator leaves, which this function renders like any other operator.
func EmitExpr(n *ast.Node, opts EmitOptions) string {
	if n == nil {
		return ""
	}
	if n.IsLeaf() {
		switch n.Type {
		case ast.TypeNumber:
			if n.Value == "" {
				return "0"
			}
			return n.Value
		case ast.TypeIdentifier:
			return opts.ident(n.Value)
		case ast.TypeString:
			return opts.quoteString(n.Value)
		case ast.TypeOperator:
			return opts.operator(n.Value)
		default:
			return n.Value
		}
	}
	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		parts = append(parts, EmitExpr(c, opts))
	}
	return strings.Join(parts, " ")
}

// IsParenGroup reports whether n is a factor-shaped node whose children
// are exactly [Operator("("), inner, Operator(")")] — the shape a rule
// like `factor <- NUMBER / IDENT / "(" expr ")"` produces for its
// parenthesized alternative, per spec.md §4.B's elevation of punctuation
// literals to Operator leaves.
func IsParenGroup(n *ast.Node) (inner *ast.Node, ok bool) {
	if n == nil || len(n.Children) != 3 {
		return nil, false
	}
	if !n.Children[0].IsOperator("(") || !n.Children[2].IsOperator(")") {
		return nil, false
	}
	return n.Children[1], true
}

// Unwrap follows single-child wrapping nodes (the shape a rule like
// `factor <- NUMBER / IDENT` or `expr <- term` produces when a Choice's
// chosen alternative was itself a bare RuleRef or leaf) down to the
// first node that is either a leaf, a parenthesized group, or an
// operator-chain with more than one child.
func Unwrap(n *ast.Node) *ast.Node {
	for n != nil && !n.IsLeaf() && len(n.Children) == 1 {
		n = n.Children[0]
	}
	return n
}

// ArithmeticChain reports whether n has the shape an arithmetic
// expression/term rule produces: an initial operand followed by zero or
// more (Operator, operand) pairs, e.g. `expr <- term (("+" / "-")
// term)*`. It returns the operands and the operators between them.
func ArithmeticChain(n *ast.Node) (operands []*ast.Node, operators []string, ok bool) {
	if n == nil || n.IsLeaf() || len(n.Children) < 1 || len(n.Children)%2 != 1 {
		return nil, nil, false
	}
	operands = append(operands, n.Children[0])
	for i := 1; i < len(n.Children); i += 2 {
		opNode := n.Children[i]
		op, isOp := opNode.OperatorValue()
		if !isOp {
			return nil, nil, false
		}
		operators = append(operators, op)
		operands = append(operands, n.Children[i+1])
	}
	return operands, operators, true
}

// ParseIntOrZero parses a Number leaf's value, defaulting to 0 for an
// absent value per the shared recognition rule.
func ParseIntOrZero(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}

// AssignedNames walks root's top-level statements in order and returns
// the set of identifiers assigned, deduplicated, first-occurrence order
// — the "set of assigned identifiers" spec.md §4.D.3/§4.D.4 ask for to
// seed WAT locals and LLVM allocas.
func AssignedNames(root *ast.Node) []string {
	if root == nil {
		return nil
	}
	seen := map[string]bool{}
	var names []string
	for _, stmt := range root.Children {
		shape, ok := ast.DetectAssignment(stmt)
		if !ok {
			continue
		}
		name := shape.Target.Value
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}
