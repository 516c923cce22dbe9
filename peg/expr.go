package peg

import (
	"fmt"
)

// Expr is a node in a PEG expression tree (spec.md §3, "PegExpr"). It is a
// tagged algebraic value: each concrete type below carries exactly the
// data its variant needs. Expr trees have no identity beyond their shape
// — two structurally equal trees are interchangeable, the way the
// teacher's own Expression values carry no identity of their own.
type Expr interface {
	// Children returns this node's immediate sub-expressions, used for
	// tree walks (reference validation, left-recursion detection,
	// Grammar.Format).
	Children() []Expr
	fmt.Stringer
}

// Literal matches the exact text s verbatim at the current position,
// after leading ASCII whitespace is skipped (spec.md §3, §4.B).
type Literal struct{ Text string }

func (Literal) Children() []Expr { return nil }
func (l Literal) String() string { return fmt.Sprintf("%q", l.Text) }

// RuleRef invokes another rule by name, or a built-in token matcher if the
// name is reserved (spec.md §3).
type RuleRef struct{ Name string }

func (RuleRef) Children() []Expr  { return nil }
func (r RuleRef) String() string { return r.Name }

// Sequence matches each child expression in order; any failure aborts the
// whole sequence at that position (spec.md §3, §4.B).
type Sequence struct{ Items []Expr }

func (s Sequence) Children() []Expr { return s.Items }
func (s Sequence) String() string   { return joinChildren(s, " ") }

// Choice tries each child in order and commits to the first success
// (spec.md §3, §4.B — PEG's "ordered choice").
type Choice struct{ Items []Expr }

func (c Choice) Children() []Expr { return c.Items }
func (c Choice) String() string   { return joinChildren(c, " / ") }

// ZeroOrMore greedily matches its inner expression any number of times,
// including zero, and always succeeds (spec.md §3, §4.B, §9).
type ZeroOrMore struct{ Inner Expr }

func (z ZeroOrMore) Children() []Expr { return []Expr{z.Inner} }
func (z ZeroOrMore) String() string   { return formatChild(z, z.Inner) + "*" }

// OneOrMore requires at least one match of its inner expression, then is
// greedy like ZeroOrMore (spec.md §3, §4.B).
type OneOrMore struct{ Inner Expr }

func (o OneOrMore) Children() []Expr { return []Expr{o.Inner} }
func (o OneOrMore) String() string   { return formatChild(o, o.Inner) + "+" }

// Optional matches its inner expression or nothing, and always succeeds
// (spec.md §3, §4.B).
type Optional struct{ Inner Expr }

func (o Optional) Children() []Expr { return []Expr{o.Inner} }
func (o Optional) String() string   { return formatChild(o, o.Inner) + "?" }

// AndPredicate is a zero-width positive look-ahead: it succeeds, without
// consuming input, exactly when its inner expression would succeed
// (spec.md §3, §4.B).
type AndPredicate struct{ Inner Expr }

func (a AndPredicate) Children() []Expr { return []Expr{a.Inner} }
func (a AndPredicate) String() string   { return "&" + formatChild(a, a.Inner) }

// NotPredicate is a zero-width negative look-ahead: it succeeds, without
// consuming input, exactly when its inner expression would fail (spec.md
// §3, §4.B).
type NotPredicate struct{ Inner Expr }

func (n NotPredicate) Children() []Expr { return []Expr{n.Inner} }
func (n NotPredicate) String() string   { return "!" + formatChild(n, n.Inner) }

// joinChildren renders a Sequence/Choice's children joined by sep,
// parenthesizing any child whose own precedence would otherwise be
// ambiguous when re-read as notation — the same "formatChild" policy the
// teacher's peg.expressions.go uses for its own Format methods.
func joinChildren(parent Expr, sep string) string {
	children := parent.Children()
	out := ""
	for i, c := range children {
		if i > 0 {
			out += sep
		}
		out += formatChild(parent, c)
	}
	return out
}

func formatChild(parent, child Expr) string {
	needsParens := false
	switch child.(type) {
	case Sequence:
		if _, parentIsChoice := parent.(Choice); !parentIsChoice {
			needsParens = true
		}
	case Choice:
		needsParens = true
	}
	if needsParens {
		return "(" + child.String() + ")"
	}
	return child.String()
}

// Walk invokes visit for root and then recursively for every descendant,
// in document order — used by reference validation, left-recursion
// detection, and Grammar.Format.
func Walk(root Expr, visit func(Expr)) {
	if root == nil {
		return
	}
	visit(root)
	for _, c := range root.Children() {
		Walk(c, visit)
	}
}
