// Package peg defines the PEG expression tree and compiled Grammar
// representation described in spec.md §3. It is the generalization of the
// teacher's golang.org/x/exp/peg package: the same Expr-tree shape,
// extended with reference validation, left-recursion rejection, and the
// reserved names of the three built-in tokens spec.md requires (the
// matchers themselves live in the packrat package).
package peg

import (
	"context"
	"fmt"

	"parsercraft/internal/errs"
	"parsercraft/internal/telemetry"
)

// Built-in token names, reserved and never used as ordinary rule names
// (spec.md §3).
const (
	Number     = "NUMBER"
	Identifier = "IDENT"
	String     = "STRING"
)

// IsBuiltin reports whether name refers to one of the three built-in
// token matchers rather than a user-defined rule.
func IsBuiltin(name string) bool {
	switch name {
	case Number, Identifier, String:
		return true
	default:
		return false
	}
}

// Rule is a named expression in a Grammar (spec.md §3).
type Rule struct {
	Name        string
	Root        Expr
	Description string
}

// Grammar is a compiled PEG grammar: a set of uniquely named rules plus a
// designated start rule (spec.md §3). The zero value is not usable;
// construct one with NewGrammar and finish it with Build.
type Grammar struct {
	Label     string
	StartRule string

	rules []Rule
	index map[string]int
	built bool
}

// NewGrammar returns an empty, mutable Grammar labeled label. Call
// AddRule for each rule, then Build to validate and freeze it.
func NewGrammar(label string) *Grammar {
	return &Grammar{Label: label, index: map[string]int{}}
}

// AddRule appends a rule to the grammar. The first rule added becomes the
// default start rule (spec.md §3, §4.A). AddRule panics if called after
// Build — grammars are immutable once built (spec.md §3, "Lifecycle").
func (g *Grammar) AddRule(r Rule) {
	if g.built {
		panic("peg: AddRule called on a built Grammar")
	}
	if _, exists := g.index[r.Name]; exists {
		panic(fmt.Sprintf("peg: duplicate rule name %q", r.Name))
	}
	if len(g.rules) == 0 {
		g.StartRule = r.Name
	}
	g.index[r.Name] = len(g.rules)
	g.rules = append(g.rules, r)
}

// Rule returns the rule named name, or nil if no such rule exists.
func (g *Grammar) Rule(name string) *Rule {
	i, ok := g.index[name]
	if !ok {
		return nil
	}
	return &g.rules[i]
}

// RuleID returns the stable integer id assigned to name at Build time,
// used to key the packrat memo table by (rule-id, position) instead of by
// name string, per spec.md §9 ("Memoization table storage").
func (g *Grammar) RuleID(name string) (int, bool) {
	i, ok := g.index[name]
	return i, ok
}

// Rules returns the grammar's rules in declaration order.
func (g *Grammar) Rules() []Rule {
	return g.rules
}

// Build validates rule references, rejects left recursion, and freezes
// the grammar. It must be called before the grammar is handed to the
// packrat interpreter (spec.md §4.B, "Termination").
func (g *Grammar) Build(ctx context.Context) error {
	if g.built {
		return nil
	}
	if len(g.rules) == 0 {
		return errs.NewGrammar(0, 0, "grammar %q has no rules", g.Label)
	}
	if g.StartRule == "" {
		g.StartRule = g.rules[0].Name
	}
	if err := g.validateReferences(); err != nil {
		return err
	}
	if err := g.rejectLeftRecursion(); err != nil {
		return err
	}
	g.warnEmptyRules(ctx)
	g.built = true
	return nil
}

// validateReferences ensures every RuleRef names either a declared rule or
// a built-in token, per spec.md §3's grammar invariant.
func (g *Grammar) validateReferences() error {
	for _, r := range g.rules {
		var err error
		Walk(r.Root, func(e Expr) {
			if err != nil {
				return
			}
			ref, ok := e.(RuleRef)
			if !ok {
				return
			}
			if IsBuiltin(ref.Name) {
				return
			}
			if _, ok := g.index[ref.Name]; !ok {
				err = errs.NewGrammar(0, 0, "rule %q references undeclared rule %q", r.Name, ref.Name)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// rejectLeftRecursion statically detects direct and indirect left
// recursion: a rule is left-recursive if it can reach a RuleRef to itself
// (or to a rule in the process of being analyzed) at the *first* position
// of its pattern, with no expression that must consume input in between.
// This mirrors spec.md §4.B's required rejection of
// `expr <- expr "+" term / term` before any source is parsed, and is the
// static alternative to the parse-time "evaluating" memo state spec.md
// also permits.
func (g *Grammar) rejectLeftRecursion() error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(g.rules))
	nullable := g.computeNullable()

	var check func(idx int) error
	check = func(idx int) error {
		switch state[idx] {
		case done:
			return nil
		case visiting:
			return errs.NewGrammar(0, 0, "left recursion detected in rule %q", g.rules[idx].Name)
		}
		state[idx] = visiting
		for _, leading := range g.leadingRefs(nullable, g.rules[idx].Root) {
			refIdx, ok := g.index[leading]
			if !ok {
				continue // built-in token, cannot recurse
			}
			if refIdx == idx || state[refIdx] == visiting {
				return errs.NewGrammar(0, 0, "left recursion detected in rule %q", g.rules[idx].Name)
			}
			if err := check(refIdx); err != nil {
				return err
			}
		}
		state[idx] = done
		return nil
	}

	for i := range g.rules {
		if err := check(i); err != nil {
			return err
		}
	}
	return nil
}

// computeNullable returns, for each rule index, whether that rule can
// match the empty string — computed as a least fixed point over all
// rules simultaneously, since one rule's nullability can depend on
// another's (and, through mutual recursion, on its own). It starts every
// rule as non-nullable and only ever flips an entry to true, so it is
// monotonic and terminates in at most len(rules) passes.
func (g *Grammar) computeNullable() []bool {
	nullable := make([]bool, len(g.rules))
	for {
		changed := false
		for i, r := range g.rules {
			if nullable[i] {
				continue
			}
			if g.canMatchEmpty(nullable, r.Root) {
				nullable[i] = true
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return nullable
}

// leadingRefs returns the set of rule names that could be invoked at the
// very first position of e, without any prior expression in e having
// consumed input. This is exactly the set that, if it loops back to the
// rule being analyzed, constitutes left recursion. nullable is the
// grammar-wide fixed point computed by computeNullable.
func (g *Grammar) leadingRefs(nullable []bool, e Expr) []string {
	switch e := e.(type) {
	case RuleRef:
		return []string{e.Name}
	case Sequence:
		// The first child is reached at the sequence's own leading
		// position; each later child is too, as long as every child
		// before it can match empty.
		var out []string
		for _, child := range e.Items {
			out = append(out, g.leadingRefs(nullable, child)...)
			if !g.canMatchEmpty(nullable, child) {
				break
			}
		}
		return out
	case Choice:
		var out []string
		for _, child := range e.Items {
			out = append(out, g.leadingRefs(nullable, child)...)
		}
		return out
	case ZeroOrMore:
		return g.leadingRefs(nullable, e.Inner)
	case OneOrMore:
		return g.leadingRefs(nullable, e.Inner)
	case Optional:
		return g.leadingRefs(nullable, e.Inner)
	case AndPredicate:
		return g.leadingRefs(nullable, e.Inner)
	case NotPredicate:
		return g.leadingRefs(nullable, e.Inner)
	default:
		return nil
	}
}

// canMatchEmpty reports whether e can match without consuming any input,
// given the grammar-wide nullable fixed point for RuleRef lookups. A
// built-in token (NUMBER, IDENT, STRING) always consumes at least one
// character and is never nullable.
func (g *Grammar) canMatchEmpty(nullable []bool, e Expr) bool {
	switch e := e.(type) {
	case Literal:
		return e.Text == ""
	case ZeroOrMore, Optional, AndPredicate, NotPredicate:
		return true
	case Sequence:
		for _, c := range e.Items {
			if !g.canMatchEmpty(nullable, c) {
				return false
			}
		}
		return true
	case Choice:
		for _, c := range e.Items {
			if g.canMatchEmpty(nullable, c) {
				return true
			}
		}
		return false
	case OneOrMore:
		return g.canMatchEmpty(nullable, e.Inner)
	case RuleRef:
		if IsBuiltin(e.Name) {
			return false
		}
		idx, ok := g.index[e.Name]
		if !ok {
			return false
		}
		return nullable[idx]
	default:
		return true
	}
}

func (g *Grammar) warnEmptyRules(ctx context.Context) {
	log := telemetry.New("grammar.build")
	for _, r := range g.rules {
		if r.Root == nil {
			log.Warn(ctx, "rule body is empty and will never match", telemetry.String("rule", r.Name))
		}
	}
}

// Format implements fmt.Formatter so a built Grammar can be re-rendered
// as PEG notation (spec.md §8.7's round-trip property, and the teacher's
// own Grammar.Format), e.g. via fmt.Sprint(g).
func (g *Grammar) Format(f fmt.State, verb rune) {
	for i, r := range g.rules {
		if i > 0 {
			fmt.Fprintln(f)
		}
		if r.Root == nil {
			fmt.Fprintf(f, "%s <-", r.Name)
			continue
		}
		fmt.Fprintf(f, "%s <- %s", r.Name, r.Root.String())
	}
}
