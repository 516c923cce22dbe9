package packrat

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"parsercraft/ast"
	"parsercraft/internal/errs"
	"parsercraft/peg"
)

// buildArithmeticGrammar mirrors spec.md's scenario 1 grammar: a single
// assignment of a sum of two numbers, e.g. "x = 1 + 2;".
func buildArithmeticGrammar(t *testing.T) *peg.Grammar {
	t.Helper()
	g := peg.NewGrammar("arithmetic")
	g.AddRule(peg.Rule{
		Name: "assignment",
		Root: peg.Sequence{Items: []peg.Expr{
			peg.RuleRef{Name: peg.Identifier},
			peg.Literal{Text: "="},
			peg.RuleRef{Name: "expr"},
			peg.Literal{Text: ";"},
		}},
	})
	g.AddRule(peg.Rule{
		Name: "expr",
		Root: peg.Sequence{Items: []peg.Expr{
			peg.RuleRef{Name: peg.Number},
			peg.Literal{Text: "+"},
			peg.RuleRef{Name: peg.Number},
		}},
	})
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestParseArithmeticAssignment(t *testing.T) {
	g := buildArithmeticGrammar(t)
	got, err := Parse(context.Background(), g, "x = 1 + 2;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &ast.Node{
		Type: "assignment",
		Children: []*ast.Node{
			{Type: ast.TypeIdentifier, Value: "x", HasValue: true},
			{Type: ast.TypeOperator, Value: "=", HasValue: true},
			{
				Type: "expr",
				Children: []*ast.Node{
					{Type: ast.TypeNumber, Value: "1", HasValue: true},
					{Type: ast.TypeOperator, Value: "+", HasValue: true},
					{Type: ast.TypeNumber, Value: "2", HasValue: true},
				},
			},
			{Type: ast.TypeOperator, Value: ";", HasValue: true},
		},
	}

	opts := cmp.Options{
		cmp.Comparer(func(a, b *ast.Node) bool {
			return nodesEqualIgnoringPosition(a, b)
		}),
	}
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

// nodesEqualIgnoringPosition compares two AST trees by type/value/children
// only, ignoring Line/Column/Span — those are exercised separately in
// TestParsePopulatesSpan.
func nodesEqualIgnoringPosition(a, b *ast.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Value != b.Value || a.HasValue != b.HasValue {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !nodesEqualIgnoringPosition(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func TestParsePopulatesSpan(t *testing.T) {
	g := buildArithmeticGrammar(t)
	got, err := Parse(context.Background(), g, "x = 1 + 2;")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ident := got.Children[0]
	if ident.Span != "x" {
		t.Errorf("ident span = %q, want %q", ident.Span, "x")
	}
	if ident.Line != 1 || ident.Column != 1 {
		t.Errorf("ident position = %d:%d, want 1:1", ident.Line, ident.Column)
	}
}

func TestParseReportsFurthestPosition(t *testing.T) {
	g := buildArithmeticGrammar(t)
	_, err := Parse(context.Background(), g, "x = 1 + ;")

	var srcErr *errs.Source
	if !asSourceError(err, &srcErr) {
		t.Fatalf("Parse error = %v, want *errs.Source", err)
	}
	// The furthest position reached is just after "1 + ", where the second
	// NUMBER of expr was attempted and failed.
	if srcErr.FurthestPosition != 8 {
		t.Errorf("FurthestPosition = %d, want 8", srcErr.FurthestPosition)
	}
	if srcErr.DeepestRule != "expr" {
		t.Errorf("DeepestRule = %q, want %q", srcErr.DeepestRule, "expr")
	}
}

func asSourceError(err error, target **errs.Source) bool {
	se, ok := err.(*errs.Source)
	if !ok {
		return false
	}
	*target = se
	return true
}

func TestParseRejectsPartialMatchAsFurthestFailure(t *testing.T) {
	g := buildArithmeticGrammar(t)
	_, err := Parse(context.Background(), g, "x = 1 + 2; garbage")
	if err == nil {
		t.Fatal("Parse succeeded, want error for trailing garbage")
	}
}

func TestParseStringLiteralSpanEqualsValue(t *testing.T) {
	g := peg.NewGrammar("strings")
	g.AddRule(peg.Rule{Name: "lit", Root: peg.RuleRef{Name: peg.String}})
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := Parse(context.Background(), g, `"hello"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	leaf := got.Children[0]
	if leaf.Value != "hello" {
		t.Fatalf("Value = %q, want %q", leaf.Value, "hello")
	}
	if leaf.Span != leaf.Value {
		t.Errorf("Span = %q, want equal to Value %q", leaf.Span, leaf.Value)
	}
}
