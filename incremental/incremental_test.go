package incremental

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"parsercraft/packrat"
	"parsercraft/peg"
)

func buildArithmeticGrammar(t *testing.T) *peg.Grammar {
	t.Helper()
	g := peg.NewGrammar("arithmetic")
	g.AddRule(peg.Rule{
		Name: "program",
		Root: peg.OneOrMore{Inner: peg.RuleRef{Name: "statement"}},
	})
	g.AddRule(peg.Rule{
		Name: "statement",
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

// TestApplyEditMatchesFullReparse validates spec.md §8, property 6: an
// edit sequence applied through the incremental parser must produce the
// same AST as a full reparse of the final text.
func TestApplyEditMatchesFullReparse(t *testing.T) {
	g := buildArithmeticGrammar(t)
	ctx := context.Background()

	p := New(g)
	if _, err := p.Parse(ctx, "x = 1 + 2;"); err != nil {
		t.Fatalf("initial Parse: %v", err)
	}

	// Replace "1" with "10" — an edit entirely inside the "expr" rule's
	// span, well past "statement"'s leading IDENT/operator prefix.
	got, err := p.ApplyEdit(ctx, 4, 5, "10")
	if err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}

	want, err := packrat.Parse(ctx, g, "x = 10 + 2;")
	if err != nil {
		t.Fatalf("full reparse: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ApplyEdit result differs from full reparse (-want +got):\n%s", diff)
	}
}

func TestApplyEditSequenceMatchesFullReparse(t *testing.T) {
	g := buildArithmeticGrammar(t)
	ctx := context.Background()

	p := New(g)
	if _, err := p.Parse(ctx, "x = 1 + 2;"); err != nil {
		t.Fatalf("initial Parse: %v", err)
	}

	if _, err := p.ApplyEdit(ctx, 4, 5, "10"); err != nil {
		t.Fatalf("first ApplyEdit: %v", err)
	}
	// "x = 10 + 2;" -> append a second statement.
	got, err := p.ApplyEdit(ctx, len(p.Source()), len(p.Source()), " y = 3 + 4;")
	if err != nil {
		t.Fatalf("second ApplyEdit: %v", err)
	}

	want, err := packrat.Parse(ctx, g, "x = 10 + 2; y = 3 + 4;")
	if err != nil {
		t.Fatalf("full reparse: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sequence of edits differs from full reparse (-want +got):\n%s", diff)
	}
}

func TestApplyEditFailureKeepsPriorAST(t *testing.T) {
	g := buildArithmeticGrammar(t)
	ctx := context.Background()

	p := New(g)
	want, err := p.Parse(ctx, "x = 1 + 2;")
	if err != nil {
		t.Fatalf("initial Parse: %v", err)
	}

	// Corrupt the source so the edit produces an unparseable result.
	if _, err := p.ApplyEdit(ctx, 0, len(p.Source()), "not valid at all"); err == nil {
		t.Fatal("ApplyEdit succeeded, want a parse error")
	}

	if diff := cmp.Diff(want, p.AST()); diff != "" {
		t.Errorf("AST changed after a failed edit (-want +got):\n%s", diff)
	}
	if p.Source() != "x = 1 + 2;" {
		t.Errorf("Source() = %q, want unchanged original", p.Source())
	}
}
