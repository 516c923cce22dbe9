package notation

import (
	"context"
	"testing"

	"parsercraft/peg"
)

func TestParseArithmeticGrammar(t *testing.T) {
	src := "program   <- statement+\n" +
		"statement <- IDENT \"=\" expr \";\"\n" +
		"expr      <- term ((\"+\" / \"-\") term)*\n" +
		"term      <- factor ((\"*\" / \"/\") factor)*\n" +
		"factor    <- NUMBER / \"(\" expr \")\"\n"

	g, err := Parse("arithmetic", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if g.StartRule != "program" {
		t.Errorf("StartRule = %q, want %q", g.StartRule, "program")
	}
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, name := range []string{"program", "statement", "expr", "term", "factor"} {
		if g.Rule(name) == nil {
			t.Errorf("missing rule %q", name)
		}
	}
}

func TestParseEmptyRuleBody(t *testing.T) {
	g, err := Parse("g", "nothing <-\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	r := g.Rule("nothing")
	if r == nil {
		t.Fatal("rule \"nothing\" not found")
	}
	if r.Root != nil {
		t.Errorf("Root = %v, want nil", r.Root)
	}
}

func TestParseQuantifierWithoutOperandFails(t *testing.T) {
	_, err := Parse("g", "r <- *\n")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}
}

func TestParsePredicateWithoutOperandFails(t *testing.T) {
	_, err := Parse("g", "r <- !\n")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}
}

func TestParseUnclosedGroupFails(t *testing.T) {
	_, err := Parse("g", "r <- (a\n")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}
}

func TestParseEscapeSequences(t *testing.T) {
	g, err := Parse("g", `r <- "a\nb\t\"c\""`+"\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lit, ok := g.Rule("r").Root.(peg.Literal)
	if !ok {
		t.Fatalf("Root = %#v, want peg.Literal", g.Rule("r").Root)
	}
	want := "a\nb\t\"c\""
	if lit.Text != want {
		t.Errorf("Text = %q, want %q", lit.Text, want)
	}
}

func TestParseInvalidEscapeFails(t *testing.T) {
	_, err := Parse("g", `r <- "a\zb"`+"\n")
	if err == nil {
		t.Fatal("Parse succeeded, want error")
	}
}

func TestParseLeftRecursionRejectedAtBuild(t *testing.T) {
	g, err := Parse("g", "expr <- expr \"+\" term / term\nterm <- NUMBER\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := g.Build(context.Background()); err == nil {
		t.Fatal("Build succeeded, want left-recursion error")
	}
}

func TestParseRoundTripsThroughFormat(t *testing.T) {
	src := "r <- \"a\" \"b\"\n"
	g, err := Parse("g", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := g.Rule("r").Root.String(), `"a" "b"`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
