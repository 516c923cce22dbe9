package wat_test

import (
	"strings"
	"testing"

	"parsercraft/ast"
	"parsercraft/backend/wat"
)

func ident(name string) *ast.Node   { return &ast.Node{Type: ast.TypeIdentifier, Value: name, HasValue: true} }
func number(v string) *ast.Node     { return &ast.Node{Type: ast.TypeNumber, Value: v, HasValue: true} }
func op(s string) *ast.Node         { return &ast.Node{Type: ast.TypeOperator, Value: s, HasValue: true} }

func assignStmt(name, value string) *ast.Node {
	return &ast.Node{Type: "statement", Children: []*ast.Node{
		ident(name), op("="), number(value), op(";"),
	}}
}

func TestTranslateEmitsModuleShapeAndLocals(t *testing.T) {
	root := &ast.Node{Type: "program", Children: []*ast.Node{assignStmt("x", "2")}}
	b := wat.New()
	out, err := b.Translate(root)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	for _, want := range []string{"(module", "(memory 256)", "(func $main", "(local $x i32)", "(local.set $x (i32.const 2))"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTranslateLowersArithmeticChain(t *testing.T) {
	expr := &ast.Node{Type: "expr", Children: []*ast.Node{
		number("2"), op("+"), number("3"), op("*"), number("4"),
	}}
	stmt := &ast.Node{Type: "statement", Children: []*ast.Node{
		ident("x"), op("="), expr, op(";"),
	}}
	root := &ast.Node{Type: "program", Children: []*ast.Node{stmt}}

	b := wat.New()
	out, err := b.Translate(root)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	// Left-folded: ((2 + 3) * 4).
	want := "(i32.mul (i32.add (i32.const 2) (i32.const 3)) (i32.const 4))"
	if !strings.Contains(out, want) {
		t.Errorf("output missing left-folded arithmetic %q:\n%s", want, out)
	}
}

func TestTranslateRejectsNilAST(t *testing.T) {
	b := wat.New()
	if _, err := b.Translate(nil); err == nil {
		t.Fatal("Translate(nil) succeeded, want error")
	}
}

func TestNameIsWat(t *testing.T) {
	if wat.New().Name() != "wat" {
		t.Errorf("Name() = %q, want wat", wat.New().Name())
	}
}
