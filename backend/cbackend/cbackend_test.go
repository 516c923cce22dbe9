package cbackend_test

import (
	"strings"
	"testing"

	"parsercraft/ast"
	"parsercraft/backend/cbackend"
)

func ident(name string) *ast.Node { return &ast.Node{Type: ast.TypeIdentifier, Value: name, HasValue: true} }
func number(v string) *ast.Node   { return &ast.Node{Type: ast.TypeNumber, Value: v, HasValue: true} }
func str(v string) *ast.Node      { return &ast.Node{Type: ast.TypeString, Value: v, HasValue: true} }
func op(s string) *ast.Node       { return &ast.Node{Type: ast.TypeOperator, Value: s, HasValue: true} }

func TestTranslateDeclaresOnFirstAssignmentOnly(t *testing.T) {
	stmt1 := &ast.Node{Type: "statement", Children: []*ast.Node{ident("x"), op("="), number("1"), op(";")}}
	stmt2 := &ast.Node{Type: "statement", Children: []*ast.Node{ident("x"), op("="), number("2"), op(";")}}
	root := &ast.Node{Type: "program", Children: []*ast.Node{stmt1, stmt2}}

	out, err := cbackend.New().Translate(root)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(out, "int x = 1;") {
		t.Errorf("first assignment not declared, got:\n%s", out)
	}
	if !strings.Contains(out, "x = 2;") || strings.Contains(out, "int x = 2;") {
		t.Errorf("second assignment to x should not redeclare, got:\n%s", out)
	}
}

func TestTranslatePrintCallInfersFormatSpecifiers(t *testing.T) {
	call := &ast.Node{Type: "statement", Children: []*ast.Node{
		ident("print"), op("("), number("3"), op(","), str("hi"), op(")"), op(";"),
	}}
	root := &ast.Node{Type: "program", Children: []*ast.Node{call}}

	out, err := cbackend.New().Translate(root)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !strings.Contains(out, `printf("%d %s\n", 3, "hi");`) {
		t.Errorf("printf call not emitted as expected, got:\n%s", out)
	}
}

func TestTranslateRejectsUnsupportedCall(t *testing.T) {
	call := &ast.Node{Type: "statement", Children: []*ast.Node{
		ident("vanish"), op("("), op(")"), op(";"),
	}}
	root := &ast.Node{Type: "program", Children: []*ast.Node{call}}
	if _, err := cbackend.New().Translate(root); err == nil {
		t.Fatal("Translate succeeded on an unsupported call, want a backend error")
	}
}

func TestTranslateRejectsNilAST(t *testing.T) {
	if _, err := cbackend.New().Translate(nil); err == nil {
		t.Fatal("Translate(nil) succeeded, want error")
	}
}

func TestNameIsC(t *testing.T) {
	if cbackend.New().Name() != "c" {
		t.Errorf("Name() = %q, want c", cbackend.New().Name())
	}
}
