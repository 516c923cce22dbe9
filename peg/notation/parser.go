package notation

import (
	"parsercraft/internal/errs"
	"parsercraft/peg"
)

// notationErrorf builds the *errs.Grammar value this package returns for
// every malformed-input case named in spec.md §4.A's contract.
func notationErrorf(line, column int, format string, args ...interface{}) *errs.Grammar {
	return errs.NewGrammar(line, column, format, args...)
}

// Parse reads PEG notation source text and returns a compiled Grammar.
// The first rule encountered becomes the start rule (spec.md §4.A). Parse
// does not call Grammar.Build — callers do that once, after optionally
// inspecting or amending the grammar, so that left-recursion and
// reference validation happen exactly once per grammar (spec.md §4.A:
// "does not verify that referenced rules exist; that check is deferred
// to Grammar.build").
func Parse(label, src string) (*peg.Grammar, error) {
	toks, err := scanAll(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	g := peg.NewGrammar(label)

	p.skipBlankLines()
	for !p.at(tokEOF) {
		rule, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		g.AddRule(rule)
		p.skipBlankLines()
	}
	return g, nil
}

func scanAll(src string) ([]token, error) {
	s := newScanner(src)
	var toks []token
	for {
		tok, err := s.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) cur() token       { return p.toks[p.pos] }
func (p *parser) at(k tokenKind) bool { return p.cur().kind == k }

func (p *parser) advance() token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) skipBlankLines() {
	for p.at(tokNewline) {
		p.advance()
	}
}

// parseRule parses one `name <- pattern` line, including an empty
// pattern (spec.md §4.A: "Accepts empty rule bodies").
func (p *parser) parseRule() (peg.Rule, error) {
	name := p.cur()
	if name.kind != tokIdent {
		return peg.Rule{}, notationErrorf(name.line, name.column, "expected rule name, found %s", describe(name))
	}
	p.advance()

	arrow := p.cur()
	if arrow.kind != tokArrow {
		return peg.Rule{}, notationErrorf(arrow.line, arrow.column, `expected "<-" after rule name %q, found %s`, name.text, describe(arrow))
	}
	p.advance()

	if p.at(tokNewline) || p.at(tokEOF) {
		p.advance()
		return peg.Rule{Name: name.text, Root: nil}, nil
	}

	expr, err := p.parseChoice()
	if err != nil {
		return peg.Rule{}, err
	}

	if !p.at(tokNewline) && !p.at(tokEOF) {
		t := p.cur()
		return peg.Rule{}, notationErrorf(t.line, t.column, "unexpected %s after rule %q's pattern", describe(t), name.text)
	}
	p.advance()
	return peg.Rule{Name: name.text, Root: expr}, nil
}

// parseChoice implements the loosest precedence level: sequence ("/"
// sequence)*.
func (p *parser) parseChoice() (peg.Expr, error) {
	first, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	items := []peg.Expr{first}
	for p.at(tokSlash) {
		p.advance()
		next, err := p.parseSequence()
		if err != nil {
			return nil, err
		}
		items = append(items, next)
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return peg.Choice{Items: items}, nil
}

// parseSequence parses zero or more juxtaposed prefix expressions.
func (p *parser) parseSequence() (peg.Expr, error) {
	var items []peg.Expr
	for p.startsPrimary() {
		item, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	switch len(items) {
	case 0:
		// An empty sequence is reached when a pattern, a choice arm, or a
		// group starts with a token that cannot begin an expression (e.g.
		// "a / " with nothing following, "r <- *", or "()"); report it at
		// the current token rather than silently producing a no-op match.
		t := p.cur()
		return nil, notationErrorf(t.line, t.column, "expected an expression, found %s", describe(t))
	case 1:
		return items[0], nil
	default:
		return peg.Sequence{Items: items}, nil
	}
}

// startsPrimary reports whether the current token could begin a prefix
// expression — used to find the end of a sequence without consuming
// tokens.
func (p *parser) startsPrimary() bool {
	switch p.cur().kind {
	case tokIdent, tokString, tokLParen, tokAmp, tokBang:
		return true
	default:
		return false
	}
}

// parsePrefix handles the prefix predicate level: zero or one of "&"/"!"
// wrapping a postfix-quantified primary.
func (p *parser) parsePrefix() (peg.Expr, error) {
	switch p.cur().kind {
	case tokAmp:
		op := p.advance()
		inner, err := p.parsePrefixOperand(op)
		if err != nil {
			return nil, err
		}
		return peg.AndPredicate{Inner: inner}, nil
	case tokBang:
		op := p.advance()
		inner, err := p.parsePrefixOperand(op)
		if err != nil {
			return nil, err
		}
		return peg.NotPredicate{Inner: inner}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePrefixOperand(op token) (peg.Expr, error) {
	if !p.startsPrimary() {
		t := p.cur()
		return nil, notationErrorf(op.line, op.column, "predicate %s has no operand (found %s)", describe(op), describe(t))
	}
	return p.parsePostfix()
}

// parsePostfix handles the postfix quantifier level: a primary followed
// by at most one of "*"/"+"/"?".
func (p *parser) parsePostfix() (peg.Expr, error) {
	primary, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	switch p.cur().kind {
	case tokStar:
		p.advance()
		return peg.ZeroOrMore{Inner: primary}, nil
	case tokPlus:
		p.advance()
		return peg.OneOrMore{Inner: primary}, nil
	case tokQuestion:
		p.advance()
		return peg.Optional{Inner: primary}, nil
	default:
		return primary, nil
	}
}

// parsePrimary handles the strictest precedence level: a literal, a rule
// reference, or a parenthesized pattern.
func (p *parser) parsePrimary() (peg.Expr, error) {
	t := p.cur()
	switch t.kind {
	case tokString:
		p.advance()
		return peg.Literal{Text: t.text}, nil
	case tokIdent:
		p.advance()
		return peg.RuleRef{Name: t.text}, nil
	case tokLParen:
		open := p.advance()
		inner, err := p.parseChoice()
		if err != nil {
			return nil, err
		}
		if !p.at(tokRParen) {
			t := p.cur()
			return nil, notationErrorf(open.line, open.column, "unclosed group (found %s)", describe(t))
		}
		p.advance()
		return inner, nil
	default:
		return nil, notationErrorf(t.line, t.column, "expected a literal, rule reference, or group, found %s", describe(t))
	}
}

func describe(t token) string {
	switch t.kind {
	case tokIdent:
		return "identifier " + quote(t.text)
	case tokString:
		return "string literal"
	case tokArrow:
		return `"<-"`
	case tokSlash:
		return `"/"`
	case tokStar:
		return `"*"`
	case tokPlus:
		return `"+"`
	case tokQuestion:
		return `"?"`
	case tokAmp:
		return `"&"`
	case tokBang:
		return `"!"`
	case tokLParen:
		return `"("`
	case tokRParen:
		return `")"`
	case tokNewline:
		return "end of line"
	case tokEOF:
		return "end of input"
	default:
		return "unknown token"
	}
}

func quote(s string) string {
	return `"` + s + `"`
}
