// Package packrat implements the memoized recursive-descent PEG
// evaluator described in spec.md §4.B: it matches a compiled peg.Grammar
// against a source string and produces either the root ast.Node or a
// structured parse error carrying the furthest position reached.
//
// The recursive-descent shape — a Scan-like function per expression kind,
// an explicit State carrying position and a memo table — is grounded on
// the teacher's golang.org/x/exp/peg package (State, the NotMatched
// sentinel for ordered-choice backtracking). What the teacher's package
// lacks and spec.md §4.B/§9 require is added here: per-(rule-id,position)
// memoization, the three built-in token matchers, literal-to-Operator
// elevation, and furthest-position error reporting.
package packrat

import (
	"context"
	"regexp"

	"parsercraft/ast"
	"parsercraft/internal/errs"
	"parsercraft/internal/telemetry"
	"parsercraft/peg"
)

var log = telemetry.New("packrat.parse")

// Parse matches grammar's start rule against source and returns the root
// AST node, whose node type equals the start rule's name (spec.md §8,
// property 1). grammar must already have had Build called on it. Each
// call starts with an empty memo table (spec.md §3, "Lifecycle"); callers
// that want memo reuse across edits use ParseWithMemo via the
// incremental package instead.
func Parse(ctx context.Context, grammar *peg.Grammar, source string) (*ast.Node, error) {
	node, _, err := ParseWithMemo(ctx, grammar, source, nil)
	return node, err
}

// Memo is the packrat interpreter's memoization table, keyed by
// (rule-id, position) as spec.md §9 requires. It is opaque outside this
// package; the incremental package holds one across edits and narrows it
// with Discard before feeding it back into ParseWithMemo, implementing
// the "simplifying" invalidation policy spec.md §4.C permits: any entry
// whose matched span could have been touched by an edit is dropped, and
// everything else is reused as-is, since byte offsets left of an edit's
// start never change.
type Memo struct {
	entries map[memoKey]memoCell
}

// NewMemo returns an empty Memo, equivalent to the table Parse starts
// each call with.
func NewMemo() *Memo {
	return &Memo{entries: make(map[memoKey]memoCell)}
}

// Len reports how many entries are currently cached.
func (m *Memo) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Discard returns a new Memo containing only the successful entries of m
// whose matched span ends strictly before boundary — i.e. entries
// entirely to the left of an edit starting at boundary — and the cached
// failures recorded at positions before boundary. This is sound per spec.md
// §4.C's invalidation policy: an entry kept here neither starts inside
// nor touches the edited region, so its cached result is unaffected by
// any edit at or after boundary, regardless of how far its own start
// position might be to the left of it. An entry whose span ends exactly
// at boundary is dropped too: an insertion at boundary (the common
// append-at-end case) extends immediately past that span, so the cached
// match can no longer be assumed complete.
func (m *Memo) Discard(boundary int) *Memo {
	out := NewMemo()
	if m == nil {
		return out
	}
	for k, v := range m.entries {
		if v.ok && v.endPos >= boundary {
			continue
		}
		if !v.ok && k.pos >= boundary {
			// A cached failure recorded at or after the edit boundary
			// could now succeed against the new text; it must be dropped
			// too, even though a failed match has no span of its own.
			continue
		}
		out.entries[k] = v
	}
	return out
}

// ParseWithMemo is Parse, seeded with a pre-populated Memo (nil means
// start empty) and returning the Memo produced by this parse so a caller
// can carry it forward. This is the primitive the incremental package
// builds ApplyEdit on.
func ParseWithMemo(ctx context.Context, grammar *peg.Grammar, source string, seed *Memo) (*ast.Node, *Memo, error) {
	st := newState(grammar, source, seed)

	startID, ok := grammar.RuleID(grammar.StartRule)
	if !ok {
		return nil, nil, errs.NewGrammar(0, 0, "start rule %q not found", grammar.StartRule)
	}

	frags, endPos, ok := st.evalRule(startID, 0)
	if !ok || endPos < len(source) {
		// Either the start rule failed outright, or it matched only a
		// prefix of the source — in both cases §8 property 9 and §4.B
		// require reporting the furthest position reached.
		line, col := st.lines.LineColumn(st.furthestPos)
		return nil, nil, errs.NewSource(line, col, st.furthestPos, st.furthestRule,
			"parse failed: could not match %q fully", grammar.StartRule)
	}
	if len(frags) != 1 {
		return nil, nil, errs.NewSource(1, 1, 0, grammar.StartRule, "start rule produced no node")
	}
	log.Info(ctx, "parse succeeded", telemetry.Int("memo_entries", len(st.memo)))
	return frags[0].node, &Memo{entries: st.memo}, nil
}

// frag is one AST fragment produced while evaluating an expression,
// together with the byte-offset span it covers. Predicates and quantifier
// "no match" iterations produce no frag at all — only the types spec.md
// §4.B's "AST construction for composite rules" names as contributing
// children do.
type frag struct {
	node  *ast.Node
	start int
	end   int
}

type memoKey struct {
	ruleID int
	pos    int
}

type memoCell struct {
	ok     bool
	frag   frag
	endPos int
}

// state is the packrat interpreter's transient, single-parse state
// (spec.md §3, "Lifecycle": memo tables are reset on every non-incremental
// parse call). It is never shared across parses.
type state struct {
	grammar *peg.Grammar
	source  string
	lines   *lineIndex

	memo map[memoKey]memoCell

	furthestPos  int
	furthestRule string

	ruleStack []string // for "deepest rule attempted" reporting
}

func newState(grammar *peg.Grammar, source string, seed *Memo) *state {
	memo := make(map[memoKey]memoCell)
	if seed != nil {
		for k, v := range seed.entries {
			memo[k] = v
		}
	}
	return &state{
		grammar: grammar,
		source:  source,
		lines:   newLineIndex(source),
		memo:    memo,
	}
}

func (st *state) currentRuleName() string {
	if len(st.ruleStack) == 0 {
		return ""
	}
	return st.ruleStack[len(st.ruleStack)-1]
}

// noteAttempt records an attempted match position for furthest-position
// error reporting. Ties are broken by last-attempted, per spec.md §4.B.
func (st *state) noteAttempt(pos int) {
	if pos >= st.furthestPos {
		st.furthestPos = pos
		st.furthestRule = st.currentRuleName()
	}
}

// evalRule evaluates the rule identified by ruleID at pos, consulting and
// populating the memo table (spec.md §4.B, §9).
func (st *state) evalRule(ruleID int, pos int) ([]frag, int, bool) {
	key := memoKey{ruleID, pos}
	if cell, hit := st.memo[key]; hit {
		if !cell.ok {
			return nil, pos, false
		}
		return []frag{cell.frag}, cell.endPos, true
	}

	rule := &st.grammar.Rules()[ruleID]
	st.ruleStack = append(st.ruleStack, rule.Name)
	children, endPos, ok := st.eval(rule.Root, pos)
	st.ruleStack = st.ruleStack[:len(st.ruleStack)-1]

	if !ok {
		st.memo[key] = memoCell{ok: false}
		return nil, pos, false
	}

	node := &ast.Node{
		Type:     rule.Name,
		Children: fragNodes(children),
	}
	attachSpan(node, st.source, st.lines, spanStart(children, pos), endPos)

	f := frag{node: node, start: spanStart(children, pos), end: endPos}
	st.memo[key] = memoCell{ok: true, frag: f, endPos: endPos}
	return []frag{f}, endPos, true
}

func fragNodes(frags []frag) []*ast.Node {
	if len(frags) == 0 {
		return nil
	}
	out := make([]*ast.Node, len(frags))
	for i, f := range frags {
		out[i] = f.node
	}
	return out
}

func spanStart(children []frag, fallback int) int {
	if len(children) == 0 {
		return fallback
	}
	return children[0].start
}

func attachSpan(node *ast.Node, source string, lines *lineIndex, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(source) {
		end = len(source)
	}
	if start > end {
		start = end
	}
	node.Line, node.Column = lines.LineColumn(start)
	node.Span = source[start:end]
}

// eval evaluates an arbitrary expression e at pos, dispatching on its
// concrete type the way the teacher's per-node Scan methods do.
func (st *state) eval(e peg.Expr, pos int) ([]frag, int, bool) {
	switch e := e.(type) {
	case peg.Literal:
		return st.evalLiteral(e, pos)
	case peg.RuleRef:
		return st.evalRuleRef(e, pos)
	case peg.Sequence:
		return st.evalSequence(e, pos)
	case peg.Choice:
		return st.evalChoice(e, pos)
	case peg.ZeroOrMore:
		return st.evalZeroOrMore(e, pos)
	case peg.OneOrMore:
		return st.evalOneOrMore(e, pos)
	case peg.Optional:
		return st.evalOptional(e, pos)
	case peg.AndPredicate:
		return st.evalAndPredicate(e, pos)
	case peg.NotPredicate:
		return st.evalNotPredicate(e, pos)
	case nil:
		// An empty rule body always fails (spec.md §4.A: "Accepts empty
		// rule bodies; such rules always fail at parse time").
		st.noteAttempt(pos)
		return nil, pos, false
	default:
		panic("packrat: unknown peg.Expr type")
	}
}

func (st *state) evalRuleRef(e peg.RuleRef, pos int) ([]frag, int, bool) {
	if peg.IsBuiltin(e.Name) {
		return st.evalBuiltin(e.Name, pos)
	}
	ruleID, ok := st.grammar.RuleID(e.Name)
	if !ok {
		// Grammar.Build already validated this; unreachable in practice.
		st.noteAttempt(pos)
		return nil, pos, false
	}
	return st.evalRule(ruleID, pos)
}

func (st *state) evalSequence(e peg.Sequence, pos int) ([]frag, int, bool) {
	var all []frag
	cur := pos
	for _, child := range e.Items {
		frags, next, ok := st.eval(child, cur)
		if !ok {
			// PEG sequence semantics: any failure aborts the whole
			// sequence at that position, no partial commit (spec.md §4.B).
			return nil, pos, false
		}
		all = append(all, frags...)
		cur = next
	}
	return all, cur, true
}

func (st *state) evalChoice(e peg.Choice, pos int) ([]frag, int, bool) {
	for _, child := range e.Items {
		frags, next, ok := st.eval(child, pos)
		if ok {
			return frags, next, true
		}
	}
	return nil, pos, false
}

func (st *state) evalZeroOrMore(e peg.ZeroOrMore, pos int) ([]frag, int, bool) {
	var all []frag
	cur := pos
	for {
		frags, next, ok := st.eval(e.Inner, cur)
		if !ok {
			break
		}
		if next == cur {
			// A zero-width success must not loop forever (spec.md §4.B,
			// §9): treat it as a single-iteration termination.
			all = append(all, frags...)
			cur = next
			break
		}
		all = append(all, frags...)
		cur = next
	}
	return all, cur, true
}

func (st *state) evalOneOrMore(e peg.OneOrMore, pos int) ([]frag, int, bool) {
	first, next, ok := st.eval(e.Inner, pos)
	if !ok {
		return nil, pos, false
	}
	rest, final, _ := st.evalZeroOrMore(peg.ZeroOrMore{Inner: e.Inner}, next)
	return append(append([]frag{}, first...), rest...), final, true
}

func (st *state) evalOptional(e peg.Optional, pos int) ([]frag, int, bool) {
	frags, next, ok := st.eval(e.Inner, pos)
	if !ok {
		return nil, pos, true
	}
	return frags, next, true
}

func (st *state) evalAndPredicate(e peg.AndPredicate, pos int) ([]frag, int, bool) {
	_, _, ok := st.eval(e.Inner, pos)
	// Predicates are zero-width and contribute nothing to the AST
	// (spec.md §4.B).
	return nil, pos, ok
}

func (st *state) evalNotPredicate(e peg.NotPredicate, pos int) ([]frag, int, bool) {
	_, _, ok := st.eval(e.Inner, pos)
	return nil, pos, !ok
}

func (st *state) evalLiteral(e peg.Literal, pos int) ([]frag, int, bool) {
	afterWS := skipWhitespace(st.source, pos)
	st.noteAttempt(afterWS)
	if !hasPrefixAt(st.source, afterWS, e.Text) {
		return nil, pos, false
	}
	end := afterWS + len(e.Text)
	if !isPunctuation(e.Text) {
		// Keyword/syntax literals that are not punctuation contribute no
		// AST node of their own (spec.md §4.B: only punctuation literals
		// are elevated to Operator leaves).
		return nil, end, true
	}
	node := &ast.Node{Type: ast.TypeOperator, Value: e.Text, HasValue: true}
	attachSpan(node, st.source, st.lines, afterWS, end)
	return []frag{{node: node, start: afterWS, end: end}}, end, true
}

var (
	numberRE = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?`)
	identRE  = regexp.MustCompile(`^[A-Za-z_][A-Za-z_0-9]*`)
	stringRE = regexp.MustCompile(`^(?:"((?:[^"\\]|\\.)*)"|'((?:[^'\\]|\\.)*)')`)
)

func (st *state) evalBuiltin(name string, pos int) ([]frag, int, bool) {
	afterWS := skipWhitespace(st.source, pos)
	st.noteAttempt(afterWS)
	rest := st.source[afterWS:]

	switch name {
	case peg.Number:
		loc := numberRE.FindStringIndex(rest)
		if loc == nil {
			return nil, pos, false
		}
		text := rest[loc[0]:loc[1]]
		return st.builtinLeaf(ast.TypeNumber, text, afterWS, afterWS+loc[1])
	case peg.Identifier:
		loc := identRE.FindStringIndex(rest)
		if loc == nil {
			return nil, pos, false
		}
		text := rest[loc[0]:loc[1]]
		return st.builtinLeaf(ast.TypeIdentifier, text, afterWS, afterWS+loc[1])
	case peg.String:
		m := stringRE.FindStringSubmatchIndex(rest)
		if m == nil {
			return nil, pos, false
		}
		fullEnd := afterWS + m[1]
		var content string
		switch {
		case m[2] >= 0:
			content = rest[m[2]:m[3]]
		case m[4] >= 0:
			content = rest[m[4]:m[5]]
		}
		// Per spec.md §3/§9 ("Open questions"): escape sequences inside
		// STRING are not interpreted; value is the raw content between
		// delimiters. Span is set equal to Value (not the quoted text)
		// so that §8 property 3 (value is a substring of source equal to
		// span) holds uniformly for every terminal node, including
		// quoted strings.
		var contentStart int
		if m[2] >= 0 {
			contentStart = afterWS + m[2]
		} else {
			contentStart = afterWS + m[4]
		}
		node := &ast.Node{Type: ast.TypeString, Value: content, HasValue: true}
		attachSpan(node, st.source, st.lines, contentStart, contentStart+len(content))
		return []frag{{node: node, start: afterWS, end: fullEnd}}, fullEnd, true
	default:
		panic("packrat: unknown built-in " + name)
	}
}

func (st *state) builtinLeaf(nodeType, value string, start, end int) ([]frag, int, bool) {
	node := &ast.Node{Type: nodeType, Value: value, HasValue: true}
	attachSpan(node, st.source, st.lines, start, end)
	return []frag{{node: node, start: start, end: end}}, end, true
}

func skipWhitespace(source string, pos int) int {
	for pos < len(source) {
		switch source[pos] {
		case ' ', '\t', '\r', '\n':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func hasPrefixAt(source string, pos int, prefix string) bool {
	if pos+len(prefix) > len(source) {
		return false
	}
	return source[pos:pos+len(prefix)] == prefix
}

// isPunctuation reports whether s is composed entirely of ASCII
// punctuation/symbol characters (and is non-empty) — the rule spec.md
// §4.B uses to decide which literals are elevated to Operator leaves.
func isPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return false
		}
		if r <= ' ' {
			return false
		}
	}
	return true
}
