// Package incremental implements the edit-driven reparse loop described
// in spec.md §4.C. No teacher file does anything like this — the
// teacher's own peg.Parser is stateless per call — so this package is
// built directly from the specification's invalidation policy, reusing
// packrat.Memo (the memo table packrat already exposes) as the thing
// that is narrowed and carried forward between edits, rather than
// introducing a second, parallel cache representation.
package incremental

import (
	"context"

	"parsercraft/ast"
	"parsercraft/internal/errs"
	"parsercraft/internal/telemetry"
	"parsercraft/packrat"
	"parsercraft/peg"
)

var log = telemetry.New("incremental.apply_edit")

// Parser holds the (grammar, source, ast, memo) state spec.md §4.C
// names. The zero value is not usable; construct one with New.
type Parser struct {
	grammar *peg.Grammar
	source  string
	ast     *ast.Node
	memo    *packrat.Memo
}

// New returns a Parser bound to grammar. Call Parse to establish an
// initial source and AST before using ApplyEdit.
func New(grammar *peg.Grammar) *Parser {
	return &Parser{grammar: grammar}
}

// Source returns the parser's current source text.
func (p *Parser) Source() string { return p.source }

// AST returns the parser's most recently successful AST. On a failed
// ApplyEdit, this is the AST from before the failing edit (spec.md §7:
// "the incremental parser on edit-induced failure keeps the most recent
// successful AST and surfaces the failure without discarding state").
func (p *Parser) AST() *ast.Node { return p.ast }

// Parse performs a full parse of source, replacing the parser's source,
// AST, and memo table entirely (spec.md §4.C, operation "parse").
func (p *Parser) Parse(ctx context.Context, source string) (*ast.Node, error) {
	node, memo, err := packrat.ParseWithMemo(ctx, p.grammar, source, nil)
	if err != nil {
		return nil, err
	}
	p.source = source
	p.ast = node
	p.memo = memo
	return node, nil
}

// ApplyEdit replaces the byte range [start, end) of the current source
// with newText and re-parses, reusing memo entries the edit could not
// have touched (spec.md §4.C, operation "apply_edit").
//
// This implements the "simplifying policy" spec.md §4.C explicitly
// permits in place of position-shifting: entries whose matched span
// could overlap [start, end) are discarded via packrat.Memo.Discard, and
// everything else — crucially, including entries that start well before
// start but end before it too — is reused unchanged, because those bytes
// never moved. Discard also drops every entry recorded at or after
// start, so nothing beyond the edit is carried over: those entries are
// recomputed against their new (shifted) byte offsets. Reuse is therefore
// reduced relative to an
// implementation that explicitly shifts and re-keys the tail, but
// correctness is identical, per spec.md §4.C's own description of this
// tradeoff.
func (p *Parser) ApplyEdit(ctx context.Context, start, end int, newText string) (*ast.Node, error) {
	if start < 0 || end < start || end > len(p.source) {
		return nil, errs.NewSource(0, 0, 0, "", "invalid edit range [%d, %d) for source of length %d", start, end, len(p.source))
	}

	newSource := p.source[:start] + newText + p.source[end:]
	seed := p.memo.Discard(start)

	before := p.memo.Len()
	node, memo, err := packrat.ParseWithMemo(ctx, p.grammar, newSource, seed)
	if err != nil {
		// Keep the most recent successful AST and source; only report
		// the failure (spec.md §7).
		log.Warn(ctx, "edit produced a parse failure, keeping prior AST",
			telemetry.String("error", err.Error()))
		return nil, err
	}

	log.Info(ctx, "applied edit",
		telemetry.Int("reused_entries", seed.Len()),
		telemetry.Int("prior_entries", before),
		telemetry.Int("new_entries", memo.Len()))

	p.source = newSource
	p.ast = node
	p.memo = memo
	return node, nil
}
