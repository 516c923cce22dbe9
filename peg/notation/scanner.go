// Package notation implements the PEG-notation-text-to-Grammar parser
// described in spec.md §4.A. Unlike the teacher's own peg package, which
// bootstraps its notation reader using the peg engine it defines (a
// generated parser parsing its own grammar file), this package is a
// hand-written recursive-descent scanner/parser pair in the style of
// waywardgeek-runic's Lexer: byte-offset position tracking with an
// explicit line counter, so that a malformed grammar can be reported with
// a precise 1-based line and column (spec.md §4.A's "Contract") without
// needing the packrat engine itself to already exist.
package notation

// tokenKind tags a scanned token.
type tokenKind int

const (
	tokIdent tokenKind = iota
	tokString
	tokArrow // "<-"
	tokSlash
	tokStar
	tokPlus
	tokQuestion
	tokAmp
	tokBang
	tokLParen
	tokRParen
	tokNewline
	tokEOF
)

type token struct {
	kind   tokenKind
	text   string // identifier name or literal's decoded content
	line   int
	column int
}

// scanner turns PEG notation source text into a flat token stream.
// Whitespace within a line is insignificant (spec.md §4.A, "Key
// policies"); a newline is itself a significant token because it
// terminates a rule.
type scanner struct {
	src    string
	pos    int
	line   int
	column int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, line: 1, column: 1}
}

func (s *scanner) peekByte() (byte, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return c
}

// skipInsignificant skips spaces, tabs, and carriage returns — every
// blank byte except '\n', which is its own token.
func (s *scanner) skipInsignificant() {
	for {
		c, ok := s.peekByte()
		if !ok {
			return
		}
		switch c {
		case ' ', '\t', '\r':
			s.advance()
		default:
			return
		}
	}
}

// next scans and returns the next token.
func (s *scanner) next() (token, error) {
	s.skipInsignificant()

	line, column := s.line, s.column
	c, ok := s.peekByte()
	if !ok {
		return token{kind: tokEOF, line: line, column: column}, nil
	}

	switch c {
	case '\n':
		s.advance()
		return token{kind: tokNewline, line: line, column: column}, nil
	case '/':
		s.advance()
		return token{kind: tokSlash, line: line, column: column}, nil
	case '*':
		s.advance()
		return token{kind: tokStar, line: line, column: column}, nil
	case '+':
		s.advance()
		return token{kind: tokPlus, line: line, column: column}, nil
	case '?':
		s.advance()
		return token{kind: tokQuestion, line: line, column: column}, nil
	case '&':
		s.advance()
		return token{kind: tokAmp, line: line, column: column}, nil
	case '!':
		s.advance()
		return token{kind: tokBang, line: line, column: column}, nil
	case '(':
		s.advance()
		return token{kind: tokLParen, line: line, column: column}, nil
	case ')':
		s.advance()
		return token{kind: tokRParen, line: line, column: column}, nil
	case '<':
		return s.scanArrow(line, column)
	case '"', '\'':
		return s.scanString(line, column)
	default:
		if isIdentStart(c) {
			return s.scanIdent(line, column), nil
		}
		return token{}, notationErrorf(line, column, "unexpected character %q", c)
	}
}

func (s *scanner) scanArrow(line, column int) (token, error) {
	s.advance() // consume '<'
	c, ok := s.peekByte()
	if !ok || c != '-' {
		return token{}, notationErrorf(line, column, `expected "<-"`)
	}
	s.advance()
	return token{kind: tokArrow, line: line, column: column}, nil
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (s *scanner) scanIdent(line, column int) token {
	start := s.pos
	for {
		c, ok := s.peekByte()
		if !ok || !isIdentCont(c) {
			break
		}
		s.advance()
	}
	return token{kind: tokIdent, text: s.src[start:s.pos], line: line, column: column}
}

// scanString scans a quoted literal and decodes its escape sequences,
// per spec.md §4.A's "Key policies": \", \', \\, \n, \t, \r have their
// C-style meanings; any other backslash sequence is an error.
func (s *scanner) scanString(line, column int) (token, error) {
	quote := s.advance()
	var text []byte
	for {
		c, ok := s.peekByte()
		if !ok {
			return token{}, notationErrorf(line, column, "unterminated string literal")
		}
		if c == quote {
			s.advance()
			break
		}
		if c == '\n' {
			return token{}, notationErrorf(line, column, "unterminated string literal")
		}
		if c == '\\' {
			escLine, escCol := s.line, s.column
			s.advance()
			ec, ok := s.peekByte()
			if !ok {
				return token{}, notationErrorf(escLine, escCol, "unterminated escape sequence")
			}
			decoded, err := decodeEscape(ec, escLine, escCol)
			if err != nil {
				return token{}, err
			}
			s.advance()
			text = append(text, decoded)
			continue
		}
		text = append(text, c)
		s.advance()
	}
	return token{kind: tokString, text: string(text), line: line, column: column}, nil
}

func decodeEscape(c byte, line, column int) (byte, error) {
	switch c {
	case '"':
		return '"', nil
	case '\'':
		return '\'', nil
	case '\\':
		return '\\', nil
	case 'n':
		return '\n', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	default:
		return 0, notationErrorf(line, column, `invalid escape sequence "\%c"`, c)
	}
}
