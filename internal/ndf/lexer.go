package ndf

import (
	"bytes"
	"strings"
)

// byteOrderMark is the UTF-8 BOM some editors prepend to NDF files.
var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// delimiters end an opaque run.
const delimiters = "()[]{},='\"+-*/|%<>&!:?~$"

type lexer struct {
	src  []byte
	pos  int
	line int
	col  int
}

// Lex splits src into tokens. The final token is always TokEOF and carries
// any trailing trivia in Leading, so concatenating Leading+Text of every
// token reproduces src exactly.
func Lex(src []byte) ([]Token, error) {
	lx := &lexer{src: src, line: 1, col: 1}

	toks := make([]Token, 0, len(src)/4)

	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)

		if tok.Kind == TokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) peekAt(n int) byte {
	if lx.pos+n >= len(lx.src) {
		return 0
	}

	return lx.src[lx.pos+n]
}

func (lx *lexer) eof() bool {
	return lx.pos >= len(lx.src)
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.pos < len(lx.src); i++ {
		if lx.src[lx.pos] == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}

		lx.pos++
	}
}

func (lx *lexer) here(text string) Token {
	return Token{Text: text, Offset: lx.pos, Line: lx.line, Column: lx.col}
}

func (lx *lexer) next() (Token, error) {
	triviaStart := lx.pos

	if err := lx.skipTrivia(); err != nil {
		return Token{}, err
	}

	tok := lx.here("")
	tok.Leading = string(lx.src[triviaStart:lx.pos])

	if lx.eof() {
		tok.Kind = TokEOF
		return tok, nil
	}

	c := lx.src[lx.pos]

	switch {
	case isIdentStart(c):
		if err := lx.scanIdent(&tok); err != nil {
			return Token{}, err
		}
	case isDigit(c) || (c == '.' && isDigit(lx.peekAt(1))):
		lx.scanNumber(&tok)
	case c == '"' || c == '\'':
		if err := lx.scanString(&tok); err != nil {
			return Token{}, err
		}
	case c == '~' && lx.peekAt(1) == '/':
		lx.scanRef(&tok, TokTemplateRef)
	case c == '$' && lx.peekAt(1) == '/':
		lx.scanRef(&tok, TokResourceRef)
	default:
		if err := lx.scanPunct(&tok); err != nil {
			return Token{}, err
		}
	}

	tok.Text = string(lx.src[tok.Offset:lx.pos])

	return tok, nil
}

func (lx *lexer) skipTrivia() error {
	for !lx.eof() {
		c := lx.src[lx.pos]

		switch {
		case lx.pos == 0 && bytes.HasPrefix(lx.src, byteOrderMark):
			lx.pos += len(byteOrderMark)
		case isSpace(c):
			lx.advance(1)
		case c == '/' && lx.peekAt(1) == '/':
			for !lx.eof() && lx.src[lx.pos] != '\n' {
				lx.advance(1)
			}
		case c == '/' && lx.peekAt(1) == '*':
			if err := lx.skipBlock("/*", '*', '/'); err != nil {
				return err
			}
		case c == '(' && lx.peekAt(1) == '*':
			if err := lx.skipBlock("(*", '*', ')'); err != nil {
				return err
			}
		default:
			return nil
		}
	}

	return nil
}

func (lx *lexer) skipBlock(open string, a, b byte) error {
	start := lx.here(open)
	lx.advance(2)

	for !lx.eof() {
		if lx.src[lx.pos] == a && lx.peekAt(1) == b {
			lx.advance(2)
			return nil
		}

		lx.advance(1)
	}

	return errorAt(start, "unterminated comment")
}

func (lx *lexer) scanIdent(tok *Token) error {
	for !lx.eof() && isIdentChar(lx.src[lx.pos]) {
		lx.advance(1)
	}

	word := string(lx.src[tok.Offset:lx.pos])

	switch {
	case word == "GUID" && lx.peekAt(0) == ':' && lx.peekAt(1) == '{':
		lx.advance(2)

		for !lx.eof() && lx.src[lx.pos] != '}' {
			if lx.src[lx.pos] == '\n' {
				return errorAt(*tok, "unterminated GUID literal")
			}

			lx.advance(1)
		}

		if lx.eof() {
			return errorAt(*tok, "unterminated GUID literal")
		}

		lx.advance(1)
		tok.Kind = TokGuid
	case lx.peekAt(0) == '/' && isIdentStart(lx.peekAt(1)):
		lx.advance(1)

		for !lx.eof() && isIdentChar(lx.src[lx.pos]) {
			lx.advance(1)
		}

		tok.Kind = TokEnum
	default:
		tok.Kind = TokIdent
	}

	return nil
}

func (lx *lexer) scanNumber(tok *Token) {
	tok.Kind = TokNumber
	tok.Integer = true

	if lx.src[lx.pos] == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X') && isHex(lx.peekAt(2)) {
		lx.advance(2)

		for !lx.eof() && isHex(lx.src[lx.pos]) {
			lx.advance(1)
		}

		return
	}

	for !lx.eof() && isDigit(lx.src[lx.pos]) {
		lx.advance(1)
	}

	if lx.peekAt(0) == '.' && isDigit(lx.peekAt(1)) {
		tok.Integer = false

		lx.advance(1)

		for !lx.eof() && isDigit(lx.src[lx.pos]) {
			lx.advance(1)
		}
	}

	if c := lx.peekAt(0); c == 'e' || c == 'E' {
		n := 1
		if s := lx.peekAt(1); s == '+' || s == '-' {
			n = 2
		}

		if isDigit(lx.peekAt(n)) {
			tok.Integer = false

			lx.advance(n)

			for !lx.eof() && isDigit(lx.src[lx.pos]) {
				lx.advance(1)
			}
		}
	}
}

func (lx *lexer) scanString(tok *Token) error {
	quote := lx.src[lx.pos]
	tok.Kind = TokString
	tok.Quote = quote

	lx.advance(1)

	for !lx.eof() {
		c := lx.src[lx.pos]

		switch c {
		case '\\':
			lx.advance(2)
		case quote:
			lx.advance(1)
			return nil
		default:
			lx.advance(1)
		}
	}

	tok.Text = string(quote)

	return errorAt(*tok, "unterminated string literal")
}

func (lx *lexer) scanRef(tok *Token, kind TokenKind) {
	tok.Kind = kind

	lx.advance(2)

	for !lx.eof() && isPathChar(lx.src[lx.pos]) {
		lx.advance(1)
	}
}

func (lx *lexer) scanPunct(tok *Token) error {
	c := lx.src[lx.pos]

	switch c {
	case '(':
		tok.Kind = TokLParen
	case ')':
		tok.Kind = TokRParen
	case '[':
		tok.Kind = TokLBracket
	case ']':
		tok.Kind = TokRBracket
	case '{':
		tok.Kind = TokLBrace
	case '}':
		tok.Kind = TokRBrace
	case ',':
		tok.Kind = TokComma
	case '=':
		tok.Kind = TokAssign
		if lx.peekAt(1) == '=' {
			tok.Kind = TokOperator
			lx.advance(1)
		}
	case '+', '-', '*', '/', '|', '%', '<', '>', '&', '!', ':', '?':
		tok.Kind = TokOperator
	default:
		// Bytes outside the grammar are kept as one opaque run.
		tok.Kind = TokOpaque
		for lx.advance(1); !lx.eof() && isOpaque(lx.src[lx.pos]); {
			lx.advance(1)
		}

		return nil
	}

	lx.advance(1)

	return nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isOpaque(c byte) bool {
	return !isSpace(c) && !isIdentChar(c) && strings.IndexByte(delimiters, c) < 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isPathChar(c byte) bool {
	return isIdentChar(c) || c == '/'
}
