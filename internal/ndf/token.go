// Package ndf reads and writes NDF game-data files without losing a byte of
// anything that was not modified.
package ndf

import "fmt"

// TokenKind classifies a lexeme.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokString
	TokNumber
	TokTemplateRef
	TokResourceRef
	TokGuid
	TokEnum
	TokLParen
	TokRParen
	TokLBracket
	TokRBracket
	TokLBrace
	TokRBrace
	TokComma
	TokAssign
	TokOperator
	// TokOpaque is a run of bytes the grammar does not know, such as `#`
	// or `;`. Values containing one are kept as raw text.
	TokOpaque
)

var tokenNames = [...]string{
	TokEOF:         "end of file",
	TokIdent:       "identifier",
	TokString:      "string",
	TokNumber:      "number",
	TokTemplateRef: "template reference",
	TokResourceRef: "resource reference",
	TokGuid:        "GUID",
	TokEnum:        "enum",
	TokLParen:      "'('",
	TokRParen:      "')'",
	TokLBracket:    "'['",
	TokRBracket:    "']'",
	TokLBrace:      "'{'",
	TokRBrace:      "'}'",
	TokComma:       "','",
	TokAssign:      "'='",
	TokOperator:    "operator",
	TokOpaque:      "opaque text",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}

	return fmt.Sprintf("token(%d)", int(k))
}

// Token is one lexeme plus the trivia (whitespace and comments) that
// precedes it.
type Token struct {
	Kind    TokenKind
	Text    string
	Leading string
	// Offset is the byte offset of Text in the source.
	Offset int
	Line   int
	Column int
	// Quote is the delimiter of a string token.
	Quote byte
	// Integer is set for number tokens without a fraction or exponent.
	Integer bool
}

// End returns the byte offset just past the lexeme.
func (t Token) End() int {
	return t.Offset + len(t.Text)
}

func (t Token) is(kind TokenKind, text string) bool {
	return t.Kind == kind && t.Text == text
}
