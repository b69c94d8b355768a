package ndf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

const (
	kwIs       = "is"
	kwExport   = "export"
	kwPrivate  = "private"
	kwUnnamed  = "unnamed"
	kwTemplate = "template"
	kwMap      = "MAP"
	kwDiv      = "div"
)

type parser struct {
	src  []byte
	toks []Token
	pos  int
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*m.Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	forest, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return forest, nil
}

// Parse builds the forest of top-level units in src. A *ParseError is
// returned for malformed input; constructs that are well delimited but not
// understood are kept as RawExpr.
func Parse(src []byte) (*m.Forest, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	p := &parser{src: src, toks: toks}

	var units []*m.Unit

	for p.peek().Kind != TokEOF {
		first := p.peek()

		unit, err := p.parseStatement()
		if err != nil {
			return nil, err
		}

		unit.Leading = first.Leading
		unit.Span = m.Span{Start: first.Offset, End: p.lastEnd()}
		units = append(units, unit)
	}

	return m.NewForest(src, units, p.peek().Leading), nil
}

// ParseValue parses a single value literal such as `15`, `'abc'` or
// `[ "A", "B" ]`.
func ParseValue(text string) (m.Value, error) {
	src := []byte(text)

	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}

	if len(toks) == 1 {
		return nil, ErrEmptyValue
	}

	p := &parser{src: src, toks: toks}

	v, err := p.parseValue("")
	if err != nil {
		return nil, err
	}

	if t := p.peek(); t.Kind != TokEOF {
		return nil, errorAt(t, "unexpected %s after value", t.Kind)
	}

	return v, nil
}

func (p *parser) peek() Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}

	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokEOF {
		p.pos++
	}

	return t
}

func (p *parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}

	return p.toks[p.pos-1].End()
}

func (p *parser) expect(kind TokenKind) (Token, error) {
	t := p.peek()
	if t.Kind != kind {
		return t, errorAt(t, "expected %s, found %s", kind, t.Kind)
	}

	return p.next(), nil
}

// startsStatement reports whether the token at offset n begins a new
// top-level statement.
func (p *parser) startsStatement(n int) bool {
	t := p.peekAt(n)
	if t.Kind != TokIdent {
		return false
	}

	switch t.Text {
	case kwExport, kwPrivate, kwUnnamed, kwTemplate:
		return true
	}

	return p.peekAt(n + 1).is(TokIdent, kwIs)
}

func (p *parser) parseStatement() (*m.Unit, error) {
	t := p.peek()

	switch {
	case t.is(TokIdent, kwExport) || t.is(TokIdent, kwPrivate):
		p.next()

		if !p.peekAt(1).is(TokIdent, kwIs) {
			return nil, errorAt(p.peek(), "expected `Name is` after %s", t.Text)
		}

		return p.parseNamed(t.Text)
	case t.is(TokIdent, kwUnnamed):
		p.next()

		v, err := p.parseValue("")
		if err != nil {
			return nil, err
		}

		return &m.Unit{Modifier: kwUnnamed, Value: v}, nil
	case t.Kind == TokIdent && p.peekAt(1).is(TokIdent, kwIs):
		return p.parseNamed("")
	default:
		return p.parseRawStatement()
	}
}

func (p *parser) parseNamed(modifier string) (*m.Unit, error) {
	name, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}

	p.next() // is

	v, err := p.parseValue(name.Text)
	if err != nil {
		return nil, err
	}

	return &m.Unit{Name: name.Text, Modifier: modifier, Value: v}, nil
}

// parseRawStatement keeps an unrecognised top-level statement verbatim,
// up to the start of the next statement at bracket depth zero.
func (p *parser) parseRawStatement() (*m.Unit, error) {
	first := p.peek()

	unit := &m.Unit{}
	if first.is(TokIdent, kwTemplate) && p.peekAt(1).Kind == TokIdent {
		unit.Modifier = kwTemplate
		unit.Name = p.peekAt(1).Text
	}

	depth := 0

	for consumed := false; ; consumed = true {
		t := p.peek()
		if t.Kind == TokEOF {
			if depth > 0 {
				return nil, errorAt(first, "unbalanced delimiters in statement starting at line %d", first.Line)
			}

			break
		}

		if depth == 0 && consumed && p.startsStatement(0) {
			break
		}

		switch t.Kind {
		case TokLParen, TokLBracket, TokLBrace:
			depth++
		case TokRParen, TokRBracket, TokRBrace:
			depth--
			if depth < 0 {
				return nil, errorAt(t, "unbalanced %s", t.Kind)
			}
		}

		p.next()
	}

	unit.Value = &m.RawExpr{Text: string(p.src[first.Offset:p.lastEnd()])}

	return unit, nil
}

// parseValue parses a primary value and folds any trailing operator chain
// into a RawExpr.
func (p *parser) parseValue(instance string) (m.Value, error) {
	start := p.peek()

	v, err := p.parsePrimary(instance)
	if err != nil {
		return nil, err
	}

	if !p.atOperator() {
		return v, nil
	}

	for p.atOperator() {
		p.next()

		if _, err := p.parsePrimary(""); err != nil {
			return nil, err
		}
	}

	return &m.RawExpr{Text: string(p.src[start.Offset:p.lastEnd()])}, nil
}

// atOperator reports whether the current token continues an expression.
// An opaque run only does so when a value follows it.
func (p *parser) atOperator() bool {
	t := p.peek()
	if t.Kind == TokOpaque {
		return p.startsOperand(1)
	}

	return t.Kind == TokOperator || t.is(TokIdent, kwDiv)
}

// startsOperand reports whether the token at offset n can begin a value
// without starting the next property or statement.
func (p *parser) startsOperand(n int) bool {
	t := p.peekAt(n)

	switch t.Kind {
	case TokEOF, TokRParen, TokRBracket, TokRBrace, TokComma, TokAssign, TokOpaque:
		return false
	case TokOperator:
		return t.Text == "-" && p.peekAt(n+1).Kind == TokNumber
	case TokIdent:
		return p.peekAt(n+1).Kind != TokAssign && !p.startsStatement(n)
	default:
		return true
	}
}

//nolint:cyclop // one case per literal form
func (p *parser) parsePrimary(instance string) (m.Value, error) {
	t := p.peek()

	switch t.Kind {
	case TokString:
		p.next()
		return &m.Str{Text: t.Text[1 : len(t.Text)-1], Quote: m.QuoteStyle(t.Quote)}, nil
	case TokNumber:
		p.next()
		return numberFromToken(t, "")
	case TokOperator:
		if t.Text == "-" && p.peekAt(1).Kind == TokNumber && p.peekAt(1).Leading == "" {
			p.next()
			return numberFromToken(p.next(), "-")
		}

		return nil, errorAt(t, "unexpected operator")
	case TokTemplateRef:
		p.next()
		return &m.TemplateRef{Path: t.Text[2:]}, nil
	case TokResourceRef:
		p.next()
		return &m.ResourceRef{Path: t.Text[2:]}, nil
	case TokGuid:
		p.next()
		return &m.Guid{Text: t.Text[len("GUID:{") : len(t.Text)-1]}, nil
	case TokEnum:
		p.next()
		typeName, member, _ := strings.Cut(t.Text, "/")

		return &m.Enum{TypeName: typeName, Member: member}, nil
	case TokLBracket:
		return p.parseArray()
	case TokLParen:
		return p.parseTuple()
	case TokIdent:
		return p.parseIdentValue(instance)
	case TokOpaque:
		p.next()

		if p.startsOperand(0) {
			if _, err := p.parsePrimary(""); err != nil {
				return nil, err
			}
		}

		return &m.RawExpr{Text: string(p.src[t.Offset:p.lastEnd()])}, nil
	case TokEOF:
		return nil, errorAt(t, "unexpected end of file, expected a value")
	default:
		return nil, errorAt(t, "unexpected %s, expected a value", t.Kind)
	}
}

func (p *parser) parseIdentValue(instance string) (m.Value, error) {
	t := p.peek()
	nextTok := p.peekAt(1)

	switch {
	case strings.EqualFold(t.Text, "true") || strings.EqualFold(t.Text, "false"):
		p.next()
		return &m.Bool{Value: strings.EqualFold(t.Text, "true"), Raw: t.Text}, nil
	case t.Text == kwMap && nextTok.Kind == TokLBracket:
		p.next()
		return p.parseMap()
	case nextTok.is(TokIdent, kwIs):
		p.next()
		p.next()

		return p.parsePrimary(t.Text)
	case nextTok.Kind == TokLParen:
		return p.parseObject(instance)
	case nextTok.Kind == TokLBracket && nextTok.Leading == "":
		// Call-like forms such as RGBA[0, 0, 0, 255].
		p.next()

		if err := p.skipGroup(); err != nil {
			return nil, err
		}

		return &m.RawExpr{Text: string(p.src[t.Offset:p.lastEnd()])}, nil
	default:
		p.next()
		return &m.RawExpr{Text: t.Text}, nil
	}
}

// skipGroup consumes a balanced bracketed group starting at the current
// token.
func (p *parser) skipGroup() error {
	open := p.next()
	depth := 1

	for depth > 0 {
		t := p.next()

		switch t.Kind {
		case TokEOF:
			return errorAt(open, "unbalanced %s", open.Kind)
		case TokLParen, TokLBracket, TokLBrace:
			depth++
		case TokRParen, TokRBracket, TokRBrace:
			depth--
		}
	}

	return nil
}

func (p *parser) parseObject(instance string) (m.Value, error) {
	typeTok := p.next()

	open, err := p.expect(TokLParen)
	if err != nil {
		return nil, err
	}

	obj := &m.Object{TypeName: typeTok.Text, InstanceName: instance}

	for {
		t := p.peek()

		switch t.Kind {
		case TokRParen:
			p.next()

			obj.Span = m.Span{Start: typeTok.Offset, End: p.lastEnd()}

			return obj, nil
		case TokComma, TokOpaque:
			p.next()
			continue
		case TokEOF:
			return nil, errorAt(open, "unbalanced %s: object %s is never closed", open.Kind, typeTok.Text)
		case TokIdent:
		default:
			return nil, errorAt(t, "expected property name in %s, found %s", typeTok.Text, t.Kind)
		}

		name := p.next()

		if _, err := p.expect(TokAssign); err != nil {
			return nil, err
		}

		v, err := p.parseValue("")
		if err != nil {
			return nil, err
		}

		obj.Properties = append(obj.Properties, &m.Property{Name: name.Text, Value: v})
	}
}

func (p *parser) parseArray() (m.Value, error) {
	open := p.next()
	arr := &m.Array{}

	for {
		t := p.peek()

		switch t.Kind {
		case TokRBracket:
			p.next()
			return arr, nil
		case TokEOF:
			return nil, errorAt(open, "unbalanced %s: array is never closed", open.Kind)
		case TokComma:
			return nil, errorAt(t, "unexpected ',' in array")
		}

		v, err := p.parseValue("")
		if err != nil {
			return nil, err
		}

		comma := false
		if p.peek().Kind == TokComma {
			p.next()

			comma = true
		}

		arr.Elements = append(arr.Elements, v)
		arr.CommaAfter = append(arr.CommaAfter, comma)
	}
}

func (p *parser) parseTuple() (m.Value, error) {
	open := p.next()
	tuple := &m.Tuple{}

	for {
		t := p.peek()

		switch t.Kind {
		case TokRParen:
			p.next()
			return tuple, nil
		case TokEOF:
			return nil, errorAt(open, "unbalanced %s: tuple is never closed", open.Kind)
		}

		v, err := p.parseValue("")
		if err != nil {
			return nil, err
		}

		tuple.Elements = append(tuple.Elements, v)

		switch p.peek().Kind {
		case TokComma:
			p.next()
		case TokRParen:
		default:
			return nil, errorAt(p.peek(), "expected ',' or ')' in tuple, found %s", p.peek().Kind)
		}
	}
}

func (p *parser) parseMap() (m.Value, error) {
	open := p.next()
	mp := &m.Map{}

	for {
		t := p.peek()

		switch t.Kind {
		case TokRBracket:
			p.next()
			return mp, nil
		case TokEOF:
			return nil, errorAt(open, "unbalanced %s: MAP is never closed", open.Kind)
		case TokLParen:
		default:
			return nil, errorAt(t, "expected (key, value) entry in MAP, found %s", t.Kind)
		}

		v, err := p.parseTuple()
		if err != nil {
			return nil, err
		}

		tuple, _ := v.(*m.Tuple)
		if len(tuple.Elements) != 2 {
			return nil, errorAt(t, "MAP entry must have exactly two elements, found %d", len(tuple.Elements))
		}

		comma := false
		if p.peek().Kind == TokComma {
			p.next()

			comma = true
		}

		mp.Entries = append(mp.Entries, m.MapEntry{Key: tuple.Elements[0], Value: tuple.Elements[1]})
		mp.CommaAfter = append(mp.CommaAfter, comma)
	}
}

func numberFromToken(t Token, sign string) (m.Value, error) {
	raw := sign + t.Text

	if t.Integer {
		// Leading zeros are decimal; only 0x selects another base.
		digits, base := t.Text, 10
		if len(digits) > 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
			digits, base = digits[2:], 16
		}

		n, err := strconv.ParseInt(sign+digits, base, 64)
		if err == nil {
			return &m.Num{Value: float64(n), Integer: true, Raw: raw}, nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errorAt(t, "invalid number literal")
	}

	return &m.Num{Value: f, Integer: t.Integer, Raw: raw}, nil
}
