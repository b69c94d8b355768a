package mutators

import (
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// IsTagSet reports whether an edit of arr should follow the tag-set
// convention: every element is a string and either the property is a tag
// list or the input uses +/- prefixes.
func IsTagSet(arr *m.Array, property, input string) bool {
	if _, ok := arr.Strings(); !ok {
		return false
	}

	if strings.Contains(strings.ToLower(property), "tag") {
		return true
	}

	for _, tok := range splitList(input) {
		if strings.HasPrefix(tok, "+") || strings.HasPrefix(tok, "-") {
			return true
		}
	}

	return false
}

// Array edits a list. Tag sets take a comma separated diff, other string
// lists are replaced by a single element and number lists have op applied
// to every element.
func Array(arr *m.Array, property string, op m.Operator, input string) (*m.Array, error) {
	if IsTagSet(arr, property, input) {
		if err := requireSet(op, m.KindArray, "tag sets take a +/- list"); err != nil {
			return nil, err
		}

		return TagSet(arr, input)
	}

	if _, ok := arr.Strings(); ok {
		if err := requireSet(op, m.KindArray, "string lists are replaced as a whole"); err != nil {
			return nil, err
		}

		text, quote, quoted := unquote(trimmed(input))
		if !quoted {
			quote = listQuote(arr)
		}

		quote, err := fitQuote(op, m.KindArray, text, quote)
		if err != nil {
			return nil, err
		}

		return &m.Array{
			Elements:   []m.Value{&m.Str{Text: text, Quote: quote}},
			CommaAfter: []bool{false},
			Reshaped:   len(arr.Elements) != 1,
		}, nil
	}

	if !arr.Numbers() {
		return nil, reject(op, m.KindArray, "only tag sets, string lists and number lists can be edited")
	}

	out := &m.Array{
		Elements:   make([]m.Value, len(arr.Elements)),
		CommaAfter: append([]bool(nil), arr.CommaAfter...),
		Reshaped:   arr.Reshaped,
	}

	for i, e := range arr.Elements {
		n, err := Numeric(e.(*m.Num), op, input)
		if err != nil {
			return nil, err
		}

		out.Elements[i] = n
	}

	return out, nil
}

// TagSet applies "-Remove,+Add,Add" to a string list. Removing an absent
// tag and adding a present one are no-ops, so applying the same edit twice
// gives the same list. A tag that cannot be quoted is rejected.
func TagSet(arr *m.Array, input string) (*m.Array, error) {
	out := &m.Array{
		Elements:   append([]m.Value(nil), arr.Elements...),
		CommaAfter: append([]bool(nil), arr.CommaAfter...),
		Reshaped:   arr.Reshaped,
	}

	quote := listQuote(arr)

	for _, tok := range splitList(input) {
		remove := strings.HasPrefix(tok, "-")
		tok = strings.TrimLeft(tok, "+-")

		tag, q, quoted := unquote(strings.TrimSpace(tok))
		if tag == "" {
			continue
		}

		if !quoted {
			q = quote
		}

		q, err := fitQuote(m.OpSet, m.KindArray, tag, q)
		if err != nil {
			return nil, err
		}

		i := indexOfTag(out.Elements, tag)

		switch {
		case remove && i >= 0:
			out.Elements = append(out.Elements[:i:i], out.Elements[i+1:]...)
			out.Reshaped = true
		case !remove && i < 0:
			out.Elements = append(out.Elements, &m.Str{Text: tag, Quote: q})
			out.Reshaped = true
		}
	}

	if out.Reshaped {
		out.CommaAfter = nil
	}

	return out, nil
}

func indexOfTag(elems []m.Value, tag string) int {
	for i, e := range elems {
		if s, ok := e.(*m.Str); ok && s.Text == tag {
			return i
		}
	}

	return -1
}

func listQuote(arr *m.Array) m.QuoteStyle {
	for _, e := range arr.Elements {
		if s, ok := e.(*m.Str); ok && s.Quote != 0 {
			return s.Quote
		}
	}

	return m.QuoteDouble
}

func splitList(input string) []string {
	var out []string

	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
