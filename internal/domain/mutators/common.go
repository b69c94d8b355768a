// Package mutators computes the new value for one modification of one
// resolved value. Every function returns a fresh value and never touches
// its input.
package mutators

import (
	"fmt"
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// MutationError reports an operator that is not valid for the resolved
// value, or input that cannot be applied to it.
type MutationError struct {
	Operator m.Operator
	Kind     m.Kind
	Reason   string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("cannot apply %s to %s: %s", e.Operator, e.Kind, e.Reason)
}

func reject(op m.Operator, kind m.Kind, format string, args ...any) *MutationError {
	return &MutationError{Operator: op, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Mutate returns the value that replaces current after applying op with the
// raw input text. property is the name of the innermost path segment; it
// selects the tag-set convention for string arrays.
func Mutate(current m.Value, property string, op m.Operator, input string) (m.Value, error) {
	switch v := current.(type) {
	case *m.Num:
		return Numeric(v, op, input)
	case *m.Bool:
		return Boolean(v, op, input)
	case *m.Str:
		return Text(v, op, input)
	case *m.TemplateRef, *m.ResourceRef, *m.Guid, *m.Enum, *m.RawExpr:
		return Opaque(v, op, input)
	case *m.Array:
		return Array(v, property, op, input)
	case *m.Object, *m.Map, *m.Tuple:
		return nil, reject(op, v.Kind(), "not directly mutable, address a nested property instead")
	case nil:
		return nil, reject(op, m.KindRawExpr, "no value")
	default:
		return nil, reject(op, v.Kind(), "unsupported value")
	}
}

// unquote strips one pair of matching quotes and reports the quote used.
func unquote(s string) (string, m.QuoteStyle, bool) {
	if len(s) >= 2 {
		q := s[0]
		if (q == '"' || q == '\'') && s[len(s)-1] == q {
			return s[1 : len(s)-1], m.QuoteStyle(q), true
		}
	}

	return s, 0, false
}

// fitQuote returns a delimiter text can be written inside. The preferred
// quote is kept unless text holds a bare copy of it, in which case the
// other quote is used.
func fitQuote(op m.Operator, kind m.Kind, text string, preferred m.QuoteStyle) (m.QuoteStyle, error) {
	if preferred == 0 {
		preferred = m.QuoteDouble
	}

	other := m.QuoteSingle
	if preferred == m.QuoteSingle {
		other = m.QuoteDouble
	}

	for _, q := range []m.QuoteStyle{preferred, other} {
		if bare, dangling := scanQuotes(text, byte(q)); dangling {
			return 0, reject(op, kind, "text %q ends in an unpaired backslash", text)
		} else if !bare {
			return q, nil
		}
	}

	return 0, reject(op, kind, "text %q contains both quote characters unescaped", text)
}

// scanQuotes reports whether text holds q outside an escape, and whether
// it ends inside one.
func scanQuotes(text string, q byte) (bare, dangling bool) {
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\\':
			if i == len(text)-1 {
				return bare, true
			}

			i++
		case q:
			bare = true
		}
	}

	return bare, false
}

func requireSet(op m.Operator, kind m.Kind, why string) error {
	if op != m.OpSet {
		return reject(op, kind, "only SET is allowed, %s", why)
	}

	return nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
