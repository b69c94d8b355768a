package mutators

import (
	"strings"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// Text replaces a string. The target's quote style is kept unless the input
// is itself quoted or holds that quote character.
func Text(s *m.Str, op m.Operator, input string) (*m.Str, error) {
	if err := requireSet(op, m.KindStr, "strings are not quantities"); err != nil {
		return nil, err
	}

	text, quote, quoted := unquote(input)
	if !quoted {
		quote = s.Quote
	}

	quote, err := fitQuote(op, m.KindStr, text, quote)
	if err != nil {
		return nil, err
	}

	return &m.Str{Text: text, Quote: quote}, nil
}

// Opaque replaces references, GUIDs, enums and raw expressions as text.
// A sigil or wrapper matching the target kind is stripped from the input.
func Opaque(v m.Value, op m.Operator, input string) (m.Value, error) {
	text := trimmed(input)
	if text == "" {
		return nil, reject(op, v.Kind(), "empty input")
	}

	switch x := v.(type) {
	case *m.TemplateRef:
		if err := requireSet(op, m.KindTemplateRef, "references are identities, not quantities"); err != nil {
			return nil, err
		}

		return &m.TemplateRef{Path: strings.TrimPrefix(text, "~/")}, nil
	case *m.ResourceRef:
		if err := requireSet(op, m.KindResourceRef, "references are identities, not quantities"); err != nil {
			return nil, err
		}

		return &m.ResourceRef{Path: strings.TrimPrefix(text, "$/")}, nil
	case *m.Guid:
		if err := requireSet(op, m.KindGuid, "GUIDs are identities"); err != nil {
			return nil, err
		}

		text = strings.TrimPrefix(text, "GUID:")
		text = strings.TrimSuffix(strings.TrimPrefix(text, "{"), "}")

		return &m.Guid{Text: text}, nil
	case *m.Enum:
		if err := requireSet(op, m.KindEnum, "enum members are not quantities"); err != nil {
			return nil, err
		}

		if typeName, member, ok := strings.Cut(text, "/"); ok {
			return &m.Enum{TypeName: typeName, Member: member}, nil
		}

		return &m.Enum{TypeName: x.TypeName, Member: text}, nil
	case *m.RawExpr:
		if err := requireSet(op, m.KindRawExpr, "raw expressions are never interpreted"); err != nil {
			return nil, err
		}

		return &m.RawExpr{Text: text}, nil
	}

	return nil, reject(op, v.Kind(), "not an opaque value")
}
