package mutators

import (
	"strconv"
	"strings"
	"unicode"

	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

// Boolean sets a flag from true/yes/1 or false/no/0. Any other number
// counts as true when non-zero. The capitalisation of the original literal
// is kept.
func Boolean(b *m.Bool, op m.Operator, input string) (*m.Bool, error) {
	if err := requireSet(op, m.KindBool, "flags have no magnitude"); err != nil {
		return nil, err
	}

	value, ok := parseBool(input)
	if !ok {
		return nil, reject(op, m.KindBool, "%q is not a boolean", input)
	}

	return &m.Bool{Value: value, Raw: styleBool(value, b.Raw)}, nil
}

func parseBool(input string) (bool, bool) {
	switch strings.ToLower(trimmed(input)) {
	case "true", "yes", "1":
		return true, true
	case "false", "no", "0":
		return false, true
	}

	f, err := strconv.ParseFloat(trimmed(input), 64)
	if err != nil {
		return false, false
	}

	return f != 0, true
}

func styleBool(value bool, like string) string {
	text := "false"
	if value {
		text = "true"
	}

	if like != "" && unicode.IsUpper(rune(like[0])) {
		return strings.ToUpper(text[:1]) + text[1:]
	}

	return text
}
