package match

import (
	"strings"
	"unicode"
)

// Tokens splits an identifier into lowercase words on separators, case
// changes and letter/digit boundaries:
//
//	"Tank_Leopard2A4" -> [tank leopard 2 a 4]
//	"MaxHPModifier"   -> [max hp modifier]
func Tokens(s string) []string {
	var (
		out  []string
		word []rune
	)

	flush := func() {
		if len(word) > 0 {
			out = append(out, strings.ToLower(string(word)))
			word = word[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if i > 0 && len(word) > 0 && boundary(runes, i) {
			flush()
		}

		word = append(word, r)
	}

	flush()

	return out
}

func boundary(runes []rune, i int) bool {
	prev, r := runes[i-1], runes[i]

	switch {
	case unicode.IsDigit(prev) != unicode.IsDigit(r):
		return true
	case unicode.IsUpper(r) && unicode.IsLower(prev):
		return true
	case unicode.IsUpper(r) && unicode.IsUpper(prev):
		// End of an acronym: "HPModifier" splits before 'M'.
		return i+1 < len(runes) && unicode.IsLower(runes[i+1])
	}

	return false
}

// Normalize lowercases s and drops everything but letters and digits, so
// "Tank_Leopard" and "tankleopard" compare equal.
func Normalize(s string) string {
	return strings.Join(Tokens(s), "")
}
