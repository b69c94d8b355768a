package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ndfkit.dev/pkg/ndfkit/internal/match"
)

// ErrInvalidPath is wrapped by every ParsePath failure.
var ErrInvalidPath = errors.New("invalid property path")

// Segment is one dotted component of a property path: a property name
// followed by zero or more `[N]` or `[*]` selectors. Name is empty only
// for a leading selector addressing a unit whose value is an array.
type Segment struct {
	Name      string
	Selectors []Selector
}

// Selector is an exact array index or the `[*]` wildcard.
type Selector struct {
	Index    int
	Wildcard bool
}

func (s Selector) String() string {
	if s.Wildcard {
		return "[*]"
	}

	return "[" + strconv.Itoa(s.Index) + "]"
}

// PropertyPath is a parsed `Segment ('.' Segment)*` path.
type PropertyPath []Segment

func (p PropertyPath) String() string {
	var b strings.Builder

	for i, seg := range p {
		if i > 0 {
			b.WriteByte('.')
		}

		b.WriteString(seg.Name)

		for _, sel := range seg.Selectors {
			b.WriteString(sel.String())
		}
	}

	return b.String()
}

// HasWildcard reports whether any selector is `[*]`.
func (p PropertyPath) HasWildcard() bool {
	for _, seg := range p {
		for _, sel := range seg.Selectors {
			if sel.Wildcard {
				return true
			}
		}
	}

	return false
}

// ParsePath parses "ModulesDescriptors[3].MaxSpeed" style paths.
func ParsePath(path string) (PropertyPath, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	var out PropertyPath

	for i, part := range strings.Split(path, ".") {
		seg, err := parseSegment(part, i == 0)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPath, path, err)
		}

		out = append(out, seg)
	}

	return out, nil
}

func parseSegment(part string, first bool) (Segment, error) {
	name, rest, _ := strings.Cut(part, "[")

	if name == "" && !(first && rest != "") {
		return Segment{}, errors.New("empty segment")
	}

	if name != "" && !isIdent(name) {
		return Segment{}, fmt.Errorf("invalid name %q", name)
	}

	seg := Segment{Name: name}
	if rest == "" && !strings.Contains(part, "[") {
		return seg, nil
	}

	rest = "[" + rest

	for rest != "" {
		if rest[0] != '[' {
			return Segment{}, fmt.Errorf("unexpected %q after selector", rest)
		}

		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return Segment{}, errors.New("unclosed '['")
		}

		body := rest[1:end]
		rest = rest[end+1:]

		if body == "*" {
			seg.Selectors = append(seg.Selectors, Selector{Wildcard: true})
			continue
		}

		n, err := strconv.Atoi(body)
		if err != nil || n < 0 || strings.HasPrefix(body, "+") {
			return Segment{}, fmt.Errorf("invalid index %q", body)
		}

		seg.Selectors = append(seg.Selectors, Selector{Index: n})
	}

	return seg, nil
}

func isIdent(s string) bool {
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !letter && (i == 0 || r < '0' || r > '9') {
			return false
		}
	}

	return s != ""
}

// NormalizePath replaces every exact index with `[*]`, so paths that differ
// only in array positions compare equal.
func NormalizePath(path string) string {
	return match.StripIndices(path)
}
