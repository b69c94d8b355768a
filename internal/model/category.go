package model

import (
	"fmt"
	"strings"
)

// Category is a set of capability flags derived once per unit.
type Category uint16

const (
	CategoryTank Category = 1 << iota
	CategoryInfantry
	CategoryAircraft
	CategoryHelicopter
	CategoryArtillery
	CategoryAntiAir
	CategoryTransport
	CategoryLogistics
	CategoryRecon
)

// CategoryNone is the empty set.
const CategoryNone Category = 0

var categoryNames = []struct {
	flag Category
	name string
}{
	{CategoryTank, "tank"},
	{CategoryInfantry, "infantry"},
	{CategoryAircraft, "aircraft"},
	{CategoryHelicopter, "helicopter"},
	{CategoryArtillery, "artillery"},
	{CategoryAntiAir, "antiair"},
	{CategoryTransport, "transport"},
	{CategoryLogistics, "logistics"},
	{CategoryRecon, "recon"},
}

// Has reports whether every flag of other is set.
func (c Category) Has(other Category) bool {
	return c&other == other
}

// String joins flag names with '|'.
func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}

	var parts []string

	for _, n := range categoryNames {
		if c.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}

	return strings.Join(parts, "|")
}

// ParseCategory parses a comma or '|' separated list of category names.
func ParseCategory(s string) (Category, error) {
	var out Category

	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}

		found := false

		for _, n := range categoryNames {
			if n.name == part {
				out |= n.flag
				found = true

				break
			}
		}

		if !found {
			return CategoryNone, fmt.Errorf("unknown category %q", part)
		}
	}

	return out, nil
}
