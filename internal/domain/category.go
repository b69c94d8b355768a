package domain

import (
	"strings"

	"ndfkit.dev/pkg/ndfkit/internal/match"
	m "ndfkit.dev/pkg/ndfkit/internal/model"
)

var categoryKeywords = []struct {
	flag     m.Category
	keywords []string
}{
	{m.CategoryTank, []string{"tank", "char"}},
	{m.CategoryInfantry, []string{"infantry", "infanterie", "squad"}},
	{m.CategoryAircraft, []string{"aircraft", "airplane", "avion", "plane"}},
	{m.CategoryHelicopter, []string{"helicopter", "helico", "helo"}},
	{m.CategoryArtillery, []string{"artillery", "artillerie", "howitzer", "mortar"}},
	{m.CategoryAntiAir, []string{"antiair", "aa", "dca", "sam"}},
	{m.CategoryTransport, []string{"transport"}},
	{m.CategoryLogistics, []string{"supply", "logistic", "logistics", "ravitaillement"}},
	{m.CategoryRecon, []string{"recon", "reco", "scout"}},
}

// Classify derives the category flags of a unit once, from its name, the
// type names and template references of its objects, and its TagSet
// strings.
func Classify(u *m.Unit) m.Category {
	words := []string{u.Name}

	var collect func(v m.Value, property string)

	collect = func(v m.Value, property string) {
		switch x := v.(type) {
		case *m.Object:
			words = append(words, x.TypeName)
			for _, p := range x.Properties {
				collect(p.Value, p.Name)
			}
		case *m.Array:
			for _, e := range x.Elements {
				collect(e, property)
			}
		case *m.TemplateRef:
			words = append(words, x.Path)
		case *m.Str:
			if strings.Contains(strings.ToLower(property), "tag") {
				words = append(words, x.Text)
			}
		}
	}

	collect(u.Value, "")

	tokens := map[string]bool{}
	for _, w := range words {
		for _, t := range match.Tokens(w) {
			tokens[t] = true
		}
	}

	var out m.Category

	for _, c := range categoryKeywords {
		for _, k := range c.keywords {
			if tokens[k] {
				out |= c.flag
				break
			}
		}
	}

	return out
}
