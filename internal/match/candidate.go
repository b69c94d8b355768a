package match

import (
	"cmp"
	"slices"
)

// Scorer rates one candidate against a query.
type Scorer func(query, candidate string) float64

// Candidate is one scored alternative.
type Candidate struct {
	Name  string
	Score float64
	// Closeness is the raw edit-distance similarity, used to order
	// candidates that tie on Score.
	Closeness float64
}

// Candidates is sorted best first.
type Candidates []Candidate

// Rank scores every name against query. The result is ordered by score,
// then closeness, then name so that rankings are deterministic.
func Rank(query string, names []string, score Scorer) Candidates {
	out := make(Candidates, 0, len(names))

	for _, name := range names {
		out = append(out, Candidate{
			Name:      name,
			Score:     score(query, name),
			Closeness: LevenshteinSimilarity(query, name),
		})
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}

		if c := cmp.Compare(b.Closeness, a.Closeness); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	return out
}

// Best returns the top candidate when its score reaches threshold.
func (c Candidates) Best(threshold float64) (Candidate, bool) {
	if len(c) == 0 || c[0].Score < threshold {
		return Candidate{}, false
	}

	return c[0], true
}

// Top returns at most n candidates.
func (c Candidates) Top(n int) Candidates {
	if n >= len(c) {
		return c
	}

	return c[:n]
}
