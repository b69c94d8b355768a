package match

import (
	"regexp"
	"strings"
)

// Weights of the combined unit-name score.
const (
	UnitLevenshteinWeight = 0.4
	UnitTokenWeight       = 0.4
	UnitAffixWeight       = 0.2
)

// Weights of the combined property-path score.
const (
	PathStructuralWeight = 0.6
	PathTrailingWeight   = 0.4
	// PathLevenshteinWeight blends raw edit distance into the structural
	// score: (1-w)*(structural blend) + w*levenshtein.
	PathLevenshteinWeight = 0.2
)

// Scores for the short-circuit cases.
const (
	ScoreExact             = 1.0
	ScoreNormalizedPath    = 0.95
	ScoreCandidateContains = 0.9
	ScoreQueryContains     = 0.85
	ScorePathCandidateHas  = 0.8
	ScorePathQueryHas      = 0.75
)

// Default acceptance thresholds for suggestions.
const (
	DefaultUnitThreshold = 0.3
	DefaultPathThreshold = 0.4
)

const (
	scorePartialSegment = 0.5
	segmentSeparator    = "."
)

var indexPattern = regexp.MustCompile(`\[\d+\]`)

// TokenOverlap is the Jaccard index of the identifier tokens of a and b.
func TokenOverlap(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}

	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}

	union := len(set)
	shared := 0
	seen := make(map[string]bool, len(tb))

	for _, t := range tb {
		if seen[t] {
			continue
		}

		seen[t] = true

		if set[t] {
			shared++
		} else {
			union++
		}
	}

	return float64(shared) / float64(union)
}

// AffixOverlap is the length of the common prefix plus the common suffix
// of the normalized names, relative to the longer name. The two affixes
// never overlap each other.
func AffixOverlap(a, b string) float64 {
	ra, rb := []rune(Normalize(a)), []rune(Normalize(b))

	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}

	shortest := min(len(ra), len(rb))

	prefix := 0
	for prefix < shortest && ra[prefix] == rb[prefix] {
		prefix++
	}

	suffix := 0
	for suffix < shortest-prefix && ra[len(ra)-1-suffix] == rb[len(rb)-1-suffix] {
		suffix++
	}

	return float64(prefix+suffix) / float64(longest)
}

// UnitScore rates candidate as a replacement for the unit name query.
func UnitScore(query, candidate string) float64 {
	if query == candidate {
		return ScoreExact
	}

	q, c := strings.ToLower(query), strings.ToLower(candidate)

	switch {
	case q == "" || c == "":
		return 0
	case strings.Contains(c, q):
		return ScoreCandidateContains
	case strings.Contains(q, c):
		return ScoreQueryContains
	}

	return UnitLevenshteinWeight*LevenshteinSimilarity(q, c) +
		UnitTokenWeight*TokenOverlap(query, candidate) +
		UnitAffixWeight*AffixOverlap(query, candidate)
}

// StripIndices replaces every exact index `[N]` in path by `[*]`.
func StripIndices(path string) string {
	return indexPattern.ReplaceAllString(path, "[*]")
}

// StructuralPathSimilarity compares two paths segment by segment after index
// normalization: equal segments score 1, segments where one contains the
// other score 0.5. The sum is averaged over the longer path.
func StructuralPathSimilarity(a, b string) float64 {
	sa := strings.Split(StripIndices(a), segmentSeparator)
	sb := strings.Split(StripIndices(b), segmentSeparator)

	total := 0.0

	for i := range min(len(sa), len(sb)) {
		x, y := strings.ToLower(sa[i]), strings.ToLower(sb[i])

		switch {
		case x == y:
			total++
		case x != "" && y != "" && (strings.Contains(x, y) || strings.Contains(y, x)):
			total += scorePartialSegment
		}
	}

	return total / float64(max(len(sa), len(sb)))
}

// trailingName returns the last segment of path without any index.
func trailingName(path string) string {
	if i := strings.LastIndex(path, segmentSeparator); i >= 0 {
		path = path[i+1:]
	}

	if i := strings.IndexByte(path, '['); i >= 0 {
		path = path[:i]
	}

	return path
}

// PathScore rates candidate as a replacement for the property path query.
func PathScore(query, candidate string) float64 {
	if query == candidate {
		return ScoreExact
	}

	nq, nc := StripIndices(query), StripIndices(candidate)

	switch {
	case nq == nc:
		return ScoreNormalizedPath
	case query == "" || candidate == "":
		return 0
	case strings.Contains(candidate, query):
		return ScorePathCandidateHas
	case strings.Contains(query, candidate):
		return ScorePathQueryHas
	}

	blend := PathStructuralWeight*StructuralPathSimilarity(query, candidate) +
		PathTrailingWeight*TokenOverlap(trailingName(query), trailingName(candidate))

	return (1-PathLevenshteinWeight)*blend + PathLevenshteinWeight*LevenshteinSimilarity(nq, nc)
}
