package match

// Levenshtein returns the edit distance between a and b, counted in runes.
// Only two rows of the distance table are kept.
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	prev := make([]int, len(ra)+1)
	row := make([]int, len(ra)+1)

	for i := range prev {
		prev[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		row[0] = j

		for i := 1; i <= len(ra); i++ {
			sub := prev[i-1]
			if ra[i-1] != rb[j-1] {
				sub++
			}

			row[i] = min(prev[i]+1, row[i-1]+1, sub)
		}

		prev, row = row, prev
	}

	return prev[len(ra)]
}

// LevenshteinSimilarity maps the edit distance onto [0, 1], where 1 means
// identical: 1 - distance/max(len(a), len(b)).
func LevenshteinSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}

	return 1 - float64(Levenshtein(a, b))/float64(longest)
}
