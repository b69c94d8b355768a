// Package match scores how alike two unit names or property paths are.
//
// Every factor is a standalone function returning a value in [0, 1]:
//   - LevenshteinSimilarity: normalized edit distance
//   - TokenOverlap: Jaccard overlap of identifier tokens
//   - AffixOverlap: shared prefix and suffix length
//   - StructuralPathSimilarity: per-segment comparison of two paths
//
// UnitScore and PathScore combine them with fixed weights, and Rank sorts
// candidates by score.
package match
