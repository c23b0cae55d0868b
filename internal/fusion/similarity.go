package fusion

import (
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/doceo/internal/models"
)

const contentPrefixLimit = 200

// Similarity scores two knowledge points in [0,1], weighting title
// similarity 0.6 and the similarity of a bounded content prefix 0.4.
// Case-insensitive and symmetric.
func Similarity(a, b models.KnowledgePoint) float64 {
	titleSim := editRatio(strings.ToLower(a.Title), strings.ToLower(b.Title))
	contentSim := editRatio(
		strings.ToLower(prefix(a.Content, contentPrefixLimit)),
		strings.ToLower(prefix(b.Content, contentPrefixLimit)),
	)
	return titleSim*0.6 + contentSim*0.4
}

// editRatio is a normalized edit-distance similarity: 1 for identical
// strings, 0 for fully disjoint ones.
func editRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func prefix(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
