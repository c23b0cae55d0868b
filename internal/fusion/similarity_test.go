package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/doceo/internal/models"
)

func point(title, content string) models.KnowledgePoint {
	return models.KnowledgePoint{Title: title, Content: content, SourceFile: "a.srt"}
}

func TestSimilarityIdentical(t *testing.T) {
	p := point("Derivative", "The derivative measures change.")
	assert.InDelta(t, 1.0, Similarity(p, p), 1e-9)
}

func TestSimilaritySymmetric(t *testing.T) {
	a := point("Derivative", "The derivative measures the rate of change.")
	b := point("Limits", "A limit describes what a function approaches.")
	assert.InDelta(t, Similarity(a, b), Similarity(b, a), 1e-9)
}

func TestSimilarityCaseInsensitive(t *testing.T) {
	a := point("DERIVATIVE", "THE DERIVATIVE MEASURES CHANGE.")
	b := point("derivative", "the derivative measures change.")
	assert.InDelta(t, 1.0, Similarity(a, b), 1e-9)
}

func TestSimilarityNearDuplicateTitles(t *testing.T) {
	a := point("Derivative", "The derivative measures the rate of change.")
	b := point("Derivatives", "The derivative measures the rate of change of a function.")
	assert.Greater(t, Similarity(a, b), 0.75)
}

func TestSimilarityDisjoint(t *testing.T) {
	a := point("Derivative", "The derivative measures the rate of change.")
	b := point("Photosynthesis", "Plants convert light into chemical energy.")
	assert.Less(t, Similarity(a, b), 0.5)
}

func TestSimilarityEmptyStrings(t *testing.T) {
	a := point("", "")
	b := point("Derivative", "Content.")
	score := Similarity(a, b)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestSimilarityContentPrefixBounded(t *testing.T) {
	// Differences past the 200-char prefix must not affect the score.
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	a := point("Topic", string(long)+" tail one")
	b := point("Topic", string(long)+" a completely different tail")
	assert.InDelta(t, 1.0, Similarity(a, b), 1e-9)
}
