package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_LabeledFence(t *testing.T) {
	var v map[string]int
	result := JSON("```json\n{\"a\":1}\n```", &v)

	require.True(t, result.Parsed())
	assert.Equal(t, map[string]int{"a": 1}, v)
}

func TestJSON_UnlabeledFence(t *testing.T) {
	var v map[string]int
	result := JSON("Here you go:\n```\n{\"a\":2}\n```\nDone.", &v)

	require.True(t, result.Parsed())
	assert.Equal(t, map[string]int{"a": 2}, v)
}

func TestJSON_BraceScanFallback(t *testing.T) {
	var v map[string]int
	result := JSON("prefix text {\"a\":1} suffix", &v)

	require.True(t, result.Parsed())
	assert.Equal(t, map[string]int{"a": 1}, v)
}

func TestJSON_WholeText(t *testing.T) {
	var v []string
	result := JSON("  [\"x\",\"y\"]  ", &v)

	require.True(t, result.Parsed())
	assert.Equal(t, []string{"x", "y"}, v)
}

func TestJSON_NoStructure(t *testing.T) {
	var v map[string]int
	result := JSON("no braces and no fences here", &v)

	assert.True(t, result.IsEmpty())
	assert.False(t, result.Parsed())
}

func TestJSON_MalformedFenceFallsThrough(t *testing.T) {
	// The fenced block is broken JSON but the brace scan still finds the
	// widest valid object.
	var v struct {
		Title string `json:"title"`
	}
	text := "```json\n{not json at all\n```\nbut {\"title\":\"ok\"} trailing"
	result := JSON(text, &v)

	// Brace scan goes from the first '{' (inside the fence) to the last '}',
	// which is not valid JSON either, so this degrades to Empty.
	assert.True(t, result.IsEmpty())

	// A reply without the poisoned prefix parses via brace scan.
	result = JSON("reply: {\"title\":\"ok\"} thanks", &v)
	require.True(t, result.Parsed())
	assert.Equal(t, "ok", v.Title)
}

func TestJSON_TypeMismatchTriesNextCandidate(t *testing.T) {
	// The fence holds an array, the target wants an object; the brace scan
	// candidate satisfies the target type.
	var v struct {
		A int `json:"a"`
	}
	text := "```\n[1,2,3]\n```\n{\"a\":7}"
	result := JSON(text, &v)

	require.True(t, result.Parsed())
	assert.Equal(t, 7, v.A)
}
