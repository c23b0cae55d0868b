package pipeline

import (
	"regexp"
	"strings"
)

// Rule-based transcript noise. Patterns run in order; the whitespace passes
// come last so earlier removals do not leave double spaces behind.
var noisePatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	// Filler words and hedges
	{regexp.MustCompile(`(?i)\b(um|uh|uhh|erm|you know|i mean|sort of|kind of|basically|actually|literally|okay|ok|right|so|well)\b[,.]?\s*`), ""},
	// Lecture boilerplate openers
	{regexp.MustCompile(`(?i)\s*(as you can see|let's take a look|let's have a look|moving on|alright|all right)\b[,.]?\s*`), " "},
	// Excess blank lines
	{regexp.MustCompile(`\n\s*\n\s*\n+`), "\n\n"},
}

var (
	spaceRunRe      = regexp.MustCompile(`[ \t]+`)
	trailSpaceRe    = regexp.MustCompile(` +\n`)
	leadSpaceRe     = regexp.MustCompile(`\n +`)
	allWhitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalizer is the rule-based first stage. It strips filler without any
// generative call, guarded so aggressive patterns can never destroy a
// transcript.
type Normalizer struct{}

// Normalize removes filler words and collapses whitespace while keeping line
// structure. If the patterns would remove more than 70% of the original
// characters, the result is discarded and the original text is returned with
// whitespace collapsed only.
func (n *Normalizer) Normalize(text string) string {
	original := text

	for _, p := range noisePatterns {
		text = p.re.ReplaceAllString(text, p.replacement)
	}

	text = spaceRunRe.ReplaceAllString(text, " ")
	text = trailSpaceRe.ReplaceAllString(text, "\n")
	text = leadSpaceRe.ReplaceAllString(text, "\n")

	if len(text) < len(original)*3/10 {
		text = allWhitespaceRe.ReplaceAllString(original, " ")
	}

	return strings.TrimSpace(text)
}
