package fusion

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
)

const transitionTemperature = 0.4

var transitionPrefixRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^transition:\s*`),
	regexp.MustCompile(`(?i)^transition paragraph:\s*`),
	regexp.MustCompile(`(?i)^paragraph:\s*`),
}

// TransitionGenerator writes one connective passage per chapter boundary so
// the exported course reads as a whole rather than stitched fragments.
type TransitionGenerator struct {
	llm    interfaces.GenerateService
	logger arbor.ILogger
}

// NewTransitionGenerator creates a transition generator.
func NewTransitionGenerator(llm interfaces.GenerateService, logger arbor.ILogger) *TransitionGenerator {
	return &TransitionGenerator{llm: llm, logger: logger}
}

// Generate returns transitions keyed by chapter index, for indices
// 1..len(chapters)-1. There is no transition before the first chapter. A
// failed generative call degrades to a fixed sentence naming the next
// chapter.
func (g *TransitionGenerator) Generate(ctx context.Context, chapters []models.Chapter) map[int]string {
	transitions := make(map[int]string)
	if len(chapters) < 2 {
		return transitions
	}

	g.logger.Info().Int("boundaries", len(chapters)-1).Msg("Generating chapter transitions")

	for i := 1; i < len(chapters); i++ {
		prev, curr := chapters[i-1], chapters[i]

		prompt := fmt.Sprintf(`Write a connective passage between two textbook sections.

The previous chapter "%s" covered:
%s

This chapter "%s" will introduce:
%s

Write 2-3 sentences covering:
1. The key takeaway of the previous chapter
2. How this chapter builds on it
3. Why this chapter is worth learning

Output the passage directly:`,
			prev.Title, prefix(describe(prev), 200),
			curr.Title, prefix(describe(curr), 200))

		text, err := g.llm.Generate(ctx, prompt, transitionTemperature)
		if err != nil {
			g.logger.Warn().Err(err).Str("chapter", curr.Title).Msg("Transition call failed, using template")
			transitions[i] = fmt.Sprintf("Next, we move on to %q.", curr.Title)
			continue
		}
		transitions[i] = cleanTransition(text)
	}
	return transitions
}

func describe(ch models.Chapter) string {
	if ch.Description != "" {
		return ch.Description
	}
	return ch.Title
}

// cleanTransition strips surrounding quotes and boilerplate prefixes the
// model sometimes adds.
func cleanTransition(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	for _, re := range transitionPrefixRes {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}
