package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/doceo/internal/models"
)

// ExportMarkdown writes the course as a single markdown file and returns
// its path.
func (e *Exporter) ExportMarkdown(structure models.CourseStructure, transitions map[int]string) (string, error) {
	content := BuildMarkdown(structure, transitions)

	path := e.outputPath(structure.Name, ".md")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write markdown export: %w", err)
	}
	return path, nil
}

// BuildMarkdown renders the course structure to markdown: title, table of
// contents, then chapters with their transition passages, knowledge points,
// examples, and video references.
func BuildMarkdown(structure models.CourseStructure, transitions map[int]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", structure.Name)
	b.WriteString("## Contents\n\n")
	for _, ch := range structure.Chapters {
		fmt.Fprintf(&b, "%d. %s\n", ch.Order, ch.Title)
	}
	b.WriteString("\n---\n\n")

	for i, ch := range structure.Chapters {
		fmt.Fprintf(&b, "## Chapter %d: %s\n\n", ch.Order, ch.Title)

		if transition, ok := transitions[i]; ok && transition != "" {
			fmt.Fprintf(&b, "*%s*\n\n", transition)
		}

		if len(ch.LearningObjectives) > 0 {
			b.WriteString("**Learning objectives:**\n\n")
			for _, objective := range ch.LearningObjectives {
				fmt.Fprintf(&b, "- %s\n", objective)
			}
			b.WriteString("\n")
		}

		for _, point := range ch.Points {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", point.Title, point.Content)

			if len(point.Examples) > 0 {
				b.WriteString("**Examples:**\n\n")
				for _, example := range point.Examples {
					fmt.Fprintf(&b, "- %s\n", example)
				}
				b.WriteString("\n")
			}

			if len(point.VideoMarkers) > 0 {
				b.WriteString("> **Watch the video:**\n")
				for _, marker := range point.VideoMarkers {
					fmt.Fprintf(&b, "> - [%s] %s\n", marker.Time, marker.Description)
				}
				b.WriteString("\n")
			}
		}

		b.WriteString("---\n\n")
	}

	return b.String()
}
