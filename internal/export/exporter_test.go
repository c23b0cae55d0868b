package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/models"
)

func sampleStructure() models.CourseStructure {
	return models.CourseStructure{
		Name: "Calculus Fundamentals",
		Chapters: []models.Chapter{
			{
				Order:              1,
				Title:              "Derivatives",
				Description:        "The derivative concept",
				LearningObjectives: []string{"Define the derivative"},
				Points: []models.MergedKnowledge{
					{
						Title:   "Definition of the derivative",
						Content: "The derivative is the limit of the difference quotient.",
						VideoMarkers: []models.VideoMarker{
							{Time: "05:30-05:45", Description: "tangent line sketch"},
						},
						Examples:   []string{"For example, f(x) = x^2 has derivative 2x."},
						Confidence: 1.0,
						MergedFrom: 1,
					},
				},
			},
			{
				Order: 2,
				Title: "Limits",
				Points: []models.MergedKnowledge{
					{Title: "Limit definition", Content: "A limit describes approach behavior.", Confidence: 1.0, MergedFrom: 1},
				},
			},
		},
	}
}

func sampleTransitions() map[int]string {
	return map[int]string{1: "With derivatives in hand, we turn to the limits underpinning them."}
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleStructure(), sampleTransitions())

	assert.Contains(t, md, "# Calculus Fundamentals")
	assert.Contains(t, md, "## Contents")
	assert.Contains(t, md, "1. Derivatives")
	assert.Contains(t, md, "## Chapter 1: Derivatives")
	assert.Contains(t, md, "### Definition of the derivative")
	assert.Contains(t, md, "> - [05:30-05:45] tangent line sketch")
	assert.Contains(t, md, "- For example, f(x) = x^2 has derivative 2x.")

	// Transition appears before chapter 2 only.
	assert.Contains(t, md, "*With derivatives in hand, we turn to the limits underpinning them.*")
	chapterOne := md[:strings.Index(md, "## Chapter 2")]
	assert.NotContains(t, chapterOne, "With derivatives in hand")
}

func TestExportMarkdown(t *testing.T) {
	e, err := NewExporter(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	path, err := e.ExportMarkdown(sampleStructure(), sampleTransitions())
	require.NoError(t, err)
	assert.Equal(t, "Calculus Fundamentals.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Calculus Fundamentals")
}

func TestExportHTML(t *testing.T) {
	e, err := NewExporter(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	path, err := e.ExportHTML(sampleStructure(), sampleTransitions())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "<!DOCTYPE html>")
	assert.Contains(t, content, "<title>Calculus Fundamentals</title>")
	assert.Contains(t, content, "Chapter 1: Derivatives")
	assert.Contains(t, content, "tangent line sketch")
}

func TestExportPDF(t *testing.T) {
	e, err := NewExporter(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	path, err := e.ExportPDF(sampleStructure(), sampleTransitions())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Equal(t, ".pdf", filepath.Ext(path))
}

func TestExportAllFormats(t *testing.T) {
	e, err := NewExporter(t.TempDir(), common.GetLogger())
	require.NoError(t, err)

	written := e.Export([]string{"markdown", "html", "pdf", "epub"}, sampleStructure(), sampleTransitions())

	// epub is not supported and is skipped, not fatal.
	assert.Len(t, written, 3)
	assert.Contains(t, written, "markdown")
	assert.Contains(t, written, "html")
	assert.Contains(t, written, "pdf")
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", sanitizeFilename("a/b:c"))
	assert.Equal(t, "course", sanitizeFilename("  "))
}
