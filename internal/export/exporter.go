package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/models"
)

// Exporter renders a reconciled course structure to textbook files. All
// formats share the same markdown source; HTML and PDF are derived views.
type Exporter struct {
	outputDir string
	logger    arbor.ILogger
}

// NewExporter creates an exporter writing into outputDir, creating it if
// needed.
func NewExporter(outputDir string, logger arbor.ILogger) (*Exporter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return &Exporter{outputDir: outputDir, logger: logger}, nil
}

// Export renders the structure in each requested format and returns the
// written paths keyed by format. A failed format is logged and skipped; the
// remaining formats still export.
func (e *Exporter) Export(formats []string, structure models.CourseStructure, transitions map[int]string) map[string]string {
	written := make(map[string]string)

	for _, format := range formats {
		var path string
		var err error

		switch strings.ToLower(format) {
		case "markdown", "md":
			path, err = e.ExportMarkdown(structure, transitions)
		case "html":
			path, err = e.ExportHTML(structure, transitions)
		case "pdf":
			path, err = e.ExportPDF(structure, transitions)
		default:
			e.logger.Warn().Str("format", format).Msg("Unknown export format, skipping")
			continue
		}

		if err != nil {
			e.logger.Error().Err(err).Str("format", format).Msg("Export failed")
			continue
		}
		written[strings.ToLower(format)] = path
		e.logger.Info().Str("format", format).Str("path", path).Msg("Exported course")
	}
	return written
}

// outputPath builds a filesystem-safe path for the course under outputDir.
func (e *Exporter) outputPath(courseName, ext string) string {
	return filepath.Join(e.outputDir, sanitizeFilename(courseName)+ext)
}

// sanitizeFilename replaces path separators and other hostile characters so
// a model-chosen course name can serve as a file name.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "course"
	}
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	return replacer.Replace(name)
}
