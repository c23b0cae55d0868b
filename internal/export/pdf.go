package export

import (
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/doceo/internal/models"
)

// ExportPDF renders the course directly to a PDF. The layout mirrors the
// markdown view: course title, contents, chapters with transitions, points
// and their video references.
func (e *Exporter) ExportPDF(structure models.CourseStructure, transitions map[int]string) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.MultiCell(0, 10, structure.Name, "", "L", false)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 13)
	pdf.MultiCell(0, 8, "Contents", "", "L", false)
	pdf.SetFont("Arial", "", 10)
	for _, ch := range structure.Chapters {
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", ch.Order, ch.Title), "", "L", false)
	}

	for i, ch := range structure.Chapters {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 15)
		pdf.MultiCell(0, 9, fmt.Sprintf("Chapter %d: %s", ch.Order, ch.Title), "", "L", false)
		pdf.Ln(2)

		if transition, ok := transitions[i]; ok && transition != "" {
			pdf.SetFont("Arial", "I", 10)
			pdf.MultiCell(0, 5, transition, "", "L", false)
			pdf.Ln(2)
		}

		if len(ch.LearningObjectives) > 0 {
			pdf.SetFont("Arial", "B", 10)
			pdf.MultiCell(0, 5, "Learning objectives:", "", "L", false)
			pdf.SetFont("Arial", "", 10)
			for _, objective := range ch.LearningObjectives {
				pdf.MultiCell(0, 5, "- "+objective, "", "L", false)
			}
			pdf.Ln(2)
		}

		for _, point := range ch.Points {
			pdf.SetFont("Arial", "B", 12)
			pdf.MultiCell(0, 7, point.Title, "", "L", false)
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, point.Content, "", "L", false)
			pdf.Ln(1)

			if len(point.VideoMarkers) > 0 {
				pdf.SetFont("Arial", "I", 9)
				pdf.SetFillColor(240, 247, 255)
				pdf.MultiCell(0, 5, "Watch the video:", "", "L", true)
				for _, marker := range point.VideoMarkers {
					pdf.MultiCell(0, 5, fmt.Sprintf("[%s] %s", marker.Time, marker.Description), "", "L", true)
				}
				pdf.SetFillColor(255, 255, 255)
				pdf.Ln(1)
			}
			pdf.Ln(2)
		}
	}

	path := e.outputPath(structure.Name, ".pdf")
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write PDF export: %w", err)
	}
	return path, nil
}
