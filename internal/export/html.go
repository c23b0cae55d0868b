package export

import (
	"bytes"
	"fmt"
	"html"
	"os"

	"github.com/ternarybob/doceo/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            max-width: 800px;
            margin: 0 auto;
            padding: 20px;
            line-height: 1.6;
            color: #333;
        }
        h1 { color: #1a1a1a; }
        h2 {
            color: #007bff;
            border-bottom: 2px solid #007bff;
            padding-bottom: 10px;
            margin-top: 40px;
        }
        h3 { color: #555; margin-top: 30px; }
        em { color: #666; }
        blockquote {
            background: #f0f7ff;
            border-left: 3px solid #007bff;
            padding: 10px 15px;
            margin: 15px 0;
        }
        @media (max-width: 600px) {
            body { padding: 15px; }
        }
    </style>
</head>
<body>
%s
</body>
</html>
`

// ExportHTML renders the markdown view to a standalone styled HTML file.
func (e *Exporter) ExportHTML(structure models.CourseStructure, transitions map[int]string) (string, error) {
	markdown := BuildMarkdown(structure, transitions)

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("failed to render HTML body: %w", err)
	}

	content := fmt.Sprintf(htmlShell, html.EscapeString(structure.Name), body.String())

	path := e.outputPath(structure.Name, ".html")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write HTML export: %w", err)
	}
	return path, nil
}
