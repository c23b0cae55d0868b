package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/extract"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
	"github.com/ternarybob/doceo/internal/transcript"
)

const (
	condenseInputLimit  = 4000
	structureInputLimit = 3000
	degradePrefixLimit  = 1000

	condenseTemperature  = 0.3
	structureTemperature = 0.3
	annotateTemperature  = 0.3
)

// Matches inline visual markers the annotation stage asks the model to emit,
// e.g. [needs visual: 05:30-05:45] (tangent line sketch)
var visualMarkerRe = regexp.MustCompile(`\[needs visual:\s*([\d:]+\s*-\s*[\d:]+)\]\s*\(([^)]+)\)`)

// Pipeline runs one document through the four extraction stages, persisting
// each transition to the progress ledger. Stage order is fixed:
// normalize (rule-based), condense, structure, annotate.
type Pipeline struct {
	llm        interfaces.GenerateService
	storage    interfaces.DocumentStorage
	normalizer *Normalizer
	logger     arbor.ILogger
}

// New creates a stage pipeline over the given generate service and ledger.
func New(llm interfaces.GenerateService, storage interfaces.DocumentStorage, logger arbor.ILogger) *Pipeline {
	return &Pipeline{
		llm:        llm,
		storage:    storage,
		normalizer: &Normalizer{},
		logger:     logger,
	}
}

// ProcessDocument runs all four stages over one transcript. Any failure in
// the generative stages is caught here and recorded to the ledger as
// status=failed with the error summary as the stage label; the document is
// never retried automatically.
func (p *Pipeline) ProcessDocument(ctx context.Context, path string) (*models.Document, error) {
	id, err := p.storage.AddDocument(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to register document %s: %w", path, err)
	}

	doc := &models.Document{
		Record: models.DocumentRecord{ID: id, Path: path},
	}

	content, err := p.readDocument(path)
	if err != nil {
		p.recordFailure(ctx, id, err)
		return nil, err
	}
	doc.Content = content

	// Stage 1: normalize (rule-based, cannot fail)
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageCleaning, ""); err != nil {
		return nil, err
	}
	doc.Content = p.normalizer.Normalize(doc.Content)

	// Stage 2: condense
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageCondensing, ""); err != nil {
		return nil, err
	}
	if err := p.stageCondense(ctx, doc); err != nil {
		p.recordFailure(ctx, id, err)
		return nil, err
	}

	// Stage 3: structure
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageStructuring, ""); err != nil {
		return nil, err
	}
	p.stageStructure(ctx, doc)

	// Stage 4: annotate
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageAnnotating, ""); err != nil {
		return nil, err
	}
	p.stageAnnotate(ctx, doc)

	// Fragments first, terminal status last: a record never reads done
	// while its points are missing.
	for _, point := range doc.KnowledgePoints {
		if err := p.storage.SaveKnowledgePoint(ctx, id, point); err != nil {
			p.recordFailure(ctx, id, err)
			return nil, err
		}
	}

	result := fmt.Sprintf("%d knowledge points", len(doc.KnowledgePoints))
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusDone, models.StageCompleted, result); err != nil {
		return nil, err
	}

	doc.Record.Status = models.DocumentStatusDone
	doc.Record.Stage = models.StageCompleted
	doc.Record.Result = result

	p.logger.Info().
		Str("path", path).
		Int("points", len(doc.KnowledgePoints)).
		Msg("Document processed")
	return doc, nil
}

// readDocument loads the raw text. SRT files are flattened to timestamped
// plaintext so the stages see one uniform input shape.
func (p *Pipeline) readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".srt") {
		entries := transcript.Parse(string(data))
		return transcript.ToPlaintext(entries, true), nil
	}
	return string(data), nil
}

// stageCondense issues one generative call that strips conversational filler.
// The reply replaces the working text verbatim.
func (p *Pipeline) stageCondense(ctx context.Context, doc *models.Document) error {
	prompt := fmt.Sprintf(`Remove the filler from the following lecture transcript: greetings, small talk, repeated emphasis, and conversational asides. Keep every substantive point.

%s

Output only the condensed content, no commentary:`, truncate(doc.Content, condenseInputLimit))

	condensed, err := p.llm.Generate(ctx, prompt, condenseTemperature)
	if err != nil {
		return fmt.Errorf("condense stage failed for %s: %w", doc.Record.Path, err)
	}
	doc.Content = condensed
	return nil
}

type structureReply struct {
	Points []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"points"`
}

// stageStructure extracts titled knowledge points. It never fails the
// document: on a generative or extraction failure it degrades to a single
// point holding a truncated prefix of the condensed text.
func (p *Pipeline) stageStructure(ctx context.Context, doc *models.Document) {
	prompt := fmt.Sprintf(`Analyze the following lecture content and extract structured knowledge points.

Content:
%s

Respond in this JSON format:
{
  "points": [
    {
      "title": "Knowledge point title",
      "content": "Detailed content"
    }
  ]
}

Output only the JSON, nothing else:`, truncate(doc.Content, structureInputLimit))

	var reply structureReply
	if raw, err := p.llm.Generate(ctx, prompt, structureTemperature); err != nil {
		p.logger.Warn().Err(err).Str("path", doc.Record.Path).Msg("Structure call failed, degrading to single point")
	} else if result := extract.JSON(raw, &reply); !result.Parsed() {
		p.logger.Warn().Str("path", doc.Record.Path).Msg("Structure reply unparseable, degrading to single point")
		reply.Points = nil
	}

	if len(reply.Points) == 0 {
		doc.KnowledgePoints = []models.KnowledgePoint{{
			Title:      "Content",
			Content:    truncate(doc.Content, degradePrefixLimit),
			SourceFile: doc.Record.Path,
			Importance: 3,
		}}
		return
	}

	doc.KnowledgePoints = make([]models.KnowledgePoint, 0, len(reply.Points))
	for _, point := range reply.Points {
		doc.KnowledgePoints = append(doc.KnowledgePoints, models.KnowledgePoint{
			Title:      point.Title,
			Content:    point.Content,
			SourceFile: doc.Record.Path,
			Importance: 3,
		})
	}
}

// stageAnnotate asks, per point, whether a visual reference is needed and
// scans the reply for inline markers. Per-point failures leave that point's
// markers empty; they never fail the document.
func (p *Pipeline) stageAnnotate(ctx context.Context, doc *models.Document) {
	for i := range doc.KnowledgePoints {
		point := &doc.KnowledgePoints[i]
		prompt := fmt.Sprintf(`Review the following knowledge point and decide whether it needs an accompanying visual (diagram, derivation, animation) to be understood.

Title: %s
Content: %s

Where a visual is required, insert a marker before the relevant passage:
[needs visual: <time range>] (<description>)

For example:
[needs visual: 05:30-05:45] (tangent line sketch)

Output the amended content, or the original text if no visual is needed:`, point.Title, point.Content)

		annotated, err := p.llm.Generate(ctx, prompt, annotateTemperature)
		if err != nil {
			p.logger.Warn().Err(err).Str("title", point.Title).Msg("Annotation call failed, leaving point unmarked")
			continue
		}

		point.Content = annotated
		for _, m := range visualMarkerRe.FindAllStringSubmatch(annotated, -1) {
			point.VideoMarkers = append(point.VideoMarkers, models.VideoMarker{
				Time:        m[1],
				Description: m[2],
			})
		}
	}
}

// recordFailure marks the ledger record failed, keeping the error summary as
// the stage label for operator review. Ledger write errors here are logged
// and swallowed: the original failure is the one worth propagating.
func (p *Pipeline) recordFailure(ctx context.Context, id int64, cause error) {
	summary := cause.Error()
	if len(summary) > 200 {
		summary = summary[:200]
	}
	if err := p.storage.UpdateStatus(ctx, id, models.DocumentStatusFailed, summary, ""); err != nil {
		p.logger.Error().Err(err).Int64("doc_id", id).Msg("Failed to record document failure")
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
