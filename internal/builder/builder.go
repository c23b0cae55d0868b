package builder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/clustering"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/export"
	"github.com/ternarybob/doceo/internal/fusion"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
	"github.com/ternarybob/doceo/internal/pipeline"
)

// Builder wires the full course build: per-document pipeline fan-out,
// cross-document reconciliation, topic clustering, transition writing, and
// export.
type Builder struct {
	config      *common.Config
	scheduler   *pipeline.Scheduler
	pipeline    *pipeline.Pipeline
	reconciler  *fusion.Reconciler
	clusterer   *clustering.Clusterer
	transitions *fusion.TransitionGenerator
	exporter    *export.Exporter
	logger      arbor.ILogger
}

// BuildResult summarizes one completed course build.
type BuildResult struct {
	RunID       string
	Documents   int
	Points      int
	MergedCount int
	Structure   models.CourseStructure
	Transitions map[int]string
	Exports     map[string]string
}

// New creates a builder over the given generate service and ledger.
func New(config *common.Config, llm interfaces.GenerateService, storage interfaces.DocumentStorage, logger arbor.ILogger) (*Builder, error) {
	exporter, err := export.NewExporter(config.Export.OutputDir, logger)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(llm, storage, logger)
	return &Builder{
		config:      config,
		pipeline:    p,
		scheduler:   pipeline.NewScheduler(p, config.Pipeline.MaxWorkers, logger),
		reconciler:  fusion.NewReconciler(llm, config.Fusion.SimilarityThreshold, logger),
		clusterer:   clustering.NewClusterer(llm, config.Clustering.BatchSize, logger),
		transitions: fusion.NewTransitionGenerator(llm, logger),
		exporter:    exporter,
		logger:      logger,
	}, nil
}

// ProcessFile runs the stage pipeline over one transcript.
func (b *Builder) ProcessFile(ctx context.Context, path string) (*models.Document, error) {
	return b.pipeline.ProcessDocument(ctx, path)
}

// ProcessDirectory fans the pipeline out over every transcript under dir.
func (b *Builder) ProcessDirectory(ctx context.Context, dir string) ([]*models.Document, error) {
	paths, err := pipeline.Discover(dir)
	if err != nil {
		return nil, err
	}
	return b.scheduler.RunAll(ctx, paths), nil
}

// BuildCourse processes every transcript under dir, reconciles the
// resulting knowledge across documents, and exports the assembled course.
func (b *Builder) BuildCourse(ctx context.Context, dir string) (*BuildResult, error) {
	runID := uuid.NewString()
	logger := b.logger
	logger.Info().Str("run_id", runID).Str("dir", dir).Msg("Starting course build")

	docs, err := b.ProcessDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("document processing failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents completed under %s", dir)
	}

	var points []models.KnowledgePoint
	for _, doc := range docs {
		points = append(points, doc.KnowledgePoints...)
	}
	logger.Info().
		Str("run_id", runID).
		Int("documents", len(docs)).
		Int("points", len(points)).
		Msg("Documents processed")

	merged := b.reconciler.MergeDuplicates(ctx, points)
	structure := b.clusterer.Cluster(ctx, merged)
	transitions := b.transitions.Generate(ctx, structure.Chapters)
	exports := b.exporter.Export(b.config.Export.Formats, structure, transitions)

	logger.Info().
		Str("run_id", runID).
		Str("course", structure.Name).
		Int("chapters", len(structure.Chapters)).
		Int("exports", len(exports)).
		Msg("Course build complete")

	return &BuildResult{
		RunID:       runID,
		Documents:   len(docs),
		Points:      len(points),
		MergedCount: len(merged),
		Structure:   structure,
		Transitions: transitions,
		Exports:     exports,
	}, nil
}
