package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/models"
)

// Scheduler fans the stage pipeline out over a document set with bounded
// concurrency. Admission is a counting gate: at most maxWorkers documents
// are inside the pipeline at once, admitted in discovery order.
type Scheduler struct {
	pipeline   *Pipeline
	maxWorkers int
	logger     arbor.ILogger
}

// NewScheduler creates a scheduler over the given pipeline. maxWorkers
// values below 1 are clamped to 1.
func NewScheduler(pipeline *Pipeline, maxWorkers int, logger arbor.ILogger) *Scheduler {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Scheduler{
		pipeline:   pipeline,
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

// Discover returns the processable transcript paths under dir, sorted.
func Discover(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.srt", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}

// RunAll processes every path, isolating failures per document. The returned
// slice holds the successfully completed documents in discovery order; failed
// documents are omitted and logged with their identity and failure reason.
// An empty input yields an empty result, not an error.
func (s *Scheduler) RunAll(ctx context.Context, paths []string) []*models.Document {
	if len(paths) == 0 {
		return []*models.Document{}
	}

	results := make([]*models.Document, len(paths))
	sem := make(chan struct{}, s.maxWorkers)
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(slot int, path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			doc, err := s.pipeline.ProcessDocument(ctx, path)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("path", path).
					Msg("Document failed, continuing with remainder")
				return
			}
			results[slot] = doc
		}(i, path)
	}
	wg.Wait()

	completed := make([]*models.Document, 0, len(paths))
	for _, doc := range results {
		if doc != nil {
			completed = append(completed, doc)
		}
	}

	s.logger.Info().
		Int("discovered", len(paths)).
		Int("completed", len(completed)).
		Int("failed", len(paths)-len(completed)).
		Msg("Batch run finished")
	return completed
}
