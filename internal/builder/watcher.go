package builder

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Watcher rebuilds the course on a cron schedule so new transcripts dropped
// into the watched directory are picked up without operator action. The
// ledger makes rescans cheap: already-processed documents are re-submitted
// idempotently.
type Watcher struct {
	cron    *cron.Cron
	builder *Builder
	dir     string
	logger  arbor.ILogger

	mu      sync.Mutex
	running bool
}

// NewWatcher schedules builds of dir per the cron expression, e.g.
// "@every 5m" or "0 * * * *".
func NewWatcher(b *Builder, schedule, dir string, logger arbor.ILogger) (*Watcher, error) {
	w := &Watcher{
		cron:    cron.New(),
		builder: b,
		dir:     dir,
		logger:  logger,
	}

	if _, err := w.cron.AddFunc(schedule, w.rebuild); err != nil {
		return nil, fmt.Errorf("invalid watch schedule %q: %w", schedule, err)
	}
	return w, nil
}

// rebuild runs one build pass, skipping if a previous pass is still running.
func (w *Watcher) rebuild() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Warn().Msg("Previous build still running, skipping this pass")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	result, err := w.builder.BuildCourse(context.Background(), w.dir)
	if err != nil {
		w.logger.Error().Err(err).Str("dir", w.dir).Msg("Scheduled build failed")
		return
	}
	w.logger.Info().
		Str("run_id", result.RunID).
		Int("documents", result.Documents).
		Msg("Scheduled build complete")
}

// Start begins the schedule. The first build runs at the first tick, not
// immediately.
func (w *Watcher) Start() {
	w.logger.Info().Str("dir", w.dir).Msg("Watch mode started")
	w.cron.Start()
}

// Stop halts the schedule and waits for any in-flight build to finish.
func (w *Watcher) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info().Msg("Watch mode stopped")
}
