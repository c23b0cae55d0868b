package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/doceo/internal/builder"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
	"github.com/ternarybob/doceo/internal/services/llm"
	"github.com/ternarybob/doceo/internal/storage/sqlite"
)

// run dispatches the selected mode after shared setup. Exactly one of
// -process, -dir, -status is expected; -build, -watch and -offline modify
// the directory modes.
func run() error {
	manager, err := sqlite.NewManager(logger, &config.Storage.SQLite)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer manager.Close()

	if *showStatus {
		return printStatus(manager)
	}

	generate, err := newGenerateService(manager)
	if err != nil {
		return err
	}
	defer generate.Close()

	b, err := builder.New(config, generate, manager.DocumentStorage(), logger)
	if err != nil {
		return err
	}

	ctx := context.Background()

	switch {
	case *processFile != "":
		return runProcessFile(ctx, b, *processFile)
	case *processDir != "" && *watchMode:
		return runWatch(b, *processDir)
	case *processDir != "" && *buildCourse:
		return runBuild(ctx, b, *processDir)
	case *processDir != "":
		return runProcessDir(ctx, b, *processDir)
	default:
		return fmt.Errorf("nothing to do: pass -process <file>, -dir <directory>, or -status")
	}
}

// newGenerateService builds the configured provider stack: cache and audit
// log around a cloud provider, or the offline mock.
func newGenerateService(manager *sqlite.Manager) (interfaces.GenerateService, error) {
	if config.LLM.DefaultProvider == "mock" {
		logger.Info().Msg("Offline mode: generative calls return canned replies")
		return llm.NewMockService(), nil
	}

	opts := llm.Options{
		Audit: llm.NewSQLiteAuditLogger(manager.DB(), config.LLM.LogPrompts, logger),
	}
	if config.Storage.Cache.Enabled {
		cache, err := llm.NewResponseCache(&config.Storage.Cache, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Response cache unavailable, continuing without it")
		} else {
			opts.Cache = cache
		}
	}

	return llm.NewService(context.Background(), config, opts, logger)
}

func runProcessFile(ctx context.Context, b *builder.Builder, path string) error {
	doc, err := b.ProcessFile(ctx, path)
	if err != nil {
		return err
	}

	fmt.Printf("Processed: %s\n", doc.Record.Path)
	fmt.Printf("Knowledge points: %d\n", len(doc.KnowledgePoints))
	for i, point := range doc.KnowledgePoints {
		if i >= 3 {
			break
		}
		fmt.Printf("\n%d. %s\n   %s\n", i+1, point.Title, preview(point.Content, 100))
	}
	return nil
}

func runProcessDir(ctx context.Context, b *builder.Builder, dir string) error {
	docs, err := b.ProcessDirectory(ctx, dir)
	if err != nil {
		return err
	}

	total := 0
	for _, doc := range docs {
		total += len(doc.KnowledgePoints)
	}
	fmt.Printf("Processed %d documents, %d knowledge points\n", len(docs), total)
	return nil
}

func runBuild(ctx context.Context, b *builder.Builder, dir string) error {
	result, err := b.BuildCourse(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Printf("Course: %s\n", result.Structure.Name)
	fmt.Printf("Documents: %d, points: %d (merged to %d)\n", result.Documents, result.Points, result.MergedCount)
	fmt.Printf("Chapters: %d\n", len(result.Structure.Chapters))
	for format, path := range result.Exports {
		fmt.Printf("  %s: %s\n", format, path)
	}
	return nil
}

// runWatch runs one build immediately, then keeps rebuilding on the
// configured schedule until interrupted.
func runWatch(b *builder.Builder, dir string) error {
	if _, err := b.BuildCourse(context.Background(), dir); err != nil {
		logger.Warn().Err(err).Msg("Initial build failed, watch continues")
	}

	w, err := builder.NewWatcher(b, config.Watch.Schedule, dir, logger)
	if err != nil {
		return err
	}
	w.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	w.Stop()
	return nil
}

// printStatus reports ledger counts and the most recent records, the
// operator's view of interrupted or failed runs.
func printStatus(manager *sqlite.Manager) error {
	ctx := context.Background()
	storage := manager.DocumentStorage()

	total, err := storage.CountDocuments(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Documents: %d total\n", total)
	for _, status := range []models.DocumentStatus{
		models.DocumentStatusPending,
		models.DocumentStatusProcessing,
		models.DocumentStatusDone,
		models.DocumentStatusFailed,
	} {
		records, err := storage.ListDocuments(ctx, status)
		if err != nil {
			return err
		}
		fmt.Printf("  %s: %d\n", status, len(records))

		// Interrupted and failed runs need operator attention.
		if status == models.DocumentStatusProcessing || status == models.DocumentStatusFailed {
			for _, record := range records {
				fmt.Printf("    %s (%s)\n", record.Path, record.Stage)
			}
		}
	}
	return nil
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
