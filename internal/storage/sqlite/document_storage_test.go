package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	config := &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		CacheSizeMB:   16,
		BusyTimeoutMS: 5000,
		WALMode:       false,
	}

	manager, err := NewManager(common.GetLogger(), config)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestAddDocumentIdempotent(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	id1, err := storage.AddDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)

	id2, err := storage.AddDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)

	assert.Equal(t, id1, id2, "re-adding the same path must return the same id")

	count, err := storage.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "re-adding the same path must not create a second row")
}

func TestAddDocumentDistinctPaths(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	id1, err := storage.AddDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)
	id2, err := storage.AddDocument(ctx, "lectures/lecture02.srt")
	require.NoError(t, err)

	assert.NotEqual(t, id1, id2)

	count, err := storage.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdateStatusAndGet(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	id, err := storage.AddDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)

	err = storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageCondensing, "")
	require.NoError(t, err)

	record, err := storage.GetDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, id, record.ID)
	assert.Equal(t, models.DocumentStatusProcessing, record.Status)
	assert.Equal(t, models.StageCondensing, record.Stage)

	err = storage.UpdateStatus(ctx, id, models.DocumentStatusDone, models.StageCompleted, "3 knowledge points")
	require.NoError(t, err)

	record, err = storage.GetDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusDone, record.Status)
	assert.Equal(t, "3 knowledge points", record.Result)
}

func TestUpdateStatusUnknownDocument(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()

	err := storage.UpdateStatus(context.Background(), 999, models.DocumentStatusDone, models.StageCompleted, "")
	assert.Error(t, err)
}

func TestGetDocumentUnknownPath(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()

	record, err := storage.GetDocument(context.Background(), "no/such/file.srt")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestListDocumentsByStatus(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	id1, err := storage.AddDocument(ctx, "a.srt")
	require.NoError(t, err)
	_, err = storage.AddDocument(ctx, "b.srt")
	require.NoError(t, err)

	err = storage.UpdateStatus(ctx, id1, models.DocumentStatusFailed, models.StageCleaning, "boom")
	require.NoError(t, err)

	failed, err := storage.ListDocuments(ctx, models.DocumentStatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "a.srt", failed[0].Path)

	pending, err := storage.ListDocuments(ctx, models.DocumentStatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "b.srt", pending[0].Path)
}

func TestConcurrentLedgerWrites(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	// One goroutine per document, each running the full write sequence.
	// Every write must succeed: the pool hands out fresh connections under
	// load, and each one needs the busy timeout or writers collide.
	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("lectures/lecture%02d.srt", i)
			id, err := storage.AddDocument(ctx, path)
			if err != nil {
				errs[i] = err
				return
			}
			if err := storage.UpdateStatus(ctx, id, models.DocumentStatusProcessing, models.StageCleaning, ""); err != nil {
				errs[i] = err
				return
			}
			if err := storage.SaveKnowledgePoint(ctx, id, models.KnowledgePoint{
				Title:      fmt.Sprintf("Point %d", i),
				Content:    "Concurrently written content.",
				SourceFile: path,
			}); err != nil {
				errs[i] = err
				return
			}
			errs[i] = storage.UpdateStatus(ctx, id, models.DocumentStatusDone, models.StageCompleted, "1 knowledge points")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "worker %d", i)
	}

	count, err := storage.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, count)

	done, err := storage.ListDocuments(ctx, models.DocumentStatusDone)
	require.NoError(t, err)
	assert.Len(t, done, workers)
}

func TestKnowledgePointRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.DocumentStorage()
	ctx := context.Background()

	id, err := storage.AddDocument(ctx, "lectures/lecture01.srt")
	require.NoError(t, err)

	point := models.KnowledgePoint{
		Title:   "Definition of the derivative",
		Content: "The derivative is the limit of the difference quotient.",
		VideoMarkers: []models.VideoMarker{
			{Time: "01:00 - 01:30", Description: "difference quotient on the board"},
		},
		SourceFile: "lectures/lecture01.srt",
		Importance: 5,
	}
	require.NoError(t, storage.SaveKnowledgePoint(ctx, id, point))

	// A second point without markers exercises the empty-markers path.
	require.NoError(t, storage.SaveKnowledgePoint(ctx, id, models.KnowledgePoint{
		Title:      "Notation",
		Content:    "Leibniz and Lagrange notation.",
		SourceFile: "lectures/lecture01.srt",
		Importance: 2,
	}))

	points, err := storage.ListKnowledgePoints(ctx, id)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, point.Title, points[0].Title)
	require.Len(t, points[0].VideoMarkers, 1)
	assert.Equal(t, "01:00 - 01:30", points[0].VideoMarkers[0].Time)
	assert.Empty(t, points[1].VideoMarkers)
}
