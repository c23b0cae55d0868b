package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/interfaces"
	"github.com/ternarybob/doceo/internal/models"
	"github.com/ternarybob/doceo/internal/services/llm"
	"github.com/ternarybob/doceo/internal/storage/sqlite"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Um, so today we look at derivatives.

2
00:00:05,000 --> 00:00:09,000
The derivative is basically the slope of the tangent line.
`

func newTestStorage(t *testing.T) interfaces.DocumentStorage {
	t.Helper()

	manager, err := sqlite.NewManager(common.GetLogger(), &common.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		CacheSizeMB:   16,
		BusyTimeoutMS: 5000,
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager.DocumentStorage()
}

func writeTranscript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProcessDocument(t *testing.T) {
	storage := newTestStorage(t)
	mock := llm.NewMockService()
	p := New(mock, storage, common.GetLogger())

	path := writeTranscript(t, t.TempDir(), "lecture01.srt", sampleSRT)

	doc, err := p.ProcessDocument(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, models.DocumentStatusDone, doc.Record.Status)
	assert.Equal(t, models.StageCompleted, doc.Record.Stage)
	require.Len(t, doc.KnowledgePoints, 1)

	point := doc.KnowledgePoints[0]
	assert.Equal(t, "Sample point", point.Title)
	assert.Equal(t, path, point.SourceFile)
	require.Len(t, point.VideoMarkers, 1)
	assert.Equal(t, "00:01-00:10", point.VideoMarkers[0].Time)
	assert.Equal(t, "curve with tangent line", point.VideoMarkers[0].Description)

	// Ledger holds the terminal record and the persisted points.
	record, err := storage.GetDocument(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DocumentStatusDone, record.Status)

	points, err := storage.ListKnowledgePoints(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestProcessDocumentMissingFile(t *testing.T) {
	storage := newTestStorage(t)
	p := New(llm.NewMockService(), storage, common.GetLogger())

	path := filepath.Join(t.TempDir(), "missing.srt")
	_, err := p.ProcessDocument(context.Background(), path)
	require.Error(t, err)

	record, err := storage.GetDocument(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DocumentStatusFailed, record.Status)
	assert.NotEmpty(t, record.Stage, "error summary is recorded as the stage label")
}

// failingService errors on every generative call.
type failingService struct{}

func (f *failingService) Generate(context.Context, string, float64) (string, error) {
	return "", errors.New("service unavailable")
}
func (f *failingService) GetMode() interfaces.LLMMode { return interfaces.LLMModeMock }
func (f *failingService) Close() error                { return nil }

func TestProcessDocumentCondenseFailure(t *testing.T) {
	storage := newTestStorage(t)
	p := New(&failingService{}, storage, common.GetLogger())

	path := writeTranscript(t, t.TempDir(), "lecture01.txt", "The derivative measures instantaneous change.")
	_, err := p.ProcessDocument(context.Background(), path)
	require.Error(t, err)

	record, err := storage.GetDocument(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DocumentStatusFailed, record.Status)
	assert.Contains(t, record.Stage, "condense stage failed")
}

// pointSaveFailingStorage delegates to a real ledger but rejects every
// knowledge point insert.
type pointSaveFailingStorage struct {
	interfaces.DocumentStorage
}

func (s *pointSaveFailingStorage) SaveKnowledgePoint(context.Context, int64, models.KnowledgePoint) error {
	return errors.New("disk full")
}

func TestProcessDocumentPointSaveFailure(t *testing.T) {
	inner := newTestStorage(t)
	p := New(llm.NewMockService(), &pointSaveFailingStorage{DocumentStorage: inner}, common.GetLogger())

	path := writeTranscript(t, t.TempDir(), "lecture01.srt", sampleSRT)
	_, err := p.ProcessDocument(context.Background(), path)
	require.Error(t, err)

	// The record must never read done while its points are missing.
	record, err := inner.GetDocument(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DocumentStatusFailed, record.Status)

	points, err := inner.ListKnowledgePoints(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Empty(t, points)
}

// condensOnlyService succeeds at condensing but returns garbage for the
// structure call, forcing the single-point degrade path.
type condenseOnlyService struct{}

func (c *condenseOnlyService) Generate(_ context.Context, prompt string, _ float64) (string, error) {
	return "no structured data here at all", nil
}
func (c *condenseOnlyService) GetMode() interfaces.LLMMode { return interfaces.LLMModeMock }
func (c *condenseOnlyService) Close() error                { return nil }

func TestProcessDocumentStructureDegrade(t *testing.T) {
	storage := newTestStorage(t)
	p := New(&condenseOnlyService{}, storage, common.GetLogger())

	path := writeTranscript(t, t.TempDir(), "lecture01.txt", "The derivative measures instantaneous change.")
	doc, err := p.ProcessDocument(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.KnowledgePoints, 1)
	assert.Equal(t, "Content", doc.KnowledgePoints[0].Title)
	assert.NotEmpty(t, doc.KnowledgePoints[0].Content)
	assert.Equal(t, models.DocumentStatusDone, doc.Record.Status)
}
