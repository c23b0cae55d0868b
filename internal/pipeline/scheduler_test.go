package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/services/llm"
)

func TestRunAllEmptyInput(t *testing.T) {
	p := New(llm.NewMockService(), newTestStorage(t), common.GetLogger())
	s := NewScheduler(p, 3, common.GetLogger())

	results := s.RunAll(context.Background(), nil)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestRunAllFailureIsolation(t *testing.T) {
	p := New(llm.NewMockService(), newTestStorage(t), common.GetLogger())
	s := NewScheduler(p, 2, common.GetLogger())

	dir := t.TempDir()
	paths := make([]string, 0, 5)
	for i := 1; i <= 5; i++ {
		name := fmt.Sprintf("lecture%02d.txt", i)
		if i == 3 {
			// Never written: this document fails at the read step.
			paths = append(paths, filepath.Join(dir, name))
			continue
		}
		paths = append(paths, writeTranscript(t, dir, name,
			fmt.Sprintf("Lecture %d covers the derivative.", i)))
	}

	results := s.RunAll(context.Background(), paths)

	// Four of five complete; the failed document is omitted and the
	// discovery order of the survivors is preserved.
	require.Len(t, results, 4)
	assert.Equal(t, paths[0], results[0].Record.Path)
	assert.Equal(t, paths[1], results[1].Record.Path)
	assert.Equal(t, paths[3], results[2].Record.Path)
	assert.Equal(t, paths[4], results[3].Record.Path)
}

func TestRunAllConcurrencyClamp(t *testing.T) {
	p := New(llm.NewMockService(), newTestStorage(t), common.GetLogger())
	s := NewScheduler(p, 0, common.GetLogger())

	dir := t.TempDir()
	paths := []string{
		writeTranscript(t, dir, "a.txt", "Content about limits."),
		writeTranscript(t, dir, "b.txt", "Content about derivatives."),
	}

	results := s.RunAll(context.Background(), paths)
	assert.Len(t, results, 2)
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "b.srt", sampleSRT)
	writeTranscript(t, dir, "a.txt", "Plain text lecture.")
	writeTranscript(t, dir, "notes.md", "Ignored format.")

	paths, err := Discover(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "a.txt"), paths[0])
	assert.Equal(t, filepath.Join(dir, "b.srt"), paths[1])
}
