package llm

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/doceo/internal/extract"
	"github.com/ternarybob/doceo/internal/interfaces"
)

func TestMockServiceRouting(t *testing.T) {
	mock := NewMockService()
	ctx := context.Background()

	tests := []struct {
		name    string
		prompt  string
		contain string
	}{
		{"course structure", `Organize these topics into 3-8 chapters.`, "Calculus Fundamentals"},
		{"topic merge", `Return JSON with "merged_topics".`, "merged_topics"},
		{"topic identification", `Group these points into topic clusters.`, "topic_0"},
		{"duplicate confirmation", `Reply with "is_duplicate", "best_title".`, "is_duplicate"},
		{"point extraction", `Return JSON with a "points" array.`, "Sample point"},
		{"annotation", `Insert [needs visual: ...] markers.`, "needs visual"},
		{"condensing", `Remove filler from this transcript.`, "condensed"},
		{"fallback", "Something else entirely.", "Mock generated content."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := mock.Generate(ctx, tt.prompt, 0.3)
			require.NoError(t, err)
			assert.Contains(t, reply, tt.contain)
		})
	}

	assert.Len(t, mock.Calls, len(tests))
	assert.Equal(t, interfaces.LLMModeMock, mock.GetMode())
}

func TestMockServiceConcurrentGenerate(t *testing.T) {
	mock := NewMockService()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mock.Generate(ctx, "Remove filler from this transcript.", 0.3)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Len(t, mock.Calls, workers)
}

func TestMockServiceRepliesParse(t *testing.T) {
	mock := NewMockService()
	ctx := context.Background()

	reply, err := mock.Generate(ctx, `Group these points into topic clusters.`, 0.3)
	require.NoError(t, err)

	var parsed struct {
		Topics []struct {
			ID           string `json:"id"`
			PointIndices []int  `json:"point_indices"`
		} `json:"topics"`
	}
	result := extract.JSON(reply, &parsed)
	require.True(t, result.Parsed())
	require.Len(t, parsed.Topics, 2)
	assert.Equal(t, []int{0, 1}, parsed.Topics[0].PointIndices)
}
