package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/ternarybob/doceo/internal/interfaces"
)

// MockService is an offline GenerateService returning canned replies keyed
// on prompt content. Used by -offline runs and tests; it never touches the
// network. Safe for concurrent use: the scheduler drives one shared
// instance from multiple goroutines.
type MockService struct {
	mu sync.Mutex

	// Calls records every prompt received, in order. Guarded by mu; read it
	// only after all Generate calls have returned.
	Calls []string
}

// Compile-time assertion
var _ interfaces.GenerateService = (*MockService)(nil)

// NewMockService creates a new mock generate service.
func NewMockService() *MockService {
	return &MockService{}
}

// Generate returns a deterministic canned reply matched on prompt content.
// Match order mirrors prompt specificity: structure assembly before topic
// merge before topic identification, then extraction, annotation, and
// condensing.
func (m *MockService) Generate(_ context.Context, prompt string, _ float64) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, prompt)
	m.mu.Unlock()

	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "chapters"):
		return `{
  "course_name": "Calculus Fundamentals",
  "chapters": [
    {"order": 1, "title": "Derivatives", "topic_ids": ["topic_0"], "description": "The derivative concept", "learning_objectives": ["Define the derivative"]},
    {"order": 2, "title": "Limits", "topic_ids": ["topic_1"], "description": "Limit theory", "learning_objectives": ["Evaluate limits"]}
  ],
  "prerequisites": {"Derivatives": [], "Limits": ["Derivatives"]}
}`, nil

	case strings.Contains(lower, "merged_topics"):
		return `{"merged_topics": [{"id": "topic_0", "title": "Derivatives", "description": "Derivative material", "original_indices": [0], "keywords": ["derivative", "slope"]}]}`, nil

	case strings.Contains(lower, "topic clusters") || strings.Contains(lower, `"topics"`):
		return `{"topics": [{"id": "topic_0", "title": "Derivatives", "description": "Definition and geometry of the derivative", "point_indices": [0, 1], "keywords": ["derivative", "slope", "tangent"]}, {"id": "topic_1", "title": "Limits", "description": "The limit concept", "point_indices": [2], "keywords": ["limit", "approach"]}]}`, nil

	case strings.Contains(lower, "is_duplicate"):
		return `{"is_duplicate": true, "best_title": "Derivative", "confidence": 0.9, "reason": "Same concept, different phrasing"}`, nil

	case strings.Contains(lower, `"points"`):
		return `{"points": [{"title": "Sample point", "content": "Sample content extracted from the lecture."}]}`, nil

	case strings.Contains(lower, "needs visual"):
		return "[needs visual: 00:01-00:10] (curve with tangent line)\nSample annotated content.", nil

	case strings.Contains(lower, "filler") || strings.Contains(lower, "condense"):
		return "The condensed core content of the lecture.", nil

	default:
		return "Mock generated content.", nil
	}
}

// GetMode reports mock operation.
func (m *MockService) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeMock
}

// Close is a no-op for the mock.
func (m *MockService) Close() error {
	return nil
}
