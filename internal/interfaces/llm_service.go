package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"

	// LLMModeMock indicates the service returns canned offline responses
	LLMModeMock LLMMode = "mock"
)

// GenerateService is the single capability every semantic stage depends on:
// one prompt in, unstructured text out. Implementations may suspend, may
// fail, and make no schema guarantee about the returned text; callers funnel
// all parsing through the extract package and follow their documented
// degrade path on error.
type GenerateService interface {
	// Generate produces a completion for the given prompt at the given
	// sampling temperature.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - prompt: Full prompt text
	//   - temperature: Sampling temperature in [0,1]
	//
	// Returns:
	//   - string: Raw generated text
	//   - error: Error if the service call fails
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)

	// GetMode returns the operational mode of the service.
	GetMode() LLMMode

	// Close releases underlying clients and caches.
	Close() error
}
