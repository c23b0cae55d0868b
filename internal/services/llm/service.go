package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/common"
	"github.com/ternarybob/doceo/internal/interfaces"
	"golang.org/x/time/rate"
)

// Service implements interfaces.GenerateService by wrapping one provider
// with request throttling, a best-effort response cache, and audit logging.
type Service struct {
	provider Provider
	model    string
	limiter  *rate.Limiter
	cache    *ResponseCache
	audit    AuditLogger
	logger   arbor.ILogger
}

// Options carries the optional collaborators for a Service. Either field
// may be nil; the service degrades to uncached / unaudited operation.
type Options struct {
	Cache *ResponseCache
	Audit AuditLogger
}

// NewService builds the generate service for the configured default
// provider.
func NewService(ctx context.Context, config *common.Config, opts Options, logger arbor.ILogger) (*Service, error) {
	var provider Provider
	var model string
	var err error

	switch config.LLM.DefaultProvider {
	case "claude":
		provider, err = NewClaudeProvider(&config.Claude, logger)
		model = config.Claude.Model
	case "gemini":
		provider, err = NewGeminiProvider(ctx, &config.Gemini, logger)
		model = config.Gemini.Model
	case "mock":
		return nil, fmt.Errorf("mock provider is constructed directly with NewMockService")
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", config.LLM.DefaultProvider)
	}
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(config.LLM.RateLimit)
	if err != nil || interval <= 0 {
		interval = time.Second
	}

	logger.Info().
		Str("provider", string(provider.Type())).
		Str("model", model).
		Dur("rate_limit", interval).
		Bool("cache", opts.Cache != nil).
		Msg("Generate service initialized")

	return &Service{
		provider: provider,
		model:    model,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		cache:    opts.Cache,
		audit:    opts.Audit,
		logger:   logger,
	}, nil
}

// Generate produces a completion for one prompt, waiting on the limiter,
// consulting the cache, and recording the outcome in the audit log.
func (s *Service) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait cancelled: %w", err)
	}

	var key []byte
	if s.cache != nil {
		key = Key(s.provider.Type(), s.model, prompt, temperature)
		if reply, ok := s.cache.Get(key); ok {
			s.logger.Debug().Int("prompt_length", len(prompt)).Msg("Generate cache hit")
			return reply, nil
		}
	}

	start := time.Now()
	reply, err := s.provider.GenerateContent(ctx, prompt, temperature)
	duration := time.Since(start)

	if s.audit != nil {
		_ = s.audit.LogGenerate(s.provider.Type(), err == nil, duration, err, prompt)
	}

	if err != nil {
		s.logger.Error().
			Err(err).
			Dur("duration", duration).
			Int("prompt_length", len(prompt)).
			Msg("Generate call failed")
		return "", err
	}

	s.logger.Debug().
		Dur("duration", duration).
		Int("prompt_length", len(prompt)).
		Int("reply_length", len(reply)).
		Msg("Generate call completed")

	if s.cache != nil {
		s.cache.Set(key, reply)
	}

	return reply, nil
}

// GetMode reports cloud operation for both API providers.
func (s *Service) GetMode() interfaces.LLMMode {
	return interfaces.LLMModeCloud
}

// Close releases the provider and cache.
func (s *Service) Close() error {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to close response cache")
		}
	}
	return s.provider.Close()
}
