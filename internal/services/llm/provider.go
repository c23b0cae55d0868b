package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/doceo/internal/common"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
)

// Provider defines the interface for raw content generation against one
// upstream API. The Service wraps a Provider with throttling, caching and
// audit logging.
type Provider interface {
	GenerateContent(ctx context.Context, prompt string, temperature float64) (string, error)
	Type() ProviderType
	Close() error
}

// ClaudeProvider generates content through the Anthropic Claude API.
type ClaudeProvider struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	retry     *RetryConfig
	logger    arbor.ILogger
}

// NewClaudeProvider creates a Claude provider from configuration.
func NewClaudeProvider(config *common.ClaudeConfig, logger arbor.ILogger) (*ClaudeProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, DOCEO_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "claude-haiku-3-5-20241022"
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Claude provider initialized")

	return &ClaudeProvider{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		retry:     NewDefaultRetryConfig(),
		logger:    logger,
	}, nil
}

// GenerateContent sends one prompt to Claude and returns the reply text.
func (p *ClaudeProvider) GenerateContent(ctx context.Context, prompt string, temperature float64) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(p.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if temperature > 0 {
		params.Temperature = anthropic.Float(temperature)
	}

	var resp *anthropic.Message
	var apiErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		resp, apiErr = p.client.Messages.New(timeoutCtx, params)
		if apiErr == nil {
			break
		}
		if attempt == p.retry.MaxRetries {
			break
		}

		backoff := p.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		if !IsRateLimitError(apiErr) {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Claude API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Claude API call failed after %d retries: %w", p.retry.MaxRetries, apiErr)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("empty response from Claude API")
	}

	return text.String(), nil
}

// Type returns the provider type identifier.
func (p *ClaudeProvider) Type() ProviderType {
	return ProviderClaude
}

// Close releases the Claude client.
func (p *ClaudeProvider) Close() error {
	p.client = anthropic.Client{}
	return nil
}

// GeminiProvider generates content through the Google Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	retry   *RetryConfig
	logger  arbor.ILogger
}

// NewGeminiProvider creates a Gemini provider from configuration.
func NewGeminiProvider(ctx context.Context, config *common.GeminiConfig, logger arbor.ILogger) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY, DOCEO_GEMINI_API_KEY, or gemini.api_key in config)")
	}

	model := config.Model
	if model == "" {
		model = "gemini-3-flash-preview"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	logger.Debug().
		Str("model", model).
		Dur("timeout", timeout).
		Msg("Gemini provider initialized")

	return &GeminiProvider{
		client:  client,
		model:   model,
		timeout: timeout,
		retry:   NewDefaultRetryConfig(),
		logger:  logger,
	}, nil
}

// GenerateContent sends one prompt to Gemini and returns the reply text.
func (p *GeminiProvider) GenerateContent(ctx context.Context, prompt string, temperature float64) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{}
	if temperature > 0 {
		config.Temperature = genai.Ptr(float32(temperature))
	}

	var resp *genai.GenerateContentResponse
	var apiErr error

	for attempt := 0; attempt <= p.retry.MaxRetries; attempt++ {
		resp, apiErr = p.client.Models.GenerateContent(timeoutCtx, p.model, contents, config)
		if apiErr == nil {
			break
		}
		if attempt == p.retry.MaxRetries {
			break
		}

		var backoff time.Duration
		if IsRateLimitError(apiErr) {
			backoff = p.retry.CalculateBackoff(attempt, ExtractRetryDelay(apiErr))
		} else {
			backoff = time.Duration(attempt+1) * 2 * time.Second
		}

		p.logger.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(apiErr).
			Msg("Retrying Gemini API call")

		select {
		case <-timeoutCtx.Done():
			return "", timeoutCtx.Err()
		case <-time.After(backoff):
		}
	}

	if apiErr != nil {
		return "", fmt.Errorf("Gemini API call failed after %d retries: %w", p.retry.MaxRetries, apiErr)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty text in Gemini response")
	}

	return responseText, nil
}

// Type returns the provider type identifier.
func (p *GeminiProvider) Type() ProviderType {
	return ProviderGemini
}

// Close releases the Gemini client.
func (p *GeminiProvider) Close() error {
	p.client = nil
	return nil
}
