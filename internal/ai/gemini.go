package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"
	"google.golang.org/genai"

	"procureai/internal/config"
)

// GeminiCompleter generates completions via the Gemini API, trying a
// configured list of models in order until one answers. Model availability
// varies per key, so a single hardcoded model is too brittle.
type GeminiCompleter struct {
	client  *genai.Client
	models  []string
	timeout time.Duration
	logger  *log.Logger
}

func NewGeminiCompleter(cfg config.Config, logger *log.Logger) (*GeminiCompleter, error) {
	if err := cfg.Require("GEMINI_API_KEY", cfg.GeminiAPIKey); err != nil {
		return nil, err
	}
	if len(cfg.GeminiModels) == 0 {
		return nil, fmt.Errorf("no gemini models configured")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}

	if logger == nil {
		logger = &log.DefaultLogger
	}

	return &GeminiCompleter{
		client:  client,
		models:  cfg.GeminiModels,
		timeout: time.Duration(cfg.AITimeoutMs) * time.Millisecond,
		logger:  logger,
	}, nil
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, model := range c.models {
		text, err := c.generate(ctx, model, prompt)
		if err != nil {
			c.logger.Warn().Str("model", model).Err(err).Msg("gemini model failed, trying next")
			lastErr = err
			continue
		}
		c.logger.Debug().Str("model", model).Int("response_chars", len(text)).Msg("gemini completion ok")
		return text, nil
	}
	return "", fmt.Errorf("%w: all models failed: %v", ErrProvider, lastErr)
}

func (c *GeminiCompleter) generate(ctx context.Context, model, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	resp, err := c.client.Models.GenerateContent(callCtx, model, contents, genCfg)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					out.WriteString(part.Text)
				}
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if out.Len() == 0 {
		return "", fmt.Errorf("empty response from model %s", model)
	}
	return out.String(), nil
}
