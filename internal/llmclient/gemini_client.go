// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// GeminiClient implements schemas.LLMClient for the Gemini API.
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
	config config.LLMModelConfig
}

var _ schemas.LLMClient = (*GeminiClient)(nil)

// NewGeminiClient initializes the client. Endpoint overrides the API base URL.
func NewGeminiClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		logger: logger.Named("llm_client.gemini"),
		config: cfg,
	}, nil
}

// Generate sends the prompt and images and returns the text of the first candidate.
func (c *GeminiClient) Generate(ctx context.Context, req schemas.GenerationRequest) (schemas.Generation, error) {
	contents, genConfig := c.buildRequest(req)

	var gen schemas.Generation
	operation := func() error {
		callCtx := ctx
		if c.config.APITimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.config.APITimeout)
			defer cancel()
		}

		start := time.Now()
		resp, err := c.client.Models.GenerateContent(callCtx, c.config.Model, contents, genConfig)
		if err != nil {
			return c.classify(err)
		}
		if len(resp.Candidates) == 0 {
			return backoff.Permanent(fmt.Errorf("gemini API returned no candidates"))
		}

		text := resp.Text()
		if text == "" {
			reason := resp.Candidates[0].FinishReason
			if reason == genai.FinishReasonSafety || reason == genai.FinishReasonBlocklist {
				return backoff.Permanent(fmt.Errorf("gemini API blocked the request (Reason: %s)", reason))
			}
			return fmt.Errorf("gemini API returned empty content (Reason: %s)", reason)
		}

		gen = schemas.Generation{Text: text, Model: c.config.Model}
		if resp.UsageMetadata != nil {
			gen.PromptTokens = int64(resp.UsageMetadata.PromptTokenCount)
			gen.CompletionTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
		}
		c.logger.Info("LLM generation complete (Gemini)",
			zap.Duration("duration", time.Since(start)),
			zap.Int64("prompt_tokens", gen.PromptTokens),
			zap.Int64("completion_tokens", gen.CompletionTokens),
		)
		return nil
	}

	if err := retry(ctx, operation); err != nil {
		return schemas.Generation{}, err
	}
	return gen, nil
}

func (c *GeminiClient) buildRequest(req schemas.GenerationRequest) ([]*genai.Content, *genai.GenerateContentConfig) {
	parts := []*genai.Part{genai.NewPartFromText(req.UserPrompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(temperature(req, c.config))),
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if maxTokens > 0 {
		genConfig.MaxOutputTokens = int32(maxTokens)
	}
	if req.Options.ForceJSONFormat {
		genConfig.ResponseMIMEType = "application/json"
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, genConfig
}

// classify marks client errors as permanent so they are not retried.
func (c *GeminiClient) classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && !retryableStatus(apiErr.Code) {
		c.logger.Error("Gemini API returned error status", zap.Int("status", apiErr.Code), zap.String("message", apiErr.Message))
		return backoff.Permanent(fmt.Errorf("gemini API error: %w", err))
	}
	c.logger.Warn("Gemini request failed, retrying.", zap.Error(err))
	return fmt.Errorf("gemini request failed: %w", err)
}

func (c *GeminiClient) Close() error { return nil }
