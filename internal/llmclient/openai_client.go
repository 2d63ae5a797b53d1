// internal/llmclient/openai_client.go
package llmclient

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// OpenAIClient implements schemas.LLMClient for OpenAI compatible chat
// completion endpoints, including vision input.
type OpenAIClient struct {
	client openai.Client
	logger *zap.Logger
	config config.LLMModelConfig
}

var _ schemas.LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient initializes the client. Endpoint overrides the base URL,
// which allows OpenRouter, Azure style gateways or a local server.
func NewOpenAIClient(cfg config.LLMModelConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are handled by the shared backoff policy.
		option.WithMaxRetries(0),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}
	if cfg.APITimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.APITimeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(opts...),
		logger: logger.Named("llm_client.openai"),
		config: cfg,
	}, nil
}

// Generate sends the prompt and images and returns the first choice.
func (c *OpenAIClient) Generate(ctx context.Context, req schemas.GenerationRequest) (schemas.Generation, error) {
	params := c.buildParams(req)

	var gen schemas.Generation
	operation := func() error {
		start := time.Now()
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) && !retryableStatus(apiErr.StatusCode) {
				return backoff.Permanent(fmt.Errorf("openai API error: %w", err))
			}
			c.logger.Warn("OpenAI request failed, retrying.", zap.Error(err))
			return fmt.Errorf("openai request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("openai API returned no choices"))
		}

		gen = schemas.Generation{
			Text:             resp.Choices[0].Message.Content,
			Model:            resp.Model,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		c.logger.Info("LLM generation complete (OpenAI)",
			zap.Duration("duration", time.Since(start)),
			zap.String("model", resp.Model),
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

func (c *OpenAIClient) buildParams(req schemas.GenerationRequest) openai.ChatCompletionNewParams {
	parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(req.UserPrompt)}
	for _, img := range req.Images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
		}))
	}

	params := openai.ChatCompletionNewParams{
		Model: c.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.SystemPrompt),
			openai.UserMessage(parts),
		},
		Temperature: openai.Float(temperature(req, c.config)),
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.config.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(maxTokens))
	}
	if req.Options.ForceJSONFormat {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

func (c *OpenAIClient) Close() error { return nil }
