package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/uipilot/internal/config"
)

// -- Test Cases: Factory --

func TestNewClient_Providers(t *testing.T) {
	logger, _ := setupTestLogger(t)
	ctx := context.Background()

	c, err := NewClient(ctx, getValidLLMConfig(config.ProviderOpenAI), logger)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(ctx, getValidLLMConfig(config.ProviderGemini), logger)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	_, err = NewClient(ctx, getValidLLMConfig("ollama"), logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestNewClient_MissingKey(t *testing.T) {
	logger, _ := setupTestLogger(t)
	cfg := getValidLLMConfig(config.ProviderOpenAI)
	cfg.APIKey = ""
	_, err := NewClient(context.Background(), cfg, logger)
	assert.Error(t, err)
}

func TestNewOracle(t *testing.T) {
	logger, logs := setupTestLogger(t)
	ctx := context.Background()

	broken := getValidLLMConfig(config.ProviderGemini)
	broken.APIKey = ""
	cfg := config.LLMRouterConfig{
		Primary: "main",
		Backup:  "spare",
		Models: map[string]config.LLMModelConfig{
			"main":  getValidLLMConfig(config.ProviderOpenAI),
			"spare": broken,
		},
	}

	r, err := NewOracle(ctx, cfg, logger)
	require.NoError(t, err)
	assert.Equal(t, "main", r.primary.Name)
	assert.Nil(t, r.backup, "an unusable backup is skipped")
	assert.Equal(t, 1, logs.FilterMessage("Backup engine unavailable, continuing without fallback.").Len())

	cfg.Primary = "missing"
	_, err = NewOracle(ctx, cfg, logger)
	assert.Error(t, err)
}
