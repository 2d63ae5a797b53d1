// -- internal/llmclient/factory.go --
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
)

// NewClient creates the engine client for one model configuration.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderGemini)
	}
}

// NewOracle builds the router described by cfg. A backup engine that cannot
// be created is logged and skipped, leaving the primary alone.
func NewOracle(ctx context.Context, cfg config.LLMRouterConfig, logger *zap.Logger) (*Router, error) {
	primaryCfg, ok := cfg.Models[cfg.Primary]
	if !ok {
		return nil, fmt.Errorf("primary model %q is not configured", cfg.Primary)
	}
	primaryClient, err := NewClient(ctx, primaryCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary engine %q: %w", cfg.Primary, err)
	}
	primary := Engine{Name: cfg.Primary, Client: primaryClient, Pricing: primaryCfg.Pricing}

	var backup *Engine
	if backupCfg, ok := cfg.Models[cfg.Backup]; ok && cfg.Backup != "" {
		backupClient, err := NewClient(ctx, backupCfg, logger)
		if err != nil {
			logger.Warn("Backup engine unavailable, continuing without fallback.",
				zap.String("backup", cfg.Backup), zap.Error(err))
		} else {
			backup = &Engine{Name: cfg.Backup, Client: backupClient, Pricing: backupCfg.Pricing}
		}
	}

	return NewRouter(logger, primary, backup, cfg.RequestsPerMinute)
}
