// File: internal/service/initializers.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/browser"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/experience"
	"github.com/xkilldash9x/uipilot/internal/llmclient"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// Stores are the YAML knowledge bases a task reads from and writes to.
// Demonstration and Docs are nil unless their retrieval source is enabled.
type Stores struct {
	Experience    *experience.Store
	Demonstration *experience.Store
	Docs          *experience.Store
}

// InitializeOracle builds the primary/backup engine router.
func InitializeOracle(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (Oracle, error) {
	router, err := llmclient.NewOracle(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize oracle: %w", err)
	}
	logger.Info("Oracle initialized.", zap.String("primary", cfg.LLM.Primary), zap.String("backup", cfg.LLM.Backup))
	return router, nil
}

// InitializeDesktop launches or attaches to the browser that serves as the
// automation desktop.
func InitializeDesktop(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Desktop, error) {
	driver, err := browser.NewDriver(ctx, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser driver: %w", err)
	}
	return driver, nil
}

// InitializeRegistry loads the receiver table from the configured file, or
// falls back to the built-in one.
func InitializeRegistry(cfg config.ReceiversConfig, logger *zap.Logger) (*receiver.Registry, error) {
	if cfg.RegistryFile == "" {
		return receiver.DefaultRegistry(), nil
	}
	registry, err := receiver.LoadRegistry(cfg.RegistryFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Receiver registry loaded.", zap.String("path", cfg.RegistryFile), zap.Int("entries", len(registry.Entries())))
	return registry, nil
}

// InitializeStores opens the knowledge bases and exposes the enabled ones as
// retrieval sources. The experience store is always opened since finished
// tasks are saved into it.
func InitializeStores(cfg config.Interface, logger *zap.Logger) (Stores, agent.Retrievers, error) {
	var (
		stores     Stores
		retrievers agent.Retrievers
		err        error
	)
	rag, paths := cfg.RAG(), cfg.Experience()

	if stores.Experience, err = experience.Open(paths.SavePath); err != nil {
		return stores, retrievers, fmt.Errorf("failed to open experience store: %w", err)
	}
	if rag.Experience.Enabled {
		retrievers.Experience = stores.Experience
		logger.Info("Experience retrieval enabled.", zap.Int("entries", stores.Experience.Len()))
	}

	if rag.Demonstration.Enabled {
		if stores.Demonstration, err = experience.Open(paths.DemonstrationPath); err != nil {
			return stores, retrievers, fmt.Errorf("failed to open demonstration store: %w", err)
		}
		retrievers.Demonstration = stores.Demonstration
		logger.Info("Demonstration retrieval enabled.", zap.Int("entries", stores.Demonstration.Len()))
	}

	if rag.OfflineDocs.Enabled {
		if stores.Docs, err = experience.Open(paths.DocsPath); err != nil {
			return stores, retrievers, fmt.Errorf("failed to open offline docs store: %w", err)
		}
		retrievers.OfflineDocs = stores.Docs
		logger.Info("Offline docs retrieval enabled.", zap.Int("entries", stores.Docs.Len()))
	}

	if rag.OnlineSearch.Enabled {
		logger.Warn("Online search is enabled but no search provider is configured; the source is skipped.")
	}
	return stores, retrievers, nil
}
