// File: internal/service/components.go
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/console"
	"github.com/xkilldash9x/uipilot/internal/experience"
	"github.com/xkilldash9x/uipilot/internal/receiver"
	"github.com/xkilldash9x/uipilot/internal/session"
)

// Oracle is the language model router as the service owns it.
type Oracle interface {
	schemas.Oracle
	Close() error
}

// Desktop is the automation backend: it lists windows, enumerates and
// photographs their controls and serves receiver objects.
type Desktop interface {
	schemas.Desktop
	schemas.ControlInventory
	schemas.Photographer
	receiver.Bridge
	Close() error
}

// Components holds everything one task needs, wired together.
type Components struct {
	Oracle     Oracle
	Desktop    Desktop
	Factory    *receiver.Factory
	Stores     Stores
	Retrievers agent.Retrievers
	Summarizer *experience.Summarizer
	Host       *agent.HostAgent
	Prompter   *console.Prompter
	Controller *session.Controller
	logger     *zap.Logger
}

const retryQuestion = "The last step failed: %v. Do you want to retry it?"

// Run drives the task until the session ends. When a step fails the user is
// asked whether to retry it; a decline or closed input returns the failure.
func (c *Components) Run(ctx context.Context) error {
	for {
		err := c.Controller.Run(ctx)
		if err == nil || !errors.Is(err, session.ErrStepFailed) || c.Prompter == nil {
			return err
		}
		retry, perr := c.Prompter.Confirm(ctx, fmt.Sprintf(retryQuestion, c.Controller.Err()))
		if perr != nil || !retry {
			return err
		}
		if c.logger != nil {
			c.logger.Info("Retrying failed step.", zap.Error(c.Controller.Err()))
		}
		c.Controller.Resume()
	}
}

// Shutdown releases components in reverse dependency order. It is safe on a
// partially built set.
func (c *Components) Shutdown() {
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("Beginning components shutdown sequence.")

	// 1. The controller owns the step logs; flush them first.
	if c.Controller != nil {
		if err := c.Controller.Close(); err != nil {
			logger.Warn("Error closing task logs.", zap.Error(err))
		}
		logger.Debug("Task logs closed.")
	}

	// 2. Detach from the browser or shut it down.
	if c.Desktop != nil {
		if err := c.Desktop.Close(); err != nil {
			logger.Warn("Error during desktop shutdown.", zap.Error(err))
		} else {
			logger.Debug("Desktop shut down.")
		}
	}

	// 3. Release the engine clients.
	if c.Oracle != nil {
		if err := c.Oracle.Close(); err != nil {
			logger.Warn("Error closing oracle.", zap.Error(err))
		} else {
			logger.Debug("Oracle closed.")
		}
	}

	logger.Info("All task components shut down.")
}
