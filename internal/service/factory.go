// File: internal/service/factory.go
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/console"
	"github.com/xkilldash9x/uipilot/internal/experience"
	"github.com/xkilldash9x/uipilot/internal/receiver"
	"github.com/xkilldash9x/uipilot/internal/session"
)

const firstRequestPrompt = "Please enter your request to be completed."

// ErrNoRequest is returned when no request is given and the input closes
// before one is entered.
var ErrNoRequest = errors.New("no request was entered")

// Request describes the task to build components for. An empty Request is
// read from In. In and Out default to the process's stdin and stdout.
type Request struct {
	TaskID  string
	Request string
	In      io.Reader
	Out     io.Writer
}

// ComponentFactory creates the set of components needed for one task.
// The abstraction keeps the run command testable.
type ComponentFactory interface {
	Create(ctx context.Context, cfg config.Interface, req Request, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct {
	newOracle  func(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (Oracle, error)
	newDesktop func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Desktop, error)
}

// FactoryOption replaces how the factory builds one of its heavy components.
type FactoryOption func(*concreteFactory)

// WithOracleConstructor replaces InitializeOracle.
func WithOracleConstructor(fn func(ctx context.Context, cfg config.AgentConfig, logger *zap.Logger) (Oracle, error)) FactoryOption {
	return func(f *concreteFactory) { f.newOracle = fn }
}

// WithDesktopConstructor replaces InitializeDesktop.
func WithDesktopConstructor(fn func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Desktop, error)) FactoryOption {
	return func(f *concreteFactory) { f.newDesktop = fn }
}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory(opts ...FactoryOption) ComponentFactory {
	f := &concreteFactory{
		newOracle:  InitializeOracle,
		newDesktop: InitializeDesktop,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create handles the full dependency injection of a task. Cheap validation
// runs before the oracle and browser are started.
func (f *concreteFactory) Create(ctx context.Context, cfg config.Interface, req Request, logger *zap.Logger) (*Components, error) {
	components := &Components{logger: logger.Named("service")}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Receiver registry
	registry, err := InitializeRegistry(cfg.Receivers(), logger)
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize receiver registry: %w", err)
		return nil, initializationErr
	}

	// 2. Knowledge bases
	stores, retrievers, err := InitializeStores(cfg, logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Stores = stores
	components.Retrievers = retrievers
	logger.Debug("Knowledge bases opened.")

	// 3. Oracle
	oracle, err := f.newOracle(ctx, cfg.Agent(), logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Oracle = oracle

	// 4. Desktop
	desktop, err := f.newDesktop(ctx, cfg.Browser(), logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Desktop = desktop
	logger.Debug("Desktop initialized.")

	// 5. Receivers
	components.Factory = receiver.NewFactory(logger, registry, receiver.WithBridge(receiver.BrowserFamily, desktop))

	// 6. Agents
	components.Summarizer = experience.NewSummarizer(logger, oracle, stores.Experience)
	components.Host = agent.NewHostAgent(logger, agent.HostAgentParams{
		Oracle:       oracle,
		Desktop:      desktop,
		Photographer: desktop,
		Factory:      components.Factory,
		Receivers:    cfg.Receivers(),
		RAG:          cfg.RAG(),
		Retrievers:   retrievers,
	})
	logger.Debug("Host agent initialized.")

	// 7. Console
	in, out := req.In, req.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	components.Prompter = console.New(in, out)

	// 8. First request
	request := strings.TrimSpace(req.Request)
	for request == "" {
		line, err := components.Prompter.ReadLine(ctx, firstRequestPrompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrNoRequest
			}
			initializationErr = err
			return nil, initializationErr
		}
		request = strings.TrimSpace(line)
	}

	// 9. Session
	controller, err := session.New(logger, session.Params{
		TaskID:       req.TaskID,
		Request:      request,
		Config:       cfg.Session(),
		AskToSave:    cfg.Experience().AskToSave,
		Host:         components.Host,
		Inventory:    desktop,
		Photographer: desktop,
		Prompter:     components.Prompter,
		Summarizer:   components.Summarizer,
	})
	if err != nil {
		initializationErr = fmt.Errorf("failed to initialize session: %w", err)
		return nil, initializationErr
	}
	components.Controller = controller
	logger.Info("Task components initialized.", zap.String("task_id", controller.TaskID()), zap.String("log_dir", controller.LogDir()))

	return components, nil
}
