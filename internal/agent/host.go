// File: internal/agent/host.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/memory"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

// HostAgentParams wires the Host agent to its collaborators. Photographer and
// Factory are optional.
type HostAgentParams struct {
	Name         string
	Oracle       schemas.Oracle
	Desktop      schemas.Desktop
	Photographer schemas.Photographer
	Factory      *receiver.Factory
	Receivers    config.ReceiversConfig
	RAG          config.RAGConfig
	Retrievers   Retrievers
}

// HostRequest is the session state the Host agent needs for one selection.
type HostRequest struct {
	Request        string
	Step           int
	Round          int
	RequestHistory []string
}

// Selection is the outcome of one application-selection step. The session
// applies the deltas; the Host agent never touches session counters.
type Selection struct {
	Status      schemas.Status
	StepDelta   int
	RoundDelta  int
	Cost        schemas.Cost
	Window      schemas.Window
	AppRoot     string
	Application string
	AppAgent    *AppAgent
	Plan        string
	Record      schemas.ActionRecord
}

// HostAgent chooses the application window a request should be carried out in
// and creates the App agent that will work inside it.
type HostAgent struct {
	name         string
	logger       *zap.Logger
	baseLogger   *zap.Logger
	oracle       schemas.Oracle
	desktop      schemas.Desktop
	photographer schemas.Photographer
	factory      *receiver.Factory
	receivers    config.ReceiversConfig
	rag          config.RAGConfig
	retrievers   Retrievers
	memory       *memory.Ledger
	step         int
}

func NewHostAgent(logger *zap.Logger, p HostAgentParams) *HostAgent {
	if p.Name == "" {
		p.Name = string(schemas.AgentHost)
	}
	return &HostAgent{
		name:         p.Name,
		logger:       logger.Named("host_agent"),
		baseLogger:   logger,
		oracle:       p.Oracle,
		desktop:      p.Desktop,
		photographer: p.Photographer,
		factory:      p.Factory,
		receivers:    p.Receivers,
		rag:          p.RAG,
		retrievers:   p.Retrievers,
		memory:       memory.NewLedger(),
	}
}

func (h *HostAgent) Name() string { return h.name }

// Memory holds the Host agent's own selection records.
func (h *HostAgent) Memory() *memory.Ledger { return h.memory }

// SelectApplication runs one Host agent step. On failure the returned
// Selection still carries the cost already spent. A *receiver.ConfigurationError
// means the registry cannot serve the chosen application and must not be retried.
func (h *HostAgent) SelectApplication(ctx context.Context, req HostRequest) (Selection, error) {
	failed := Selection{Status: schemas.StatusError, Cost: schemas.KnownCost(0)}

	windows, err := h.desktop.Windows(ctx)
	if err != nil {
		return failed, fmt.Errorf("failed to list application windows: %w", err)
	}
	byLabel := make(map[string]schemas.Window, len(windows))
	infos := make([]WindowInfo, 0, len(windows))
	for i, w := range windows {
		label := strconv.Itoa(i + 1)
		byLabel[label] = w
		infos = append(infos, WindowInfo{Label: label, Title: w.Title(), AppRoot: w.AppRoot()})
	}

	genReq, err := buildHostRequest(HostPromptInput{
		Request:        req.Request,
		Windows:        infos,
		RequestHistory: req.RequestHistory,
		Previous:       h.memory.Records(),
	}, h.desktopImages(ctx))
	if err != nil {
		return failed, err
	}

	text, cost, err := h.oracle.Send(ctx, genReq, ChannelHost, true)
	if err != nil {
		return failed, &TransportError{Channel: ChannelHost, Err: err}
	}
	failed.Cost = cost
	decision, err := ParseHostDecision(text)
	if err != nil {
		return failed, err
	}

	sel := Selection{
		Status:    decision.Status,
		StepDelta: 1,
		Cost:      cost,
		Plan:      decision.Plan,
	}

	window := byLabel[decision.ControlLabel]
	if window == nil {
		// The session reports the missing window on its next action step.
		h.logger.Warn("Host decision does not name an open window.",
			zap.String("label", decision.ControlLabel), zap.String("text", decision.ControlText))
		sel.Application = decision.ControlText
	} else {
		if err := window.Focus(ctx); err != nil {
			return failed, fmt.Errorf("failed to focus window %q: %w", window.Title(), err)
		}
		sel.Window = window
		sel.AppRoot = window.AppRoot()
		sel.Application = window.Title()

		app, err := h.attachReceiver(ctx, sel.AppRoot, sel.Application)
		if err != nil {
			return failed, err
		}
		sel.AppAgent = NewAppAgent(h.baseLogger, AppAgentParams{
			Name:        fmt.Sprintf("%s/%s", schemas.AgentApp, sel.AppRoot),
			AppRoot:     sel.AppRoot,
			Application: sel.Application,
			Oracle:      h.oracle,
			Puppeteer:   NewPuppeteer(app),
			Retrievers:  h.retrievers,
			RAG:         h.rag,
		})
	}

	rec := schemas.NewActionRecord(decision)
	rec.Step = req.Step
	rec.AgentStep = h.step
	rec.Round = req.Round
	rec.Request = req.Request
	rec.Agent = schemas.AgentHost
	rec.AgentName = h.name
	rec.Application = sel.AppRoot
	rec.Cost = cost
	if sel.Window != nil {
		rec.Action = CommandString("set_focus", nil)
	}
	if err := h.memory.Append(rec); err != nil {
		h.logger.Warn("Failed to record host step.", zap.Error(err))
	}
	sel.Record = rec
	h.step++

	h.logger.Info("Application selected.",
		zap.String("application", sel.Application),
		zap.String("app_root", sel.AppRoot),
		zap.String("status", sel.Status.String()),
		zap.Bool("api_receiver", sel.AppAgent != nil && sel.AppAgent.Puppeteer().App() != nil))
	return sel, nil
}

// attachReceiver binds the application's automation receiver when its root is
// enabled. Only configuration errors are fatal; any other failure leaves the
// agent with UI commands alone.
func (h *HostAgent) attachReceiver(ctx context.Context, root, processName string) (receiver.Receiver, error) {
	if h.factory == nil || !h.receivers.RootEnabled(root) {
		return nil, nil
	}
	r, err := h.factory.CreateReceiver(ctx, root, processName)
	if err != nil {
		var cfgErr *receiver.ConfigurationError
		if errors.As(err, &cfgErr) {
			return nil, err
		}
		h.logger.Warn("Application receiver unavailable, using UI commands only.",
			zap.String("app_root", root), zap.Error(err))
		return nil, nil
	}
	return r, nil
}

func (h *HostAgent) desktopImages(ctx context.Context) [][]byte {
	if h.photographer == nil {
		return nil
	}
	shot, err := h.photographer.Capture(ctx, nil)
	if err != nil {
		h.logger.Warn("Desktop screenshot failed, selecting without it.", zap.Error(err))
		return nil
	}
	return [][]byte{shot}
}
