// File: internal/agent/app.go
package agent

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/memory"
)

// AppAgentParams configures an App agent.
type AppAgentParams struct {
	Name        string
	AppRoot     string
	Application string
	Oracle      schemas.Oracle
	Puppeteer   *Puppeteer
	Retrievers  Retrievers
	RAG         config.RAGConfig
}

// AppAgent picks one control and operation per step inside the selected
// application. It keeps its own step counter and memory; the session owns
// the global ones.
type AppAgent struct {
	name        string
	appRoot     string
	application string
	logger      *zap.Logger
	oracle      schemas.Oracle
	puppeteer   *Puppeteer
	retrievers  Retrievers
	rag         config.RAGConfig
	memory      *memory.Ledger

	mu     sync.Mutex
	step   int
	status schemas.Status
}

// NewAppAgent creates an App agent. A nil Puppeteer is replaced by a UI-only one.
func NewAppAgent(logger *zap.Logger, p AppAgentParams) *AppAgent {
	if p.Puppeteer == nil {
		p.Puppeteer = NewPuppeteer(nil)
	}
	return &AppAgent{
		name:        p.Name,
		appRoot:     p.AppRoot,
		application: p.Application,
		logger:      logger.Named("app_agent").With(zap.String("agent", p.Name)),
		oracle:      p.Oracle,
		puppeteer:   p.Puppeteer,
		retrievers:  p.Retrievers,
		rag:         p.RAG,
		memory:      memory.NewLedger(),
		status:      schemas.StatusContinue,
	}
}

func (a *AppAgent) Name() string           { return a.name }
func (a *AppAgent) AppRoot() string        { return a.appRoot }
func (a *AppAgent) Application() string    { return a.application }
func (a *AppAgent) Puppeteer() *Puppeteer  { return a.puppeteer }
func (a *AppAgent) Memory() *memory.Ledger { return a.memory }

// Step is the number of steps this agent has completed.
func (a *AppAgent) Step() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.step
}

func (a *AppAgent) Status() schemas.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Advance records one completed step that ended in status.
func (a *AppAgent) Advance(status schemas.Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step++
	a.status = status
}

// RetrieveContext gathers context from every enabled source. A source that is
// missing or fails contributes nothing.
func (a *AppAgent) RetrieveContext(ctx context.Context, request string) []string {
	sources := []struct {
		name string
		cfg  config.RAGSourceConfig
		r    Retriever
	}{
		{"experience", a.rag.Experience, a.retrievers.Experience},
		{"demonstration", a.rag.Demonstration, a.retrievers.Demonstration},
		{"offline_docs", a.rag.OfflineDocs, a.retrievers.OfflineDocs},
		{"online_search", a.rag.OnlineSearch, a.retrievers.OnlineSearch},
	}

	var out []string
	for _, s := range sources {
		if !s.cfg.Enabled {
			continue
		}
		if s.r == nil {
			a.logger.Debug("Retrieval source enabled but not available.", zap.String("source", s.name))
			continue
		}
		items, err := s.r.Retrieve(ctx, request, s.cfg.TopK)
		if err != nil {
			a.logger.Warn("Retrieval failed, continuing without it.", zap.String("source", s.name), zap.Error(err))
			continue
		}
		out = append(out, items...)
	}
	return out
}

// BuildRequest composes the oracle request for one step.
func (a *AppAgent) BuildRequest(in AppPromptInput) (schemas.GenerationRequest, error) {
	if in.Application == "" {
		in.Application = a.application
	}
	return buildAppRequest(in, a.puppeteer.Commands())
}

// GetResponse asks the oracle for the next decision. Failures come back as
// *TransportError.
func (a *AppAgent) GetResponse(ctx context.Context, req schemas.GenerationRequest) (string, schemas.Cost, error) {
	text, cost, err := a.oracle.Send(ctx, req, ChannelApp, true)
	if err != nil {
		return "", cost, &TransportError{Channel: ChannelApp, Err: err}
	}
	return text, cost, nil
}

// ParseResponse decodes the oracle text into a decision.
func (a *AppAgent) ParseResponse(text string) (schemas.Decision, error) {
	d, err := ParseDecision(text)
	if err != nil {
		a.logger.Warn("Oracle response is not a valid decision.", zap.Error(err))
		return schemas.Decision{}, err
	}
	return d, nil
}
