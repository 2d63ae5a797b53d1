// internal/session/controller.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/memory"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/receiver"
)

const (
	newRequestPrompt = "Please enter your new request. Enter 'N' for exit."
	saveQuestion     = "Would you like to save the current conversation flow for future reference by the agent?"
	// historyDepth bounds how many global records are shown to the App agent.
	historyDepth = 20
)

// Params wires a Controller. Summarizer is optional; Logs is opened under
// Config.LogRoot when nil.
type Params struct {
	TaskID       string
	Request      string
	Config       config.SessionConfig
	AskToSave    bool
	Host         HostSelector
	Inventory    schemas.ControlInventory
	Photographer schemas.Photographer
	Prompter     Prompter
	Summarizer   Summarizer
	Logs         *observability.TaskLogs
}

// Option customizes a Controller.
type Option func(*Controller)

// WithSleep replaces the delay used between steps and after transport errors.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = fn }
}

// Controller owns one task: its counters, status, cost and the two-phase loop
// that alternates between application selection and action steps.
type Controller struct {
	logger       *zap.Logger
	cfg          config.SessionConfig
	askToSave    bool
	host         HostSelector
	inventory    schemas.ControlInventory
	photographer schemas.Photographer
	prompter     Prompter
	summarizer   Summarizer
	logs         *observability.TaskLogs
	ledger       *memory.Ledger
	history      *memory.RequestHistory
	sleep        func(ctx context.Context, d time.Duration) error

	// stepMu keeps at most one step in flight.
	stepMu sync.Mutex

	mu           sync.RWMutex
	taskID       string
	request      string
	round        int
	step         int
	status       schemas.Status
	cost         schemas.Cost
	application  string
	appRoot      string
	window       schemas.Window
	appAgent     *agent.AppAgent
	plan         string
	hint         []schemas.Control
	lastSelected string
	lastErr      error
}

// New creates the controller for one task, starting in APP_SELECTION.
func New(logger *zap.Logger, p Params, opts ...Option) (*Controller, error) {
	if p.Host == nil || p.Prompter == nil {
		return nil, fmt.Errorf("session requires a host agent and a prompter")
	}
	if p.TaskID == "" {
		p.TaskID = uuid.NewString()
	}
	logs := p.Logs
	if logs == nil {
		var err error
		if logs, err = observability.OpenTaskLogs(p.Config.LogRoot, p.TaskID); err != nil {
			return nil, err
		}
	}

	c := &Controller{
		logger:       logger.Named("session").With(zap.String("task_id", p.TaskID)),
		cfg:          p.Config,
		askToSave:    p.AskToSave,
		host:         p.Host,
		inventory:    p.Inventory,
		photographer: p.Photographer,
		prompter:     p.Prompter,
		summarizer:   p.Summarizer,
		logs:         logs,
		ledger:       memory.NewLedger(),
		history:      memory.NewRequestHistory(),
		sleep:        sleepContext,
		taskID:       p.TaskID,
		request:      p.Request,
		status:       schemas.StatusAppSelection,
		cost:         schemas.KnownCost(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Close releases the task logs.
func (c *Controller) Close() error { return c.logs.Close() }

// -- Accessors --

func (c *Controller) TaskID() string { return c.taskID }

func (c *Controller) Status() schemas.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Controller) Step() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.step
}

func (c *Controller) Round() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.round
}

func (c *Controller) Cost() schemas.Cost {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cost
}

func (c *Controller) Request() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.request
}

// Application returns the selected window title and its app root.
func (c *Controller) Application() (name, root string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.application, c.appRoot
}

// Results returns the results of the latest record, or "" before any step.
func (c *Controller) Results() any {
	if rec, ok := c.ledger.Last(); ok {
		return rec.Results
	}
	return ""
}

// Ledger is the global, step-ordered record of the task.
func (c *Controller) Ledger() *memory.Ledger { return c.ledger }

// LogDir is the directory holding the task's logs and screenshots.
func (c *Controller) LogDir() string { return c.logs.Dir }

// Err is the error that put the session in ERROR, if any.
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// -- State --

// UpdateCost adds delta to the running total. An unknown delta makes the
// total unknown for the rest of the task.
func (c *Controller) UpdateCost(delta schemas.Cost) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cost = c.cost.Add(delta)
}

// transition moves the session to status to when the table allows it.
// Refused transitions are logged and leave the status unchanged.
func (c *Controller) transition(to schemas.Status) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == to {
		return true
	}
	if !CanTransition(c.status, to) {
		c.logger.Warn("Refusing status transition.",
			zap.String("from", c.status.String()), zap.String("to", to.String()))
		return false
	}
	c.status = to
	return true
}

func (c *Controller) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Controller) fail(err error) {
	c.setErr(err)
	c.transition(schemas.StatusError)
	c.logger.Error("Step failed.", zap.Error(err))
}

// Resume leaves ERROR for the phase that can retry: the action loop when an
// App agent is ready, application selection otherwise.
func (c *Controller) Resume() {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()
	if c.Status() != schemas.StatusError {
		return
	}
	c.mu.RLock()
	ready := c.window != nil && c.appAgent != nil
	c.mu.RUnlock()
	if ready {
		c.transition(schemas.StatusContinue)
	} else {
		c.transition(schemas.StatusAppSelection)
	}
	c.mu.Lock()
	c.lastErr = nil
	c.mu.Unlock()
}

// -- Loop --

// Run drives the task until ALLFINISH, returning nil, or until a step fails,
// returning an error wrapping ErrStepFailed. A *receiver.ConfigurationError
// from application selection is returned as is.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch c.Status() {
		case schemas.StatusAllFinish:
			c.finishTask(ctx)
			return nil
		case schemas.StatusError:
			err := c.Err()
			if err == nil {
				err = ErrAgentError
			}
			return fmt.Errorf("%w: %w", ErrStepFailed, err)
		case schemas.StatusFinish:
			if c.stepLimitReached() {
				c.stopAtStepLimit()
				continue
			}
			if err := c.SetNewRound(ctx); err != nil {
				return err
			}
		case schemas.StatusAppSelection:
			if err := c.ProcessApplicationSelection(ctx); err != nil {
				return err
			}
		default:
			if c.stepLimitReached() {
				c.stopAtStepLimit()
				continue
			}
			if err := c.ProcessActionSelection(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Controller) stepLimitReached() bool {
	return c.cfg.MaxStep > 0 && c.Step() >= c.cfg.MaxStep
}

// stopAtStepLimit closes the current round and ends the task. The step count
// spans every round, so no later request could take a step either.
func (c *Controller) stopAtStepLimit() {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()
	c.logger.Warn("Maximum number of steps reached, ending the task.", zap.Int("max_step", c.cfg.MaxStep))
	c.prompter.Notify(fmt.Sprintf("Reached the limit of %d steps.", c.cfg.MaxStep))
	c.transition(schemas.StatusFinish)
	c.closeRound()
	c.transition(schemas.StatusAllFinish)
}

// ProcessApplicationSelection runs the Host agent and adopts its selection.
// Only a configuration error is returned; other failures set ERROR.
func (c *Controller) ProcessApplicationSelection(ctx context.Context) error {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.RLock()
	req := agent.HostRequest{Request: c.request, Step: c.step, Round: c.round, RequestHistory: c.history.Items()}
	c.mu.RUnlock()

	sel, err := c.host.SelectApplication(ctx, req)
	if err == nil || sel.Cost.Valid {
		c.UpdateCost(sel.Cost)
	}
	if err != nil {
		var cfgErr *receiver.ConfigurationError
		if errors.As(err, &cfgErr) {
			c.fail(err)
			return err
		}
		var terr *agent.TransportError
		if errors.As(err, &terr) {
			c.writeLog(c.logs.Request, stepEntry{Step: req.Step, Round: req.Round, Agent: schemas.AgentHost, Request: req.Request, Error: err.Error()})
			c.fail(err)
			return c.cooldown(ctx)
		}
		c.writeLog(c.logs.Response, stepEntry{Step: req.Step, Round: req.Round, Agent: schemas.AgentHost, Error: err.Error()})
		c.fail(err)
		return nil
	}

	c.mu.Lock()
	c.window = sel.Window
	c.appRoot = sel.AppRoot
	c.application = sel.Application
	c.appAgent = sel.AppAgent
	c.plan = sel.Plan
	c.hint = nil
	c.step += sel.StepDelta
	c.round += sel.RoundDelta
	c.mu.Unlock()
	c.transition(sel.Status)
	if sel.Status == schemas.StatusError {
		c.setErr(fmt.Errorf("%w: %s at step %d", ErrAgentError, schemas.AgentHost, req.Step))
	}

	if err := c.ledger.Append(sel.Record); err != nil {
		c.logger.Warn("Failed to record host step.", zap.Error(err))
	}
	c.writeLog(c.logs.Response, sel.Record)
	c.logger.Info("Application selected.", zap.String("application", sel.Application), zap.String("status", c.Status().String()))
	return nil
}

// observation is what one action step saw.
type observation struct {
	labels   []string
	controls []schemas.Control
	byLabel  map[string]schemas.Control
	infos    []agent.ControlInfo
	images   [][]byte
}

// ProcessActionSelection runs one App agent step. Step failures set ERROR and
// return nil; only context cancellation is returned.
func (c *Controller) ProcessActionSelection(ctx context.Context) error {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.mu.RLock()
	window, app := c.window, c.appAgent
	step, round, request, plan := c.step, c.round, c.request, c.plan
	hint := c.hint
	c.mu.RUnlock()

	if window == nil || app == nil {
		c.fail(ErrNoWindow)
		return nil
	}

	obs, err := c.observe(ctx, window, step, hint)
	if err != nil {
		c.writeLog(c.logs.Response, stepEntry{Step: step, Round: round, Agent: schemas.AgentApp, Error: err.Error()})
		c.fail(err)
		return nil
	}

	genReq, err := app.BuildRequest(agent.AppPromptInput{
		Request:        request,
		Controls:       obs.infos,
		Plan:           plan,
		RequestHistory: c.history.Items(),
		Actions:        c.ledger.Recent(historyDepth),
		Context:        app.RetrieveContext(ctx, request),
		Images:         obs.images,
	})
	if err != nil {
		c.fail(err)
		return nil
	}

	text, cost, err := app.GetResponse(ctx, genReq)
	if err != nil {
		c.writeLog(c.logs.Request, stepEntry{Step: step, Round: round, Agent: schemas.AgentApp, Prompt: genReq.UserPrompt, Error: err.Error()})
		c.fail(err)
		return c.cooldown(ctx)
	}
	c.UpdateCost(cost)
	c.writeLog(c.logs.Request, stepEntry{Step: step, Round: round, Agent: schemas.AgentApp, Prompt: genReq.UserPrompt})

	decision, err := app.ParseResponse(text)
	if err != nil {
		c.writeLog(c.logs.Response, stepEntry{Step: step, Round: round, Agent: schemas.AgentApp, Response: text, Error: err.Error()})
		c.fail(err)
		return nil
	}

	control := obs.byLabel[decision.ControlLabel]
	if control != nil {
		c.captureSelection(ctx, window, step, control)
	}

	action := agent.CommandString(decision.Function, decision.Args)
	status := decision.Status
	var results any = ""
	if c.confirm(ctx, status, action, decision.ControlText) {
		app.Puppeteer().SetControl(control)
		out, err := app.Puppeteer().Execute(ctx, decision.Function, decision.Args)
		if err != nil {
			c.writeLog(c.logs.Response, stepEntry{Step: step, Round: round, Agent: schemas.AgentApp, Response: text, Error: err.Error()})
			c.fail(fmt.Errorf("failed to execute %s: %w", action, err))
			return nil
		}
		results = normalizeResults(out)
		if status.IsPending() && c.cfg.SafeGuard && strings.Contains(decision.Plan, string(schemas.StatusFinish)) {
			status = schemas.StatusFinish
		}
	} else {
		status = schemas.StatusFinish
		results = schemas.UserStopMarker
	}

	c.mu.Lock()
	c.plan = decision.Plan
	c.mu.Unlock()
	c.transition(status)
	status = c.Status()
	if status == schemas.StatusError {
		c.setErr(fmt.Errorf("%w: %s at step %d: %s", ErrAgentError, app.Name(), step, decision.Thought))
	}

	rec := schemas.NewActionRecord(decision)
	rec.Step = step
	rec.AgentStep = app.Step()
	rec.Round = round
	rec.Action = action
	rec.Request = request
	rec.Agent = schemas.AgentApp
	rec.AgentName = app.Name()
	rec.Application = app.AppRoot()
	rec.Cost = cost
	rec.Results = results
	if err := c.ledger.Append(rec); err != nil {
		c.logger.Warn("Failed to record step.", zap.Error(err))
	}
	if err := app.Memory().Append(rec); err != nil {
		c.logger.Warn("Failed to record agent step.", zap.Error(err))
	}
	c.writeLog(c.logs.Response, rec)

	c.mu.Lock()
	c.step++
	c.mu.Unlock()
	app.Advance(status)

	c.logger.Info("Action step complete.",
		zap.Int("step", step),
		zap.String("action", action),
		zap.String("control", decision.ControlText),
		zap.String("status", status.String()))

	if status.NeedsReannotation() {
		c.setHint(obs.byLabel, agent.AnnotationLabels(decision.Args))
		return nil
	}
	c.setHint(nil, nil)
	return c.sleep(ctx, c.cfg.SleepTime)
}

// confirm applies the safety gate. It returns false when the user declines a
// pending action.
func (c *Controller) confirm(ctx context.Context, status schemas.Status, action, controlText string) bool {
	if !status.IsPending() || !c.cfg.SafeGuard {
		return true
	}
	question := fmt.Sprintf("[Input Required:] The agent wants to run %s on the control [%s]. Do you want to proceed?", action, controlText)
	ok, err := c.prompter.Confirm(ctx, question)
	if err != nil {
		c.logger.Warn("Confirmation failed, treating it as a decline.", zap.Error(err))
		return false
	}
	return ok
}

func (c *Controller) setHint(byLabel map[string]schemas.Control, labels []string) {
	var hint []schemas.Control
	for _, l := range labels {
		if ctrl, ok := byLabel[l]; ok {
			hint = append(hint, ctrl)
		}
	}
	c.mu.Lock()
	c.hint = hint
	c.mu.Unlock()
}

// observe enumerates and labels the window's controls and captures the
// screenshots sent to the model.
func (c *Controller) observe(ctx context.Context, window schemas.Window, step int, hint []schemas.Control) (observation, error) {
	controls := hint
	if len(controls) == 0 && c.inventory != nil {
		var err error
		if controls, err = c.inventory.Controls(ctx, window, c.cfg.ControlTypes); err != nil {
			return observation{}, fmt.Errorf("failed to enumerate controls: %w", err)
		}
	}

	obs := observation{
		labels:   make([]string, len(controls)),
		controls: controls,
		byLabel:  make(map[string]schemas.Control, len(controls)),
		infos:    make([]agent.ControlInfo, len(controls)),
	}
	for i, ctrl := range controls {
		label := strconv.Itoa(i + 1)
		obs.labels[i] = label
		obs.byLabel[label] = ctrl
		obs.infos[i] = agent.ControlInfo{Label: label, Text: ctrl.Name(), Type: ctrl.ControlType()}
	}

	if c.photographer == nil {
		return obs, nil
	}
	plain, err := c.photographer.Capture(ctx, window)
	if err != nil {
		return observation{}, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	annotated, err := c.photographer.Annotate(ctx, window, obs.labels, controls)
	if err != nil {
		return observation{}, fmt.Errorf("failed to annotate screenshot: %w", err)
	}
	if err := saveScreenshot(screenshotPath(c.logs.Dir, step, shotPlain), plain); err != nil {
		return observation{}, err
	}
	if err := saveScreenshot(screenshotPath(c.logs.Dir, step, shotAnnotated), annotated); err != nil {
		return observation{}, err
	}

	c.mu.RLock()
	last := c.lastSelected
	c.mu.RUnlock()
	if c.cfg.IncludeLastScreenshot && last != "" {
		if prev, err := os.ReadFile(last); err == nil {
			obs.images = append(obs.images, prev)
		} else {
			c.logger.Debug("Previous screenshot unavailable.", zap.Error(err))
		}
	}

	if c.cfg.ConcatScreenshot {
		joined, err := concatHorizontal(plain, annotated)
		if err != nil {
			return observation{}, err
		}
		if err := saveScreenshot(screenshotPath(c.logs.Dir, step, shotConcat), joined); err != nil {
			return observation{}, err
		}
		obs.images = append(obs.images, joined)
	} else {
		obs.images = append(obs.images, plain, annotated)
	}
	return obs, nil
}

// captureSelection saves a screenshot outlining the selected control. It is
// best effort; the step does not depend on it.
func (c *Controller) captureSelection(ctx context.Context, window schemas.Window, step int, control schemas.Control) {
	if c.photographer == nil {
		return
	}
	shot, err := c.photographer.Highlight(ctx, window, []schemas.Control{control})
	if err != nil {
		c.logger.Warn("Failed to capture selected control.", zap.Error(err))
		return
	}
	path := screenshotPath(c.logs.Dir, step, shotSelected)
	if err := saveScreenshot(path, shot); err != nil {
		c.logger.Warn("Failed to save selected control screenshot.", zap.Error(err))
		return
	}
	c.mu.Lock()
	c.lastSelected = path
	c.mu.Unlock()
}

// SetNewRound closes the current round and asks for the next request. "N" or
// closed input ends the task.
func (c *Controller) SetNewRound(ctx context.Context) error {
	c.stepMu.Lock()
	defer c.stepMu.Unlock()

	c.closeRound()
	for {
		line, err := c.prompter.ReadLine(ctx, newRequestPrompt)
		if errors.Is(err, io.EOF) {
			c.transition(schemas.StatusAllFinish)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read the next request: %w", err)
		}
		line = strings.TrimSpace(line)
		if strings.EqualFold(line, "N") {
			c.transition(schemas.StatusAllFinish)
			return nil
		}
		if line == "" {
			continue
		}
		c.mu.Lock()
		c.request = line
		c.mu.Unlock()
		c.transition(schemas.StatusAppSelection)
		return nil
	}
}

// closeRound files the current request into the history and moves the round
// counter on.
func (c *Controller) closeRound() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Append(c.request)
	c.round++
	c.plan = ""
	c.hint = nil
}

// finishTask offers to save the task as experience and reports the total cost.
func (c *Controller) finishTask(ctx context.Context) {
	if c.askToSave && c.summarizer != nil {
		ok, err := c.prompter.Confirm(ctx, saveQuestion)
		if err == nil && ok {
			cost, err := c.summarizer.Summarize(ctx, c.logs.Response.Path(), c.history.Items())
			c.UpdateCost(cost)
			if err != nil {
				c.logger.Warn("Failed to save experience.", zap.Error(err))
			} else {
				c.prompter.Notify("The experience has been saved.")
			}
		}
	}
	c.logger.Info("Task finished.", zap.Int("steps", c.Step()), zap.Int("rounds", c.Round()), zap.String("cost", c.Cost().String()))
	c.prompter.Notify(fmt.Sprintf("Task finished after %d steps. Total cost: %s", c.Step(), c.Cost()))
}

func (c *Controller) cooldown(ctx context.Context) error {
	return c.sleep(ctx, c.cfg.ErrorCooldown)
}

// stepEntry is written to the request log for every App agent prompt, and to
// either log when a step fails before producing a record.
type stepEntry struct {
	Step     int               `json:"Step"`
	Round    int               `json:"Round"`
	Agent    schemas.AgentKind `json:"Agent"`
	Request  string            `json:"Request,omitempty"`
	Prompt   string            `json:"Prompt,omitempty"`
	Response string            `json:"Response,omitempty"`
	Error    string            `json:"Error,omitempty"`
}

func (c *Controller) writeLog(log *observability.StepLog, entry any) {
	if err := log.Write(entry); err != nil {
		c.logger.Warn("Failed to write step log.", zap.String("path", log.Path()), zap.Error(err))
	}
}

// normalizeResults keeps results that can be written to the step log and
// replaces anything else with "".
func normalizeResults(v any) any {
	if v == nil {
		return ""
	}
	if _, err := json.Marshal(v); err != nil {
		return ""
	}
	return v
}
