// internal/session/interfaces.go
package session

import (
	"context"
	"errors"

	"github.com/xkilldash9x/uipilot/api/schemas"
	"github.com/xkilldash9x/uipilot/internal/agent"
)

// ErrStepFailed is returned by Run when a step leaves the session in ERROR.
var ErrStepFailed = errors.New("session step failed")

// ErrNoWindow aborts an action step that has no target window.
var ErrNoWindow = errors.New("no application window is selected")

// ErrAgentError is recorded when an agent itself answers with the ERROR status.
var ErrAgentError = errors.New("agent reported an error")

// HostSelector runs the application-selection phase. The returned Selection's
// Cost must be set even on failure: KnownCost(0) when nothing was spent. An
// unknown cost is only added to the task total when the call succeeded.
type HostSelector interface {
	SelectApplication(ctx context.Context, req agent.HostRequest) (agent.Selection, error)
}

// Prompter is the user-facing side of the session: the confirmation gate,
// the next-request prompt and progress messages.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	// ReadLine returns io.EOF when the input is closed.
	ReadLine(ctx context.Context, prompt string) (string, error)
	Notify(message string)
}

// Summarizer turns a finished task's response log into a saved experience.
type Summarizer interface {
	Summarize(ctx context.Context, responseLog string, requests []string) (schemas.Cost, error)
}
