// internal/agent/errors.go
package agent

import "fmt"

// TransportError wraps a failed oracle call. The step that issued it is
// aborted without advancing any counter.
type TransportError struct {
	Channel string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("oracle call on channel %s failed: %v", e.Channel, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecisionParseError reports an oracle response that is not a usable decision.
type DecisionParseError struct {
	Reason string
	Err    error
}

func (e *DecisionParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid decision: %s: %v", e.Reason, e.Err)
	}
	return "invalid decision: " + e.Reason
}

func (e *DecisionParseError) Unwrap() error { return e.Err }
