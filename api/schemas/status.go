package schemas

import (
	"fmt"
	"strings"
)

// Status is the state of a session and the "Status" field an agent returns
// with every decision.
type Status string

const (
	StatusAppSelection Status = "APP_SELECTION"
	StatusContinue     Status = "CONTINUE"
	StatusPending      Status = "PENDING"
	StatusFinish       Status = "FINISH"
	StatusAllFinish    Status = "ALLFINISH"
	StatusError        Status = "ERROR"
	// StatusScreenshot asks for the current step to be re-observed with a
	// caller supplied list of controls.
	StatusScreenshot Status = "SCREENSHOT"
)

var knownStatuses = map[Status]struct{}{
	StatusAppSelection: {},
	StatusContinue:     {},
	StatusPending:      {},
	StatusFinish:       {},
	StatusAllFinish:    {},
	StatusError:        {},
	StatusScreenshot:   {},
}

// ParseStatus normalizes a status string returned by an agent. Compound values
// are reduced the same way the predicates read them: one carrying the
// re-annotation marker is StatusScreenshot, otherwise one mentioning PENDING
// is StatusPending.
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownStatuses[norm]; ok {
		return norm, nil
	}
	if strings.Contains(string(norm), string(StatusScreenshot)) {
		return StatusScreenshot, nil
	}
	if strings.Contains(string(norm), string(StatusPending)) {
		return StatusPending, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) String() string { return string(s) }

// NeedsReannotation reports whether the status carries the re-annotation marker.
func (s Status) NeedsReannotation() bool {
	return strings.Contains(string(s), string(StatusScreenshot))
}

// IsPending reports whether the next action must pass the confirmation gate.
func (s Status) IsPending() bool {
	return strings.Contains(string(s), string(StatusPending))
}

// IsTerminal is true only for the state that ends the whole task.
func (s Status) IsTerminal() bool { return s == StatusAllFinish }
