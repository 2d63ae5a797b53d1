// internal/receiver/errors.go
package receiver

import (
	"errors"
	"fmt"
)

// ErrNoRunningInstance is returned when the automation bridge has no live
// object of the requested family.
var ErrNoRunningInstance = errors.New("no running instance of the application")

// ErrNoControl is returned by control commands issued without a selected control.
var ErrNoControl = errors.New("no control is selected for this operation")

// ConfigurationError reports an application root the registry cannot serve.
// It is a setup defect and is never retried.
type ConfigurationError struct {
	Root   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("receiver configuration error for app root %q: %s", e.Root, e.Reason)
}

// UnsupportedOperationError is returned for an operation name no receiver knows.
type UnsupportedOperationError struct {
	Receiver  string
	Operation string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Receiver == "" {
		return fmt.Sprintf("unsupported operation %q", e.Operation)
	}
	return fmt.Sprintf("unsupported operation %q for receiver %s", e.Operation, e.Receiver)
}

// InvalidArgumentError is returned when arguments do not fit an operation's signature.
type InvalidArgumentError struct {
	Operation string
	Argument  string
	Reason    string
}

func (e *InvalidArgumentError) Error() string {
	if e.Argument == "" {
		return fmt.Sprintf("invalid arguments for %s: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("invalid argument %q for %s: %s", e.Argument, e.Operation, e.Reason)
}
