// Package engine implements the orchestration core: the resilient installer
// that tries a component's methods in order with independent verification,
// and the orchestrator that walks the catalog applying profile relevance and
// halt/critical-failure policy.
package engine

import (
	"errors"
	"fmt"
)

// FailureClass classifies why an installation step failed. All classes except
// UserAbort are caught at the installer boundary and converted into "advance
// to the next method"; they reach the orchestrator only as a component's
// final Failed status.
type FailureClass string

const (
	// FailureNotFound indicates a method's prerequisite is absent
	// (e.g. the pinned package manager does not exist on this machine).
	FailureNotFound FailureClass = "not_found"

	// FailureExecution indicates an attempt ran and returned or threw a
	// failure.
	FailureExecution FailureClass = "execution_failure"

	// FailureVerification indicates an attempt reported success but the
	// probe disagrees.
	FailureVerification FailureClass = "verification_failure"

	// FailureConfiguration indicates durable configuration could not be
	// mutated (e.g. the shell profile is not writable).
	FailureConfiguration FailureClass = "configuration_failure"

	// FailureUserAbort indicates an explicit Quit selection before any
	// component ran.
	FailureUserAbort FailureClass = "user_abort"
)

// InstallError is a classified installation error with component and method
// context.
type InstallError struct {
	// Class is the failure classification.
	Class FailureClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Component is the component identifier, if applicable.
	Component string `json:"component,omitempty"`

	// Method is the method name, if applicable.
	Method string `json:"method,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Component != "" {
		msg += fmt.Sprintf(" (component=%s", e.Component)
		if e.Method != "" {
			msg += fmt.Sprintf(", method=%s", e.Method)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Is implements class-based equality for errors.Is.
func (e *InstallError) Is(target error) bool {
	t, ok := target.(*InstallError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// WithComponent adds component context to the error.
func (e *InstallError) WithComponent(id string) *InstallError {
	e.Component = id
	return e
}

// WithMethod adds method context to the error.
func (e *InstallError) WithMethod(name string) *InstallError {
	e.Method = name
	return e
}

// NewNotFoundError creates a not_found error.
func NewNotFoundError(message string, err error) *InstallError {
	return &InstallError{Class: FailureNotFound, Message: message, Err: err}
}

// NewExecutionError creates an execution_failure error.
func NewExecutionError(message string, err error) *InstallError {
	return &InstallError{Class: FailureExecution, Message: message, Err: err}
}

// NewVerificationError creates a verification_failure error.
func NewVerificationError(message string, err error) *InstallError {
	return &InstallError{Class: FailureVerification, Message: message, Err: err}
}

// NewConfigurationError creates a configuration_failure error.
func NewConfigurationError(message string, err error) *InstallError {
	return &InstallError{Class: FailureConfiguration, Message: message, Err: err}
}

// ErrUserAbort is returned when the user selects Quit at the profile prompt.
var ErrUserAbort = &InstallError{Class: FailureUserAbort, Message: "aborted by user"}

// ClassOf returns the failure class of err, or FailureExecution when err is
// not a classified install error.
func ClassOf(err error) FailureClass {
	var e *InstallError
	if errors.As(err, &e) {
		return e.Class
	}
	return FailureExecution
}

// IsNotFound returns true if err is classified not_found.
func IsNotFound(err error) bool {
	var e *InstallError
	return errors.As(err, &e) && e.Class == FailureNotFound
}

// IsConfiguration returns true if err is classified configuration_failure.
func IsConfiguration(err error) bool {
	var e *InstallError
	return errors.As(err, &e) && e.Class == FailureConfiguration
}
