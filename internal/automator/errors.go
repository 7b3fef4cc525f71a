package automator

import (
	"fmt"
	"time"
)

// SelectorState is the condition WaitSelector resolves on.
type SelectorState string

const (
	StateVisible  SelectorState = "visible"
	StateHidden   SelectorState = "hidden"
	StateAttached SelectorState = "attached"
)

// EndpointUnreachableError is returned when the remote debugging endpoint
// never served a version descriptor within the attempt budget.
type EndpointUnreachableError struct {
	Host     string
	Port     int
	Attempts int
}

func (e *EndpointUnreachableError) Error() string {
	return fmt.Sprintf("debug endpoint %s:%d unreachable after %d attempts", e.Host, e.Port, e.Attempts)
}

// NoPageFoundError is returned when the debug endpoint's target list
// contains no page target to bind to.
type NoPageFoundError struct {
	Host string
	Port int
}

func (e *NoPageFoundError) Error() string {
	return fmt.Sprintf("no page target found on %s:%d", e.Host, e.Port)
}

// WorkbenchNotLoadedError means the workbench root marker never appeared.
// This is fatal: the target booted its debug port but not its UI.
type WorkbenchNotLoadedError struct {
	Err error
}

func (e *WorkbenchNotLoadedError) Error() string {
	return fmt.Sprintf("workbench did not load (selector %q): %v", selectorWorkbench, e.Err)
}

func (e *WorkbenchNotLoadedError) Unwrap() error { return e.Err }

// SelectorTimeoutError carries the selector and requested state of a failed
// wait so callers can diagnose which UI condition never held.
type SelectorTimeoutError struct {
	Selector string
	State    SelectorState
	Timeout  time.Duration
}

func (e *SelectorTimeoutError) Error() string {
	return fmt.Sprintf("timed out after %v waiting for %q to become %s", e.Timeout, e.Selector, e.State)
}

// ChatUnavailableError means the chat surface never opened for this call.
// The caller may retry the whole sequence; the session itself is still good.
type ChatUnavailableError struct {
	Err error
}

func (e *ChatUnavailableError) Error() string {
	return fmt.Sprintf("chat surface did not open: %v", e.Err)
}

func (e *ChatUnavailableError) Unwrap() error { return e.Err }

// ModelSelectionMismatchError means the picker did not end up displaying the
// requested label after the option was clicked.
type ModelSelectionMismatchError struct {
	Picker    string
	Requested string
	Got       string
}

func (e *ModelSelectionMismatchError) Error() string {
	return fmt.Sprintf("tried to select %s %q, but got %q", e.Picker, e.Requested, e.Got)
}

// SendNotConfirmedError means the send affordance's hide/show cycle never
// completed. Message state on the target is ambiguous; the caller decides
// whether to retry the whole message.
type SendNotConfirmedError struct {
	Phase string // "hide" or "reshow"
	Err   error
}

func (e *SendNotConfirmedError) Error() string {
	return fmt.Sprintf("send not confirmed (%s phase): %v", e.Phase, e.Err)
}

func (e *SendNotConfirmedError) Unwrap() error { return e.Err }
