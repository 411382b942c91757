package session

import "fmt"

// Step identifies a stage of session establishment, recorded when the stage
// fails so the failure surface names what broke.
type Step string

const (
	StepBridgeConnect Step = "bridge-connect"
	StepMirrorLaunch  Step = "mirror-launch"
)

// NoSelectionError indicates a session was requested with no device
// selected in the registry.
type NoSelectionError struct{}

func (e *NoSelectionError) Error() string {
	return "no device selected"
}

// SessionNotActiveError indicates an operation that needs an active mirror
// was attempted in some other state.
type SessionNotActiveError struct {
	State State
}

func (e *SessionNotActiveError) Error() string {
	return fmt.Sprintf("session is %s, not active", e.State)
}

// StepError wraps a failure from one establishment step.
type StepError struct {
	Step    Step
	Address string
	Err     error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed for %s: %v", e.Step, e.Address, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ToggleError wraps a failed screen toggle delivery. The assumed screen
// state is left unchanged when this is returned.
type ToggleError struct {
	Err error
}

func (e *ToggleError) Error() string {
	return fmt.Sprintf("screen toggle failed: %v", e.Err)
}

func (e *ToggleError) Unwrap() error {
	return e.Err
}
