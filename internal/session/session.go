package session

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/riloraspopo/scrcpygui/internal/devices"
	"github.com/riloraspopo/scrcpygui/internal/logging"
	"github.com/riloraspopo/scrcpygui/internal/scan"
)

// State is the lifecycle position of a mirroring session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateFailed
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateFailed:
		return "failed"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateFailed || s == StateEnded
}

// BridgeConnector registers a device address as a debug bridge target.
// Connecting to an already-registered target must succeed trivially.
type BridgeConnector interface {
	Connect(ctx context.Context, address string, port int) error
}

// MirrorHandle tracks one running mirror process.
type MirrorHandle interface {
	Done() <-chan struct{}
	Terminated() bool
	Err() error
	Stop() error
}

// MirrorLauncher starts a mirror for a device endpoint. The returned error
// covers startup only; runtime failures surface through the handle.
type MirrorLauncher interface {
	Launch(ctx context.Context, address string, port int) (MirrorHandle, error)
}

// LauncherFunc adapts a launch function to the MirrorLauncher interface.
type LauncherFunc func(ctx context.Context, address string, port int) (MirrorHandle, error)

func (f LauncherFunc) Launch(ctx context.Context, address string, port int) (MirrorHandle, error) {
	return f(ctx, address, port)
}

// ScreenToggler delivers a screen on/off request to a device endpoint.
type ScreenToggler interface {
	SendToggle(ctx context.Context, endpoint string, turnOn bool) error
}

// Session is one attempt to mirror one device.
type Session struct {
	ID     uuid.UUID
	Device *devices.Device

	state      State
	failedStep Step
	handle     MirrorHandle
	screen     *ScreenController
	startedAt  time.Time
	endedAt    time.Time
}

// Snapshot is a point-in-time copy of the current session for display.
type Snapshot struct {
	ID         uuid.UUID
	Address    string
	Endpoint   string
	State      State
	FailedStep Step
	ScreenOn   bool
	StartedAt  time.Time
	EndedAt    time.Time
}

// Orchestrator drives the session lifecycle against its collaborators.
//
// One mutex serializes everything, held across the blocking collaborator
// calls. Concurrent Start calls therefore queue rather than interleave,
// and a session observed Active was established by exactly one caller.
type Orchestrator struct {
	registry *devices.Registry
	bridge   BridgeConnector
	launcher MirrorLauncher
	toggler  ScreenToggler
	port     int

	mu      sync.Mutex
	current *Session
}

// NewOrchestrator creates an Orchestrator. port is the fallback for devices
// that carry no port of their own.
func NewOrchestrator(registry *devices.Registry, bridge BridgeConnector, launcher MirrorLauncher, toggler ScreenToggler, port int) *Orchestrator {
	if port <= 0 {
		port = scan.DefaultPort
	}
	return &Orchestrator{
		registry: registry,
		bridge:   bridge,
		launcher: launcher,
		toggler:  toggler,
		port:     port,
	}
}

// Start establishes a mirroring session against the registry's selected
// device: bridge connect first, then mirror launch. A non-terminal previous
// session is stopped and superseded. On failure the session lands in the
// failed state with the failed step recorded, and the error wraps the
// collaborator failure.
func (o *Orchestrator) Start(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	device, ok := o.registry.CurrentSelection()
	if !ok {
		return o.snapshotLocked(), &NoSelectionError{}
	}

	if o.current != nil && !o.current.state.Terminal() {
		o.stopLocked(o.current)
	}

	s := &Session{
		ID:        uuid.New(),
		Device:    device,
		state:     StateConnecting,
		startedAt: time.Now(),
	}
	o.current = s
	logging.LogSessionTransition(device.Address, StateIdle.String(), StateConnecting.String())

	port := device.Port
	if port <= 0 {
		port = o.port
	}
	endpoint := net.JoinHostPort(device.Address, strconv.Itoa(port))

	if err := o.bridge.Connect(ctx, device.Address, port); err != nil {
		o.failLocked(s, StepBridgeConnect)
		return o.snapshotLocked(), &StepError{Step: StepBridgeConnect, Address: device.Address, Err: err}
	}

	handle, err := o.launcher.Launch(ctx, device.Address, port)
	if err != nil {
		o.failLocked(s, StepMirrorLaunch)
		return o.snapshotLocked(), &StepError{Step: StepMirrorLaunch, Address: device.Address, Err: err}
	}

	s.handle = handle
	s.screen = NewScreenController(o.toggler, endpoint)
	s.state = StateActive
	logging.LogSessionTransition(device.Address, StateConnecting.String(), StateActive.String())

	go o.watch(s)
	return o.snapshotLocked(), nil
}

// watch marks the session ended when its mirror process exits on its own.
func (o *Orchestrator) watch(s *Session) {
	<-s.handle.Done()

	o.mu.Lock()
	defer o.mu.Unlock()
	if s.state == StateActive {
		s.state = StateEnded
		s.endedAt = time.Now()
		logging.LogSessionTransition(s.Device.Address, StateActive.String(), StateEnded.String())
	}
}

// Stop terminates the current session's mirror. Without an active session
// it returns SessionNotActiveError.
func (o *Orchestrator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || o.current.state != StateActive {
		return &SessionNotActiveError{State: o.stateLocked()}
	}
	return o.stopLocked(o.current)
}

func (o *Orchestrator) stopLocked(s *Session) error {
	var err error
	if s.handle != nil {
		err = s.handle.Stop()
	}
	if !s.state.Terminal() {
		from := s.state
		s.state = StateEnded
		s.endedAt = time.Now()
		logging.LogSessionTransition(s.Device.Address, from.String(), StateEnded.String())
	}
	return err
}

func (o *Orchestrator) failLocked(s *Session, step Step) {
	s.state = StateFailed
	s.failedStep = step
	s.endedAt = time.Now()
	logging.LogSessionTransition(s.Device.Address, StateConnecting.String(), StateFailed.String())
}

// ToggleScreen flips the assumed screen state of the active session's
// device. Outside the active state it returns SessionNotActiveError; the
// bool is the new assumed state.
func (o *Orchestrator) ToggleScreen(ctx context.Context) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.current == nil || o.current.state != StateActive {
		return false, &SessionNotActiveError{State: o.stateLocked()}
	}
	return o.current.screen.Toggle(ctx)
}

// State returns the lifecycle state of the current session, or idle when
// no session has been started.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stateLocked()
}

func (o *Orchestrator) stateLocked() State {
	if o.current == nil {
		return StateIdle
	}
	return o.current.state
}

// Snapshot returns a copy of the current session for display. With no
// session the snapshot is zero-valued apart from the idle state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	if o.current == nil {
		return Snapshot{State: StateIdle}
	}
	s := o.current
	snap := Snapshot{
		ID:         s.ID,
		Address:    s.Device.Address,
		State:      s.state,
		FailedStep: s.failedStep,
		StartedAt:  s.startedAt,
		EndedAt:    s.endedAt,
	}
	if s.screen != nil {
		snap.Endpoint = s.screen.endpoint
		snap.ScreenOn = s.screen.ScreenOn()
	}
	return snap
}
