package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riloraspopo/scrcpygui/internal/devices"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

type fakeBridge struct {
	log *callLog
	err error
}

func (b *fakeBridge) Connect(ctx context.Context, address string, port int) error {
	b.log.add("bridge")
	return b.err
}

type fakeHandle struct {
	mu      sync.Mutex
	done    chan struct{}
	stopped bool
	exited  bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Done() <-chan struct{} { return h.done }

func (h *fakeHandle) Terminated() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *fakeHandle) Err() error { return nil }

func (h *fakeHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	if !h.exited {
		h.exited = true
		close(h.done)
	}
	return nil
}

// exit simulates the mirror process ending on its own.
func (h *fakeHandle) exit() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.exited {
		h.exited = true
		close(h.done)
	}
}

func (h *fakeHandle) wasStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopped
}

type fakeLauncher struct {
	log     *callLog
	err     error
	handles []*fakeHandle
}

func (l *fakeLauncher) Launch(ctx context.Context, address string, port int) (MirrorHandle, error) {
	l.log.add("launch")
	if l.err != nil {
		return nil, l.err
	}
	h := newFakeHandle()
	l.handles = append(l.handles, h)
	return h, nil
}

type fakeToggler struct {
	mu    sync.Mutex
	err   error
	calls []bool
}

func (t *fakeToggler) SendToggle(ctx context.Context, endpoint string, turnOn bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.calls = append(t.calls, turnOn)
	return nil
}

func (t *fakeToggler) setErr(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.err = err
}

func (t *fakeToggler) sentTargets() []bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]bool(nil), t.calls...)
}

type fixture struct {
	registry *devices.Registry
	bridge   *fakeBridge
	launcher *fakeLauncher
	toggler  *fakeToggler
	orch     *Orchestrator
}

func newFixture(t *testing.T, selectAddr string) *fixture {
	t.Helper()

	log := &callLog{}
	f := &fixture{
		registry: devices.NewRegistry(),
		bridge:   &fakeBridge{log: log},
		launcher: &fakeLauncher{log: log},
		toggler:  &fakeToggler{},
	}
	f.orch = NewOrchestrator(f.registry, f.bridge, f.launcher, f.toggler, 5555)

	if selectAddr != "" {
		f.registry.Replace([]*devices.Device{
			{Address: selectAddr, Port: 5555, Status: devices.StatusReachable},
		})
		if _, err := f.registry.Select(selectAddr); err != nil {
			t.Fatalf("selecting %s: %v", selectAddr, err)
		}
	}
	return f
}

func TestStartWithoutSelection(t *testing.T) {
	f := newFixture(t, "")

	_, err := f.orch.Start(context.Background())
	var noSel *NoSelectionError
	if !errors.As(err, &noSel) {
		t.Fatalf("Start() error = %v, want NoSelectionError", err)
	}
	if got := f.orch.State(); got != StateIdle {
		t.Errorf("State() = %s, want idle", got)
	}
	if calls := f.bridge.log.snapshot(); len(calls) != 0 {
		t.Errorf("collaborators called without a selection: %v", calls)
	}
}

func TestStartBridgeFailure(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	f.bridge.err = errors.New("connection refused")

	_, err := f.orch.Start(context.Background())
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Start() error = %v, want StepError", err)
	}
	if stepErr.Step != StepBridgeConnect {
		t.Errorf("failed step = %s, want %s", stepErr.Step, StepBridgeConnect)
	}
	if got := f.orch.State(); got != StateFailed {
		t.Errorf("State() = %s, want failed", got)
	}

	// The mirror must never launch when the bridge step fails.
	if calls := f.bridge.log.snapshot(); len(calls) != 1 || calls[0] != "bridge" {
		t.Errorf("calls = %v, want [bridge]", calls)
	}

	_, err = f.orch.ToggleScreen(context.Background())
	var notActive *SessionNotActiveError
	if !errors.As(err, &notActive) {
		t.Fatalf("ToggleScreen() error = %v, want SessionNotActiveError", err)
	}
	if notActive.State != StateFailed {
		t.Errorf("SessionNotActiveError.State = %s, want failed", notActive.State)
	}
}

func TestStartMirrorLaunchFailure(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	f.launcher.err = errors.New("scrcpy: no such device")

	_, err := f.orch.Start(context.Background())
	var stepErr *StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Start() error = %v, want StepError", err)
	}
	if stepErr.Step != StepMirrorLaunch {
		t.Errorf("failed step = %s, want %s", stepErr.Step, StepMirrorLaunch)
	}

	snap := f.orch.Snapshot()
	if snap.State != StateFailed {
		t.Errorf("State = %s, want failed", snap.State)
	}
	if snap.FailedStep != StepMirrorLaunch {
		t.Errorf("FailedStep = %s, want %s", snap.FailedStep, StepMirrorLaunch)
	}
}

func TestStartOrdersBridgeBeforeMirror(t *testing.T) {
	f := newFixture(t, "192.168.1.23")

	snap, err := f.orch.Start(context.Background())
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if snap.State != StateActive {
		t.Errorf("State = %s, want active", snap.State)
	}
	if snap.Endpoint != "192.168.1.23:5555" {
		t.Errorf("Endpoint = %s, want 192.168.1.23:5555", snap.Endpoint)
	}

	calls := f.bridge.log.snapshot()
	want := []string{"bridge", "launch"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestToggleRoundTrip(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	if _, err := f.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Screen is assumed on at session start, so the first toggle asks
	// for off and the second asks for on again.
	on, err := f.orch.ToggleScreen(context.Background())
	if err != nil {
		t.Fatalf("first ToggleScreen() error = %v", err)
	}
	if on {
		t.Error("first toggle should report screen off")
	}

	on, err = f.orch.ToggleScreen(context.Background())
	if err != nil {
		t.Fatalf("second ToggleScreen() error = %v", err)
	}
	if !on {
		t.Error("second toggle should report screen on")
	}

	targets := f.toggler.sentTargets()
	if len(targets) != 2 || targets[0] != false || targets[1] != true {
		t.Errorf("sent targets = %v, want [false true]", targets)
	}
}

func TestFailedToggleKeepsAssumedState(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	if _, err := f.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.toggler.setErr(errors.New("device offline"))
	on, err := f.orch.ToggleScreen(context.Background())
	var toggleErr *ToggleError
	if !errors.As(err, &toggleErr) {
		t.Fatalf("ToggleScreen() error = %v, want ToggleError", err)
	}
	if !on {
		t.Error("failed toggle must leave the assumed state on")
	}

	// Once delivery recovers, the retry targets the same transition.
	f.toggler.setErr(nil)
	on, err = f.orch.ToggleScreen(context.Background())
	if err != nil {
		t.Fatalf("retry ToggleScreen() error = %v", err)
	}
	if on {
		t.Error("retried toggle should report screen off")
	}
	targets := f.toggler.sentTargets()
	if len(targets) != 1 || targets[0] != false {
		t.Errorf("sent targets = %v, want [false]", targets)
	}
}

func TestStartSupersedesActiveSession(t *testing.T) {
	f := newFixture(t, "192.168.1.23")

	first, err := f.orch.Start(context.Background())
	if err != nil {
		t.Fatalf("first Start() error = %v", err)
	}
	second, err := f.orch.Start(context.Background())
	if err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	if first.ID == second.ID {
		t.Error("superseding session should have a new id")
	}
	if len(f.launcher.handles) != 2 {
		t.Fatalf("launched %d mirrors, want 2", len(f.launcher.handles))
	}
	if !f.launcher.handles[0].wasStopped() {
		t.Error("superseded session's mirror was not stopped")
	}
	if f.launcher.handles[1].wasStopped() {
		t.Error("new session's mirror should still be running")
	}
	if got := f.orch.State(); got != StateActive {
		t.Errorf("State() = %s, want active", got)
	}
}

func TestStopEndsSession(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	if _, err := f.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := f.orch.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if !f.launcher.handles[0].wasStopped() {
		t.Error("mirror handle was not stopped")
	}
	if got := f.orch.State(); got != StateEnded {
		t.Errorf("State() = %s, want ended", got)
	}

	var notActive *SessionNotActiveError
	if err := f.orch.Stop(); !errors.As(err, &notActive) {
		t.Errorf("second Stop() error = %v, want SessionNotActiveError", err)
	}
}

func TestMirrorExitEndsSession(t *testing.T) {
	f := newFixture(t, "192.168.1.23")
	if _, err := f.orch.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.launcher.handles[0].exit()

	deadline := time.After(2 * time.Second)
	for f.orch.State() != StateEnded {
		select {
		case <-deadline:
			t.Fatalf("State() = %s, want ended after mirror exit", f.orch.State())
		case <-time.After(5 * time.Millisecond):
		}
	}
}
