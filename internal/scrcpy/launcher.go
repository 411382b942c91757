package scrcpy

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/riloraspopo/scrcpygui/internal/logging"
)

// stopGrace is how long Stop waits for scrcpy to exit after SIGTERM before
// killing it outright.
const stopGrace = 3 * time.Second

// Launcher starts scrcpy mirror processes.
type Launcher struct {
	// Path is the scrcpy binary path or name (default "scrcpy", searches PATH)
	Path string
}

// NewLauncher creates a Launcher for the given scrcpy binary path.
// An empty path means "scrcpy" resolved from PATH.
func NewLauncher(path string) *Launcher {
	if path == "" {
		path = "scrcpy"
	}
	return &Launcher{Path: path}
}

// Available reports whether the scrcpy binary can be found.
func (l *Launcher) Available() bool {
	_, err := exec.LookPath(l.Path)
	return err == nil
}

// Launch starts a scrcpy mirror for the device at address:port and returns
// a handle to the running process. The error covers startup only; runtime
// failures surface through the handle.
func (l *Launcher) Launch(ctx context.Context, address string, port int) (*Handle, error) {
	endpoint := net.JoinHostPort(address, strconv.Itoa(port))

	cmd := exec.CommandContext(ctx, l.Path, "--tcpip="+endpoint)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching scrcpy for %s: %w", endpoint, err)
	}

	logging.Info("mirror launched",
		zap.String("endpoint", endpoint),
		zap.Int("pid", cmd.Process.Pid),
	)

	h := &Handle{
		endpoint: endpoint,
		cmd:      cmd,
		done:     make(chan struct{}),
	}
	go h.wait()
	return h, nil
}

// Handle tracks one running scrcpy process.
type Handle struct {
	endpoint string
	cmd      *exec.Cmd
	done     chan struct{}

	mu  sync.Mutex
	err error
}

func (h *Handle) wait() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	close(h.done)

	logging.Info("mirror exited",
		zap.String("endpoint", h.endpoint),
		zap.Error(err),
	)
}

// Done returns a channel closed when the mirror process exits, however it
// exits.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Terminated reports whether the mirror process has already exited.
func (h *Handle) Terminated() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Err returns the process exit error, or nil for a clean exit. Only valid
// after Done is closed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Stop terminates the mirror process. It asks politely with SIGTERM first,
// then kills after a grace period. Stopping an already-exited process is a
// no-op.
func (h *Handle) Stop() error {
	if h.Terminated() {
		return nil
	}

	if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		// Process likely exited between the check and the signal.
		<-h.done
		return nil
	}

	select {
	case <-h.done:
		return nil
	case <-time.After(stopGrace):
	}

	logging.Warn("mirror did not exit on SIGTERM, killing",
		zap.String("endpoint", h.endpoint),
	)
	if err := h.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("killing scrcpy: %w", err)
	}
	<-h.done
	return nil
}
