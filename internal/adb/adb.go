package adb

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/riloraspopo/scrcpygui/internal/logging"
)

// Android key event codes for the two toggle directions. Distinct code per
// direction, so each command states the intended state rather than "flip".
const (
	keycodeSleep  = "223" // KEYCODE_SLEEP turns the display off
	keycodeWakeup = "224" // KEYCODE_WAKEUP turns the display on
)

// DefaultTimeout bounds a single adb invocation. adb itself retries and
// blocks on unreachable targets, so the cap keeps session operations from
// hanging indefinitely.
const DefaultTimeout = 10 * time.Second

// Client invokes the adb binary to register debug bridge targets and send
// key events.
type Client struct {
	// Path is the adb binary path or name (default "adb", searches PATH)
	Path string

	// Timeout is the maximum time to wait for one adb invocation
	Timeout time.Duration
}

// NewClient creates a Client for the given adb binary path.
// An empty path means "adb" resolved from PATH.
func NewClient(path string) *Client {
	if path == "" {
		path = "adb"
	}
	return &Client{
		Path:    path,
		Timeout: DefaultTimeout,
	}
}

// Available reports whether the adb binary can be found.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.Path)
	return err == nil
}

// Connect registers address:port as a debug bridge target via "adb connect".
// Connecting to an already-connected target succeeds trivially.
func (c *Client) Connect(ctx context.Context, address string, port int) error {
	endpoint := net.JoinHostPort(address, strconv.Itoa(port))

	out, err := c.run(ctx, "connect", endpoint)
	if err != nil {
		return fmt.Errorf("adb connect %s: %w", endpoint, err)
	}

	if !connectSucceeded(out) {
		return fmt.Errorf("adb connect %s: %s", endpoint, strings.TrimSpace(out))
	}

	logging.Info("bridge connected", zap.String("endpoint", endpoint))
	return nil
}

// Disconnect removes address:port from the debug bridge target list.
// Best-effort; an unknown target is not an error.
func (c *Client) Disconnect(ctx context.Context, address string, port int) error {
	endpoint := net.JoinHostPort(address, strconv.Itoa(port))
	if _, err := c.run(ctx, "disconnect", endpoint); err != nil {
		return fmt.Errorf("adb disconnect %s: %w", endpoint, err)
	}
	return nil
}

// SendToggle sends the key event for the requested screen state to the
// device at endpoint. turnOn selects KEYCODE_WAKEUP, otherwise KEYCODE_SLEEP.
func (c *Client) SendToggle(ctx context.Context, endpoint string, turnOn bool) error {
	code := keycodeSleep
	if turnOn {
		code = keycodeWakeup
	}

	out, err := c.run(ctx, "-s", endpoint, "shell", "input", "keyevent", code)
	if err != nil {
		return fmt.Errorf("adb keyevent %s on %s: %w (%s)",
			code, endpoint, err, strings.TrimSpace(out))
	}

	logging.Info("screen toggle sent",
		zap.String("endpoint", endpoint),
		zap.Bool("turn_on", turnOn),
	)
	return nil
}

// run executes one adb invocation and returns its combined output.
func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Path, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	logging.Debug("running adb",
		zap.String("path", c.Path),
		zap.Strings("args", args),
	)

	err := cmd.Run()
	return buf.String(), err
}

// connectSucceeded classifies "adb connect" output. adb exits zero even on
// failure, so the output text is the only reliable signal. "connected to"
// and "already connected to" are both success (the bridge is idempotent).
func connectSucceeded(output string) bool {
	out := strings.ToLower(strings.TrimSpace(output))
	if strings.HasPrefix(out, "already connected to") {
		return true
	}
	if strings.HasPrefix(out, "connected to") {
		return true
	}
	return false
}
