package session

import (
	"context"
	"sync"
)

// ScreenController tracks the assumed screen state of a mirrored device and
// sends the key event for the opposite state on each toggle.
//
// There is no feedback channel for the real display state, so the tracked
// state is an assumption seeded at session start: a device the user just
// connected to has its screen on. If the device is toggled outside this
// controller the assumption drifts until the next successful toggle from
// here realigns user intent with an explicit target state.
type ScreenController struct {
	toggler  ScreenToggler
	endpoint string

	mu       sync.Mutex
	screenOn bool
}

// NewScreenController creates a controller for the device at endpoint,
// assuming its screen is currently on.
func NewScreenController(toggler ScreenToggler, endpoint string) *ScreenController {
	return &ScreenController{
		toggler:  toggler,
		endpoint: endpoint,
		screenOn: true,
	}
}

// Toggle sends the key event for the opposite of the assumed state and
// returns the new assumed state. On delivery failure the assumed state is
// unchanged, so retrying targets the same transition.
func (c *ScreenController) Toggle(ctx context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := !c.screenOn
	if err := c.toggler.SendToggle(ctx, c.endpoint, target); err != nil {
		return c.screenOn, &ToggleError{Err: err}
	}
	c.screenOn = target
	return c.screenOn, nil
}

// ScreenOn returns the assumed screen state.
func (c *ScreenController) ScreenOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screenOn
}
