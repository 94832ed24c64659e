package adb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultCommandTimeout bounds every adb call made without a deadline
const DefaultCommandTimeout = 10 * time.Second

// Tap performs a tap at the specified screen coordinates
func (c *Controller) Tap(ctx context.Context, x, y int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// MoveAndClick taps at (x, y). Touch screens have no pointer to move.
func (c *Controller) MoveAndClick(x, y int) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCommandTimeout)
	defer cancel()

	return c.Tap(ctx, x, y)
}

// Shell executes a shell command on the device and returns its output
func (c *Controller) Shell(ctx context.Context, command string) (string, error) {
	output, err := c.exec(ctx, "shell", command)
	if err != nil {
		return "", errors.Wrap(err, "shell command failed")
	}
	return strings.TrimSpace(string(output)), nil
}

// GetWindowSize returns the current screen size
func (c *Controller) GetWindowSize(ctx context.Context) (width, height int, err error) {
	output, err := c.Shell(ctx, "wm size")
	if err != nil {
		return 0, 0, err
	}
	return parseWindowSize(output)
}

// exec runs an adb command against the controller's device
func (c *Controller) exec(ctx context.Context, args ...string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCommandTimeout)
		defer cancel()
	}

	return c.run(ctx, c.path, append([]string{"-s", c.device}, args...)...)
}

// parseWindowSize reads "wm size" output. An override size, when present,
// wins over the physical size since it is what the screen shows.
func parseWindowSize(output string) (width, height int, err error) {
	found := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)

		var w, h int
		if _, err := fmt.Sscanf(line, "Override size: %dx%d", &w, &h); err == nil {
			return w, h, nil
		}
		if _, err := fmt.Sscanf(line, "Physical size: %dx%d", &w, &h); err == nil {
			width, height, found = w, h, true
		}
	}

	if !found {
		return 0, 0, errors.Errorf("failed to parse window size: %s", output)
	}
	return width, height, nil
}
