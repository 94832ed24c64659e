package adb

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Runner executes the adb binary and returns its standard output
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs adb as a child process. Standard error is folded into the
// returned error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return output, errors.Wrapf(err, "%s %s: %s", name, strings.Join(args, " "), strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// Controller talks to one Android device through adb
type Controller struct {
	path      string
	device    string // serial, e.g. "127.0.0.1:5555" or "emulator-5554"
	run       Runner
	mu        sync.Mutex
	connected bool
}

// NewController creates a new ADB controller for a device serial
func NewController(adbPath, device string) *Controller {
	return &Controller{
		path:   adbPath,
		device: device,
		run:    ExecRunner,
	}
}

// WithRunner replaces the process runner
func (c *Controller) WithRunner(run Runner) *Controller {
	c.run = run
	return c
}

// Connect establishes connection to the ADB device. Network serials
// (host:port) go through "adb connect"; other serials only need to be
// attached already.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isNetworkSerial(c.device) {
		output, err := c.run(ctx, c.path, "connect", c.device)
		if err != nil {
			return errors.Wrapf(err, "failed to connect to device %s", c.device)
		}

		// adb exits 0 even when the connection was refused
		if !strings.Contains(string(output), "connected") {
			return errors.Errorf("unexpected connect output: %s", strings.TrimSpace(string(output)))
		}
	}

	output, err := c.run(ctx, c.path, "-s", c.device, "get-state")
	if err != nil {
		return errors.Wrapf(err, "device %s is not available", c.device)
	}
	if state := strings.TrimSpace(string(output)); state != "device" {
		return errors.Errorf("device %s is %s", c.device, state)
	}

	c.connected = true
	return nil
}

// Disconnect drops a network connection made by Connect
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	if isNetworkSerial(c.device) {
		if _, err := c.run(ctx, c.path, "disconnect", c.device); err != nil {
			return errors.Wrapf(err, "failed to disconnect %s", c.device)
		}
	}
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func isNetworkSerial(device string) bool {
	return strings.Contains(device, ":")
}

// Devices lists the serials adb currently reports as ready
func (c *Controller) Devices(ctx context.Context) ([]string, error) {
	output, err := c.run(ctx, c.path, "devices")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}
	return parseDevices(string(output)), nil
}
