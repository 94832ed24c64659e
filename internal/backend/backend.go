// Package backend pairs a frame source with the actuator that clicks in the
// same coordinate space.
package backend

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"jordanella.com/autoclick/internal/adb"
	"jordanella.com/autoclick/internal/config"
	"jordanella.com/autoclick/internal/cv"
	"jordanella.com/autoclick/internal/input"
	"jordanella.com/autoclick/internal/logging"
)

// ErrUnsupported is returned for a backend this platform cannot provide
var ErrUnsupported = errors.New("backend not supported on this platform")

// Backend is a capturer and actuator that agree on coordinates
type Backend struct {
	Name     string
	Capturer cv.Capturer
	Actuator input.Actuator

	close func() error
}

// Opener builds one kind of backend from settings
type Opener func(ctx context.Context, settings *config.Settings, logger *logging.Logger) (*Backend, error)

var (
	openersMu sync.Mutex
	openers   = map[string]Opener{
		config.BackendDesktop: openDesktop,
		config.BackendWin32:   openWin32,
		config.BackendADB:     openADB,
	}
)

// Register installs open for the backend name and returns the opener it
// replaced, nil if there was none
func Register(name string, open Opener) Opener {
	openersMu.Lock()
	defer openersMu.Unlock()

	previous := openers[name]
	openers[name] = open
	return previous
}

// Close releases the backend's connections
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open builds the backend named in settings. With dry_run set the real
// actuator is replaced by one that only logs.
func Open(ctx context.Context, settings *config.Settings, logger *logging.Logger) (*Backend, error) {
	openersMu.Lock()
	open, ok := openers[settings.Backend]
	openersMu.Unlock()
	if !ok || open == nil {
		return nil, errors.Errorf("unknown backend %q", settings.Backend)
	}

	b, err := open(ctx, settings, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s backend", settings.Backend)
	}

	if settings.DryRun {
		b.Actuator = input.NewDryRun(logger.Named("DryRun"))
	}

	width, height := b.Capturer.GetDimensions()
	logger.Infof("Using %s backend (%dx%d)", b.Name, width, height)
	return b, nil
}

func openDesktop(_ context.Context, settings *config.Settings, _ *logging.Logger) (*Backend, error) {
	capture, err := cv.NewDesktopCapture(settings.Display)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Name:     config.BackendDesktop,
		Capturer: capture,
		Actuator: input.NewDesktop(),
	}, nil
}

func openADB(ctx context.Context, settings *config.Settings, logger *logging.Logger) (*Backend, error) {
	adbPath, err := adb.FindADB(settings.ADBPath)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Using adb at %s", adbPath)

	ctrl := adb.NewController(adbPath, settings.ADBDevice)
	if err := ctrl.Connect(ctx); err != nil {
		if devices, listErr := ctrl.Devices(ctx); listErr == nil && len(devices) > 0 {
			logger.Warnf("Attached devices: %v", devices)
		}
		return nil, err
	}

	return &Backend{
		Name:     config.BackendADB,
		Capturer: adb.NewScreenCapture(ctrl),
		Actuator: ctrl,
		close: func() error {
			return ctrl.Disconnect(context.Background())
		},
	}, nil
}
