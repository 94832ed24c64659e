//go:build windows
// +build windows

package backend

import (
	"context"

	"jordanella.com/autoclick/internal/config"
	"jordanella.com/autoclick/internal/cv"
	"jordanella.com/autoclick/internal/input"
	"jordanella.com/autoclick/internal/logging"
)

func openWin32(context.Context, *config.Settings, *logging.Logger) (*Backend, error) {
	capture, err := cv.NewScreenCapture()
	if err != nil {
		return nil, err
	}

	return &Backend{
		Name:     config.BackendWin32,
		Capturer: capture,
		Actuator: input.NewWin32(),
	}, nil
}
