//go:build !windows
// +build !windows

package backend

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"jordanella.com/autoclick/internal/config"
	"jordanella.com/autoclick/internal/logging"
)

func openWin32(context.Context, *config.Settings, *logging.Logger) (*Backend, error) {
	return nil, errors.Wrapf(ErrUnsupported, "win32 on %s", runtime.GOOS)
}
