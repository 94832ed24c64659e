package adb

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"

	"github.com/disintegration/gift"
	"github.com/pkg/errors"
)

// ScreenCapture grabs device frames with "screencap -p" streamed over
// exec-out, so no file is written on the device
type ScreenCapture struct {
	ctrl *Controller

	mu            sync.Mutex
	width, height int
}

// NewScreenCapture creates a frame source for the controller's device
func NewScreenCapture(ctrl *Controller) *ScreenCapture {
	return &ScreenCapture{ctrl: ctrl}
}

// CaptureFrame captures the current device screen
func (s *ScreenCapture) CaptureFrame() (*image.RGBA, error) {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultCommandTimeout)
	defer cancel()

	data, err := s.ctrl.exec(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, errors.Wrap(err, "screencap failed")
	}

	frame, err := decodeScreencap(data)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.width, s.height = frame.Bounds().Dx(), frame.Bounds().Dy()
	s.mu.Unlock()

	return frame, nil
}

// GetDimensions returns the size of the last captured frame. Before the
// first capture it asks the device through "wm size"; 0x0 if that fails.
func (s *ScreenCapture) GetDimensions() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width == 0 || s.height == 0 {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultCommandTimeout)
		defer cancel()

		if w, h, err := s.ctrl.GetWindowSize(ctx); err == nil {
			s.width, s.height = w, h
		}
	}

	return s.width, s.height
}

func decodeScreencap(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, errors.New("screencap returned no data")
	}

	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode screencap png")
	}

	if rgba, ok := src.(*image.RGBA); ok {
		return rgba, nil
	}

	// Screencap output is opaque, so straight and premultiplied colour agree
	g := gift.New()
	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst, nil
}
