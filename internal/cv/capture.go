package cv

import (
	"image"

	"github.com/pkg/errors"
)

// Capturer interface for different capture methods
type Capturer interface {
	CaptureFrame() (*image.RGBA, error)
	GetDimensions() (width, height int)
}

// ErrNoFrame is returned by capturers that have nothing to hand out
var ErrNoFrame = errors.New("no frame available")

// ImageCapturer serves the same still image on every capture. It backs the
// one-shot find command, which matches templates against a saved screenshot.
type ImageCapturer struct {
	frame *image.RGBA
}

// NewImageCapturer creates a capturer for a fixed frame
func NewImageCapturer(frame *image.RGBA) *ImageCapturer {
	return &ImageCapturer{frame: frame}
}

// CaptureFrame returns the fixed frame
func (c *ImageCapturer) CaptureFrame() (*image.RGBA, error) {
	if c.frame == nil {
		return nil, ErrNoFrame
	}
	return c.frame, nil
}

// GetDimensions returns the frame size
func (c *ImageCapturer) GetDimensions() (width, height int) {
	if c.frame == nil {
		return 0, 0
	}
	return c.frame.Bounds().Dx(), c.frame.Bounds().Dy()
}
