package cv

import (
	"image"

	"github.com/kbinani/screenshot"
	"github.com/pkg/errors"
)

// DesktopCapture grabs a whole monitor through the platform screenshot API
type DesktopCapture struct {
	display int
	bounds  image.Rectangle
}

// NewDesktopCapture creates a capturer for the given display index
func NewDesktopCapture(display int) (*DesktopCapture, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return nil, errors.New("no active displays found")
	}
	if display < 0 || display >= n {
		return nil, errors.Errorf("display %d out of range, %d active displays", display, n)
	}

	return &DesktopCapture{
		display: display,
		bounds:  screenshot.GetDisplayBounds(display),
	}, nil
}

// CaptureFrame captures the display. The returned image is positioned at the
// display's offset in the virtual screen so match points are click-ready.
func (dc *DesktopCapture) CaptureFrame() (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(dc.bounds)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to capture display %d", dc.display)
	}

	// Shifting Rect keeps PixOffset consistent with the existing Pix layout
	img.Rect = image.Rectangle{Min: dc.bounds.Min, Max: dc.bounds.Min.Add(img.Rect.Size())}

	return img, nil
}

// GetDimensions returns the display dimensions
func (dc *DesktopCapture) GetDimensions() (width, height int) {
	return dc.bounds.Dx(), dc.bounds.Dy()
}

// Bounds returns the display rectangle in virtual screen coordinates
func (dc *DesktopCapture) Bounds() image.Rectangle {
	return dc.bounds
}
