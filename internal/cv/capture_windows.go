//go:build windows
// +build windows

package cv

import (
	"image"
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
)

// WindowCapture grabs the client area of one window through GDI
type WindowCapture struct {
	hwnd   win.HWND
	width  int
	height int
}

// NewScreenCapture creates a capturer for the whole primary screen by
// targeting the desktop window
func NewScreenCapture() (*WindowCapture, error) {
	return NewWindowCapture(win.GetDesktopWindow())
}

// NewWindowCapture creates a capturer for the client area of hwnd
func NewWindowCapture(hwnd win.HWND) (*WindowCapture, error) {
	if hwnd == 0 {
		return nil, errors.New("invalid window handle")
	}

	wc := &WindowCapture{hwnd: hwnd}
	if err := wc.UpdateDimensions(); err != nil {
		return nil, err
	}

	return wc, nil
}

// CaptureFrame copies the window into a memory bitmap and converts it to RGBA
func (wc *WindowCapture) CaptureFrame() (*image.RGBA, error) {
	hdcWindow := win.GetDC(wc.hwnd)
	if hdcWindow == 0 {
		return nil, errors.New("GetDC failed")
	}
	defer win.ReleaseDC(wc.hwnd, hdcWindow)

	hdcMem := win.CreateCompatibleDC(hdcWindow)
	if hdcMem == 0 {
		return nil, errors.New("CreateCompatibleDC failed")
	}
	defer win.DeleteDC(hdcMem)

	w, h := int32(wc.width), int32(wc.height)
	bitmap := win.CreateCompatibleBitmap(hdcWindow, w, h)
	if bitmap == 0 {
		return nil, errors.Errorf("CreateCompatibleBitmap %dx%d failed", w, h)
	}
	defer win.DeleteObject(win.HGDIOBJ(bitmap))

	previous := win.SelectObject(hdcMem, win.HGDIOBJ(bitmap))
	defer win.SelectObject(hdcMem, previous)

	if !win.BitBlt(hdcMem, 0, 0, w, h, hdcWindow, 0, 0, win.SRCCOPY) {
		return nil, errors.New("BitBlt failed")
	}

	var bi win.BITMAPINFO
	bi.BmiHeader.BiSize = uint32(unsafe.Sizeof(bi.BmiHeader))
	bi.BmiHeader.BiWidth = w
	bi.BmiHeader.BiHeight = -h // top-down rows
	bi.BmiHeader.BiPlanes = 1
	bi.BmiHeader.BiBitCount = 32
	bi.BmiHeader.BiCompression = win.BI_RGB

	img := image.NewRGBA(image.Rect(0, 0, wc.width, wc.height))
	if win.GetDIBits(hdcMem, bitmap, 0, uint32(h), &img.Pix[0], &bi, win.DIB_RGB_COLORS) == 0 {
		return nil, errors.New("GetDIBits failed")
	}

	// GDI hands back BGRX
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		img.Pix[i+3] = 0xff
	}

	return img, nil
}

// GetDimensions returns the window dimensions
func (wc *WindowCapture) GetDimensions() (width, height int) {
	return wc.width, wc.height
}

// UpdateDimensions re-reads the client rectangle, e.g. after a resolution change
func (wc *WindowCapture) UpdateDimensions() error {
	var rect win.RECT
	if !win.GetClientRect(wc.hwnd, &rect) {
		return errors.New("GetClientRect failed")
	}

	width := int(rect.Right - rect.Left)
	height := int(rect.Bottom - rect.Top)
	if width <= 0 || height <= 0 {
		return errors.Errorf("invalid window dimensions: %dx%d", width, height)
	}

	wc.width, wc.height = width, height
	return nil
}
