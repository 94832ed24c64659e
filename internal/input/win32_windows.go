//go:build windows
// +build windows

package input

import (
	"unsafe"

	"github.com/lxn/win"
	"github.com/pkg/errors"
)

// Win32 positions the cursor with SetCursorPos and injects a left button
// press and release with SendInput
type Win32 struct{}

// NewWin32 creates a Win32 actuator
func NewWin32() *Win32 {
	return &Win32{}
}

// MoveAndClick moves to (x, y) in screen coordinates and left clicks
func (w *Win32) MoveAndClick(x, y int) error {
	if !win.SetCursorPos(int32(x), int32(y)) {
		return errors.Errorf("SetCursorPos(%d, %d) failed", x, y)
	}

	inputs := []win.MOUSE_INPUT{
		{
			Type: win.INPUT_MOUSE,
			Mi:   win.MOUSEINPUT{DwFlags: win.MOUSEEVENTF_LEFTDOWN},
		},
		{
			Type: win.INPUT_MOUSE,
			Mi:   win.MOUSEINPUT{DwFlags: win.MOUSEEVENTF_LEFTUP},
		},
	}

	sent := win.SendInput(uint32(len(inputs)), unsafe.Pointer(&inputs[0]), int32(unsafe.Sizeof(inputs[0])))
	if sent != uint32(len(inputs)) {
		return errors.Errorf("SendInput injected %d of %d events", sent, len(inputs))
	}
	return nil
}
