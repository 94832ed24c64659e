package input

import (
	"time"

	"github.com/go-vgo/robotgo"
)

// Desktop drives the system pointer through robotgo
type Desktop struct {
	// Settle is the pause between moving and pressing
	Settle time.Duration
}

// NewDesktop creates a desktop actuator
func NewDesktop() *Desktop {
	robotgo.MouseSleep = 10
	return &Desktop{Settle: 10 * time.Millisecond}
}

// MoveAndClick moves to (x, y) in virtual screen coordinates and left clicks
func (d *Desktop) MoveAndClick(x, y int) error {
	robotgo.Move(x, y)
	if d.Settle > 0 {
		time.Sleep(d.Settle)
	}
	robotgo.Click("left")
	return nil
}
