package input

import (
	"image"
	"sync"

	"jordanella.com/autoclick/internal/logging"
)

// Actuator moves the pointer to a point and performs one left click there.
// A returned error means the click may not have happened.
type Actuator interface {
	MoveAndClick(x, y int) error
}

// DryRun logs clicks instead of performing them
type DryRun struct {
	logger *logging.Logger

	mu     sync.Mutex
	clicks []image.Point
}

// NewDryRun creates an actuator that only records and logs clicks
func NewDryRun(logger *logging.Logger) *DryRun {
	return &DryRun{logger: logger}
}

// MoveAndClick records the click
func (d *DryRun) MoveAndClick(x, y int) error {
	d.mu.Lock()
	d.clicks = append(d.clicks, image.Point{X: x, Y: y})
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Infof("Dry run: would click at %d, %d", x, y)
	}
	return nil
}

// Clicks returns every recorded click in order
func (d *DryRun) Clicks() []image.Point {
	d.mu.Lock()
	defer d.mu.Unlock()

	clicks := make([]image.Point, len(d.clicks))
	copy(clicks, d.clicks)
	return clicks
}
