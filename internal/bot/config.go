package bot

import (
	"time"

	"github.com/pkg/errors"
	"jordanella.com/autoclick/internal/config"
	"jordanella.com/autoclick/internal/cv"
)

// RunParams is the immutable part of a run, taken from settings once
type RunParams struct {
	Tolerance              cv.Tolerance
	Interval               time.Duration
	MaxConsecutiveFailures int
	StartDelay             time.Duration
}

// ParamsFromSettings extracts run parameters from validated settings
func ParamsFromSettings(s *config.Settings) RunParams {
	return RunParams{
		Tolerance:              cv.Tolerance(s.Tolerance),
		Interval:               s.Interval(),
		MaxConsecutiveFailures: s.MaxConsecutiveFailures,
		StartDelay:             s.StartDelay(),
	}
}

// Validate checks the parameters before a run starts
func (p RunParams) Validate() error {
	if err := p.Tolerance.Validate(); err != nil {
		return err
	}
	if p.Interval < 0 {
		return errors.Errorf("interval must not be negative, got %v", p.Interval)
	}
	if p.MaxConsecutiveFailures < 0 {
		return errors.Errorf("max consecutive failures must not be negative, got %d", p.MaxConsecutiveFailures)
	}
	if p.StartDelay < 0 {
		return errors.Errorf("start delay must not be negative, got %v", p.StartDelay)
	}
	return nil
}
