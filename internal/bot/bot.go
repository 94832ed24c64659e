package bot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"jordanella.com/autoclick/internal/cv"
	"jordanella.com/autoclick/internal/input"
	"jordanella.com/autoclick/internal/logging"
)

var (
	// ErrNoTemplates is returned before any tick when the template set is empty
	ErrNoTemplates = errors.New("template set is empty")
	// ErrCapture marks a failed frame capture; it ends the run
	ErrCapture = errors.New("frame capture failed")
	// ErrActuate marks a failed click; it ends the run
	ErrActuate = errors.New("click failed")
)

// Bot runs the capture, match and click loop against one frame source and
// one actuator
type Bot struct {
	cv       *cv.Service
	actuator input.Actuator
	logger   *logging.Logger
}

// New creates a bot
func New(service *cv.Service, actuator input.Actuator, logger *logging.Logger) *Bot {
	if logger == nil {
		logger = logging.NewLogger("Bot")
	}

	return &Bot{
		cv:       service,
		actuator: actuator,
		logger:   logger,
	}
}

// Run repeats ticks until the failure streak reaches the threshold, ctx is
// cancelled, or a capture or click fails. Cancellation is honoured before
// each tick and while waiting between ticks; a tick in progress, including
// its click, always completes.
func (b *Bot) Run(ctx context.Context, templates []cv.Template, params RunParams) (Summary, error) {
	summary := Summary{
		RunID: uuid.New().String(),
		Hits:  make(map[string]int),
	}

	if len(templates) == 0 {
		return summary, ErrNoTemplates
	}
	for i, t := range templates {
		if !t.Valid() {
			return summary, errors.Errorf("template %d (%s) has no pixels", i, t.Name)
		}
	}
	if err := params.Validate(); err != nil {
		return summary, errors.Wrap(err, "invalid run parameters")
	}

	log := b.logger.WithContext(map[string]interface{}{"run": summary.RunID[:8]})
	log.Infof("Starting with %d templates, tolerance %.2f, interval %v, stop after %d misses",
		len(templates), float64(params.Tolerance), params.Interval, params.MaxConsecutiveFailures)

	started := time.Now()

	var state LoopState
	finish := func(reason StopReason, err error) (Summary, error) {
		summary.Reason = reason
		summary.Successes = state.Successes
		summary.Ticks = state.Ticks
		summary.Elapsed = time.Since(started)
		log.Infof("Clicks performed total: %d", state.Successes)
		return summary, err
	}

	if params.StartDelay > 0 {
		log.Infof("Waiting %v before the first capture", params.StartDelay)
		if !b.sleep(ctx, params.StartDelay) {
			return finish(StopCancelled, nil)
		}
	}

	for {
		if state.thresholdReached(params.MaxConsecutiveFailures) {
			log.Infof("Stopping after %d consecutive misses", state.ConsecutiveFailures)
			return finish(StopFailureThreshold, nil)
		}
		if ctx.Err() != nil {
			log.Info("Stop requested")
			return finish(StopCancelled, nil)
		}

		next, matched, err := b.tick(state, templates, params.Tolerance, log)
		if err != nil {
			state = next
			log.Error("Run aborted", err)
			return finish(StopError, err)
		}
		state = next
		if matched != "" {
			summary.Hits[matched]++
		}

		if state.thresholdReached(params.MaxConsecutiveFailures) {
			continue
		}
		if !b.sleep(ctx, params.Interval) {
			log.Info("Stop requested")
			return finish(StopCancelled, nil)
		}
	}
}

// tick captures one frame, resolves the template set against it and clicks
// on a match. It returns the next state and the name of the matched
// template, empty on a miss.
func (b *Bot) tick(state LoopState, templates []cv.Template, tolerance cv.Tolerance, log *logging.ContextLogger) (LoopState, string, error) {
	result, idx, err := b.cv.FindAnyTemplate(templates, tolerance)
	if err != nil {
		state.Ticks++
		return state, "", errors.Wrapf(ErrCapture, "tick %d: %v", state.Ticks, err)
	}

	p, ok := result.Point()
	if !ok {
		state = state.afterMatch(result)
		log.Debug("No template found")
		return state, "", nil
	}

	name := templates[idx].Name
	log.Infof("Image found at: %d, %d (%s)", p.X, p.Y, name)

	if err := b.actuator.MoveAndClick(p.X, p.Y); err != nil {
		state.Ticks++
		return state, "", errors.Wrapf(ErrActuate, "tick %d at %d, %d: %v", state.Ticks, p.X, p.Y, err)
	}
	log.Info("Mouse click performed")

	state = state.afterMatch(result)
	log.Infof("Clicks performed so far: %d", state.Successes)
	return state, name, nil
}

// sleep waits for d and reports false if ctx was cancelled first
func (b *Bot) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
