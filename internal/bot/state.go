package bot

import (
	"fmt"
	"time"

	"jordanella.com/autoclick/internal/cv"
)

// StopReason says why a run ended
type StopReason string

const (
	StopFailureThreshold StopReason = "failure_threshold"
	StopCancelled        StopReason = "cancelled"
	StopError            StopReason = "error"
)

// LoopState is the per-run counter set. It is owned by Run, handed by value
// to each tick and replaced by the value the tick returns.
type LoopState struct {
	ConsecutiveFailures int
	Successes           int
	Ticks               int
}

// afterMatch returns the state following a tick's resolver outcome
func (s LoopState) afterMatch(result cv.MatchResult) LoopState {
	s.Ticks++
	if result.Found() {
		s.Successes++
		s.ConsecutiveFailures = 0
	} else {
		s.ConsecutiveFailures++
	}
	return s
}

// thresholdReached reports whether the failure streak ends the run. A
// threshold of zero stops the run before its first tick.
func (s LoopState) thresholdReached(max int) bool {
	return s.ConsecutiveFailures >= max
}

// Summary reports a finished run
type Summary struct {
	RunID     string
	Reason    StopReason
	Successes int
	Ticks     int
	Hits      map[string]int // successes per template name
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d clicks in %d ticks (%s, %s)", s.Successes, s.Ticks, s.Reason, s.Elapsed.Round(time.Millisecond))
}
