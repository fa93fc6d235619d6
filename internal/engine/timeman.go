package engine

import (
	"math"
	"time"
)

// Timer reports the mover's clock. It is polled by the search, never pushed.
type Timer interface {
	// Remaining is the time left on the mover's clock.
	Remaining() time.Duration
	// ElapsedThisTurn is the time spent on the current decision so far.
	ElapsedThisTurn() time.Duration
}

// Clock is a wall-clock Timer started at the beginning of a turn.
type Clock struct {
	start     time.Time
	remaining time.Duration
}

// NewClock starts a turn with the given time left on the clock.
func NewClock(remaining time.Duration) *Clock {
	return &Clock{start: time.Now(), remaining: remaining}
}

// Remaining returns the time left, decreasing as the turn goes on.
func (c *Clock) Remaining() time.Duration {
	return max(c.remaining-time.Since(c.start), 0)
}

// ElapsedThisTurn returns the time since the clock was started.
func (c *Clock) ElapsedThisTurn() time.Duration {
	return time.Since(c.start)
}

// TimeManager converts the remaining clock time into a per-move allowance.
type TimeManager struct {
	moveFraction       float64
	maxMoveTime        time.Duration
	lowTimeThreshold   time.Duration
	lowTimeFraction    float64
	lowTimeMaxMoveTime time.Duration
}

// NewTimeManager creates a time manager from the engine options.
func NewTimeManager(opts Options) *TimeManager {
	return &TimeManager{
		moveFraction:       opts.MoveTimeFraction,
		maxMoveTime:        opts.MaxMoveTime,
		lowTimeThreshold:   opts.LowTimeThreshold,
		lowTimeFraction:    opts.LowTimeFraction,
		lowTimeMaxMoveTime: opts.LowTimeMaxMoveTime,
	}
}

// Allowance returns how long to think with remaining time on the clock.
// Normally a fraction of the remaining time capped at maxMoveTime; below
// the low-time threshold a larger fraction with a tighter cap. The result
// never exceeds remaining.
func (tm *TimeManager) Allowance(remaining time.Duration) time.Duration {
	if remaining <= 0 {
		return 0
	}

	fraction, ceiling := tm.moveFraction, tm.maxMoveTime
	if remaining < tm.lowTimeThreshold {
		fraction, ceiling = tm.lowTimeFraction, tm.lowTimeMaxMoveTime
	}

	allowance := time.Duration(math.Round(float64(remaining) * fraction)).Truncate(time.Millisecond)
	return clamp(allowance, 0, min(ceiling, remaining))
}
