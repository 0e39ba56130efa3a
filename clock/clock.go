// Package clock is the frame clock: delta and total time, frames-per-second
// statistics and wall-clock timing of named initialization phases.
package clock

import (
	"sort"
	"time"
)

// Source returns the current instant. It must be monotonic.
type Source func() time.Time

// Clock is owned by the application run and passed to the components that
// read it. It is not safe for concurrent use.
type Clock struct {
	now Source

	start     time.Time
	last      time.Time
	delta     float64
	total     float64
	frames    uint64
	window    uint64
	fps       float64
	spf       float64
	scale     float64
	lastFPSAt float64

	phaseStart time.Time
	phase      string
	phases     map[string]time.Duration
}

// New returns a clock reading time.Now.
func New() *Clock {
	return NewWithSource(time.Now)
}

// NewWithSource returns a clock reading src. Start is called implicitly.
func NewWithSource(src Source) *Clock {
	c := &Clock{
		now:    src,
		scale:  1.0,
		phases: make(map[string]time.Duration),
	}
	c.Start()
	return c
}

// Start captures the reference instant used for total time and run time and
// restarts the tick bookkeeping from it.
func (c *Clock) Start() {
	c.start = c.now()
	c.last = c.start
	c.phaseStart = c.start
	c.delta = 0
	c.total = 0
	c.lastFPSAt = 0
}

// Reset clears all statistics and recorded phases and restarts the clock.
// The time scale is kept.
func (c *Clock) Reset() {
	c.Start()
	c.frames = 0
	c.window = 0
	c.fps = 0
	c.spf = 0
	c.phase = ""
	c.phases = make(map[string]time.Duration)
}

// Tick advances the clock by one frame. Delta time is the wall time since
// the previous tick multiplied by the time scale. Once at least one second
// has passed since the last recompute, frames-per-second is recomputed over
// that window.
func (c *Clock) Tick() {
	now := c.now()
	elapsed := now.Sub(c.last).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	c.delta = elapsed * c.scale
	c.last = now
	if total := now.Sub(c.start).Seconds(); total > c.total {
		c.total = total
	}
	c.frames++
	c.window++

	if span := c.total - c.lastFPSAt; span >= 1.0 {
		c.fps = float64(c.window) / span
		c.spf = 1.0 / c.fps
		c.lastFPSAt = c.total
		c.window = 0
	}
}

// Delta is the scaled seconds between the last two ticks.
func (c *Clock) Delta() float64 { return c.delta }

// Total is the unscaled seconds from Start to the last tick.
func (c *Clock) Total() float64 { return c.total }

// Frames is the number of ticks since Start.
func (c *Clock) Frames() uint64 { return c.frames }

func (c *Clock) FramesPerSecond() float64 { return c.fps }

func (c *Clock) SecondsPerFrame() float64 { return c.spf }

func (c *Clock) TimeScale() float64 { return c.scale }

// SetTimeScale changes the multiplier applied to subsequent delta times.
// Negative factors are clamped to zero.
func (c *Clock) SetTimeScale(factor float64) {
	if factor < 0 {
		factor = 0
	}
	c.scale = factor
}

// RunTime is the wall time since Start, independent of ticks.
func (c *Clock) RunTime() time.Duration {
	return c.now().Sub(c.start)
}

// StartPhase begins timing the named initialization phase.
func (c *Clock) StartPhase(name string) {
	c.phase = name
	c.phaseStart = c.now()
}

// EndPhase records the duration of the current phase, replacing any earlier
// measurement under the same name, and returns it.
func (c *Clock) EndPhase() time.Duration {
	d := c.now().Sub(c.phaseStart)
	c.phases[c.phase] = d
	return d
}

// Phase returns the recorded duration of name, 0 if it was never timed.
func (c *Clock) Phase(name string) time.Duration {
	return c.phases[name]
}

// Phases returns the recorded phase names in sorted order.
func (c *Clock) Phases() []string {
	names := make([]string, 0, len(c.phases))
	for name := range c.phases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalPhaseTime sums every recorded phase.
func (c *Clock) TotalPhaseTime() time.Duration {
	var total time.Duration
	for _, d := range c.phases {
		total += d
	}
	return total
}
