// Package clock provides the engine's monotonic time source.
package clock

import "time"

// Clock measures monotonic seconds since its creation. Construct with
// New; the zero value is not usable.
type Clock struct {
	now    func() time.Time
	start  time.Time
	prev   float64
	delta  float64
	ticked bool
}

// New creates a clock backed by the system monotonic clock.
func New() *Clock {
	return NewWithNow(time.Now)
}

// NewWithNow creates a clock reading time from the given function.
// Tests inject a controllable source here.
func NewWithNow(now func() time.Time) *Clock {
	return &Clock{
		now:   now,
		start: now(),
	}
}

// Now returns seconds elapsed since the clock was created.
func (c *Clock) Now() float64 {
	return c.now().Sub(c.start).Seconds()
}

// Tick advances the clock one frame and returns the time since the
// previous Tick in seconds. The first Tick returns 0.
func (c *Clock) Tick() float64 {
	t := c.Now()
	if !c.ticked {
		c.ticked = true
		c.prev = t
		c.delta = 0
		return 0
	}
	c.delta = t - c.prev
	c.prev = t
	return c.delta
}

// Delta returns the delta of the most recent Tick, 0 before the first.
func (c *Clock) Delta() float64 {
	return c.delta
}
