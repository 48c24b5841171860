package gesture

// Counter is a hysteresis counter clamped to [0, Max]. Derived states flip
// only when the counter sits at one of its extremes.
type Counter struct {
	value int
	max   int
}

// NewCounter returns an empty counter bounded by max (at least 1).
func NewCounter(max int) Counter {
	if max < 1 {
		max = 1
	}
	return Counter{max: max}
}

// Value returns the current count.
func (c *Counter) Value() int { return c.value }

// Max returns the upper bound.
func (c *Counter) Max() int { return c.max }

// Inc adds one, saturating at Max.
func (c *Counter) Inc() {
	if c.value < c.max {
		c.value++
	}
}

// Dec removes one, saturating at zero.
func (c *Counter) Dec() {
	if c.value > 0 {
		c.value--
	}
}

// Step increments on true and decrements on false.
func (c *Counter) Step(up bool) {
	if up {
		c.Inc()
	} else {
		c.Dec()
	}
}

// Reset drops the count to zero.
func (c *Counter) Reset() { c.value = 0 }

// Full reports whether the counter is at Max.
func (c *Counter) Full() bool { return c.value == c.max }

// Empty reports whether the counter is at zero.
func (c *Counter) Empty() bool { return c.value == 0 }

// SetMax changes the bound and re-clamps the current value.
func (c *Counter) SetMax(max int) {
	if max < 1 {
		max = 1
	}
	c.max = max
	if c.value > max {
		c.value = max
	}
}
