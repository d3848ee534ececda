package core

import "time"

type Clock struct {
	startTime float64
	elapsed   float64
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.startTime != 0 {
		c.elapsed = secondsNow() - c.startTime
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = secondsNow()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = 0
}

// Elapsed returns the seconds between the last Start and the last Update.
func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

func secondsNow() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// EpochSeconds returns the wall-clock seconds since the Unix epoch in double
// precision. The rotating geometry is a pure function of this value.
func EpochSeconds() float64 {
	return secondsNow()
}
