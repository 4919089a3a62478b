package utils

import "time"

// Timer measures wall-clock time from construction (or the last Start) to Stop.
type Timer struct {
	startTime time.Time
}

// NewTimer returns a running Timer.
func NewTimer() *Timer {
	return &Timer{startTime: time.Now()}
}

// Start restarts the measurement.
func (t *Timer) Start() {
	t.startTime = time.Now()
}

// Stop returns the time elapsed since the timer started.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.startTime)
}
