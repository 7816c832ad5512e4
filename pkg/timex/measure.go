// Package timex measures wall-clock durations of model invocations.
package timex

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Measurement records the moment an invocation started.
// The zero value is not useful, create one with Start.
type Measurement struct {
	start time.Time
}

// Start captures the current time. The captured value carries a monotonic
// clock reading, so Elapsed is not affected by wall-clock adjustments.
func Start() Measurement {
	return Measurement{start: time.Now()}
}

// StartTime returns the wall-clock start time.
func (m Measurement) StartTime() time.Time {
	return m.start
}

// StartTimestamp returns the start time formatted for event payloads.
func (m Measurement) StartTimestamp() strfmt.DateTime {
	return strfmt.DateTime(m.start.UTC())
}

// StartEpochSeconds returns the start time as whole seconds since the Unix epoch.
func (m Measurement) StartEpochSeconds() int64 {
	return m.start.Unix()
}

// Elapsed returns the time passed since Start.
func (m Measurement) Elapsed() time.Duration {
	return time.Since(m.start)
}

// DurationInMs returns the elapsed time in whole milliseconds.
func (m Measurement) DurationInMs() int64 {
	return m.Elapsed().Milliseconds()
}
