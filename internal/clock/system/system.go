// Package system provides the wall clock used to stamp snapshots.
package system

import "time"

// Clock returns the current time in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current UTC time truncated to whole seconds.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
