// Package system is the wall-clock implementation of scoreboard.Clock. The
// sync loops, cache, and merge views all take the interface so tests can
// substitute a fake; this is the one everything uses in production.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New creates a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Game dates are derived from it via
// timeutil, which applies the eastern calendar conversion.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
