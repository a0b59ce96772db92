// Package clock abstracts wall time so the kernel stays deterministic:
// snapshot timestamps, job cooldowns, and event times all go through a
// Clock that tests pin to a fixed instant.
package clock

import "time"

//go:generate mockgen -destination=mock/mock.go -package=mockclock github.com/driftlands/worldsim/internal/pkg/clock Clock

// Clock is the single time source handed to stores, engines, and
// repositories.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock.
type Real struct{}

// Now returns the current time
func (c *Real) Now() time.Time {
	return time.Now()
}

// New returns a Clock backed by the system clock.
func New() Clock {
	return &Real{}
}
