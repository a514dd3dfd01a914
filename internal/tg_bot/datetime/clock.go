package datetime

import "time"

// Clock reports the current time in the reference zone.
type Clock interface {
	Now() time.Time
}

// ZoneClock is the wall clock pinned to a single location.
type ZoneClock struct {
	Loc *time.Location
}

// Now returns the current time in c.Loc.
func (c ZoneClock) Now() time.Time {
	return time.Now().In(c.Loc)
}
