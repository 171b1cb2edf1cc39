package app

import "time"

// Clock returns the server-side current time. All duration math goes
// through it; client timestamps are never consulted.
type Clock func() time.Time

// SystemClock reads the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// elapsedSince is the one primitive shared by the question timer and the
// response latency measurement.
func elapsedSince(start, now time.Time) time.Duration {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return d
}
