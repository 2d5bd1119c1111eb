package memory

import "time"

// Observer captures telemetry for profile updates. Implementations must be safe for
// concurrent use.
type Observer interface {
	RecordMerge(operation string, duration time.Duration, err error)
	RecordConflict(operation string)
}

type nopObserver struct{}

func (nopObserver) RecordMerge(string, time.Duration, error) {}

func (nopObserver) RecordConflict(string) {}
