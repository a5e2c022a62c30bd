package stats

import "time"

// Reader is the read side of a Collector, used by presenters.
type Reader interface {
	Snapshot() Snapshot
	RollingSpeed(seconds int) float64
	RollingTargetsPerSec(seconds int) float64
	SparklineData(n int) []float64
	ETA() time.Duration
}

// ReadTicker is a Reader whose owner also drives the once-per-second Tick.
type ReadTicker interface {
	Reader
	Tick()
}

var _ ReadTicker = (*Collector)(nil)
