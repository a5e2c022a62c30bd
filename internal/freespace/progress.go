package freespace

import "time"

// estimator turns free-space samples into a monotonic completion fraction
// and a linear ETA.
type estimator struct {
	startFree uint64
	start     time.Time
	fraction  float64
}

func newEstimator(startFree uint64, start time.Time) *estimator {
	return &estimator{startFree: startFree, start: start}
}

func (e *estimator) update(free uint64, now time.Time) (float64, time.Duration) {
	f := 1.0
	if e.startFree > 0 {
		f = (float64(e.startFree) - float64(free)) / float64(e.startFree)
	}
	e.fraction = max(e.fraction, min(max(f, 0), 1))
	return e.fraction, e.eta(now)
}

func (e *estimator) finish() (float64, time.Duration) {
	e.fraction = 1
	return 1, 0
}

func (e *estimator) eta(now time.Time) time.Duration {
	if e.fraction <= 0 || e.fraction >= 1 {
		return 0
	}
	elapsed := now.Sub(e.start)
	return time.Duration(float64(elapsed) * (1 - e.fraction) / e.fraction)
}
