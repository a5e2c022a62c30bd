package freespace

import "golang.org/x/time/rate"

// NewBWLimiter caps aggregate write throughput to bytesPerSec. The burst
// allows 1 MiB through at once but never less than one write block, so
// WaitN can always be satisfied.
func NewBWLimiter(bytesPerSec int64, blockSize int) *rate.Limiter {
	burst := 1 << 20
	if bytesPerSec < int64(burst) {
		burst = int(bytesPerSec)
	}
	burst = max(burst, blockSize)
	return rate.NewLimiter(rate.Limit(bytesPerSec), burst)
}
