package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks destruction statistics using lock-free atomic counters.
type Collector struct {
	targetsScanned   atomic.Int64
	targetsDestroyed atomic.Int64
	targetsFailed    atomic.Int64
	targetsSkipped   atomic.Int64
	dirsKept         atomic.Int64
	bytesDestroyed   atomic.Int64
	bytesWritten     atomic.Int64
	targetsTotal     atomic.Int64
	bytesTotal       atomic.Int64
	startTime        time.Time

	// Ring buffer, written only by the presenter's Tick.
	mu            sync.Mutex
	throughput    [ringSize]int64 // bytes delta per second
	targetsPerSec [ringSize]int64
	ringIdx       int
	ringCount     int // samples written, capped at ringSize
	lastBytes     int64
	lastTargets   int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records scan totals (called once when the scan completes).
func (c *Collector) SetTotals(targets, bytes int64) {
	c.targetsTotal.Store(targets)
	c.bytesTotal.Store(bytes)
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	TargetsScanned   int64
	TargetsDestroyed int64
	TargetsFailed    int64
	TargetsSkipped   int64
	DirsKept         int64
	BytesDestroyed   int64
	BytesWritten     int64
	TargetsTotal     int64
	BytesTotal       int64
	Elapsed          time.Duration
}

func (c *Collector) AddTargetsScanned(n int64)   { c.targetsScanned.Add(n) }
func (c *Collector) AddTargetsDestroyed(n int64) { c.targetsDestroyed.Add(n) }
func (c *Collector) AddTargetsFailed(n int64)    { c.targetsFailed.Add(n) }
func (c *Collector) AddTargetsSkipped(n int64)   { c.targetsSkipped.Add(n) }
func (c *Collector) AddDirsKept(n int64)         { c.dirsKept.Add(n) }
func (c *Collector) AddBytesDestroyed(n int64)   { c.bytesDestroyed.Add(n) }

// SetBytesWritten records the running total of a free-space wipe.
func (c *Collector) SetBytesWritten(n int64) { c.bytesWritten.Store(n) }

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		TargetsScanned:   c.targetsScanned.Load(),
		TargetsDestroyed: c.targetsDestroyed.Load(),
		TargetsFailed:    c.targetsFailed.Load(),
		TargetsSkipped:   c.targetsSkipped.Load(),
		DirsKept:         c.dirsKept.Load(),
		BytesDestroyed:   c.bytesDestroyed.Load(),
		BytesWritten:     c.bytesWritten.Load(),
		TargetsTotal:     c.targetsTotal.Load(),
		BytesTotal:       c.bytesTotal.Load(),
		Elapsed:          c.Elapsed(),
	}
}

// Tick snapshots byte and target deltas into the ring buffer. Called once
// per second by the presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesDestroyed.Load() + c.bytesWritten.Load()
	currentTargets := c.targetsDestroyed.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.targetsPerSec[c.ringIdx] = currentTargets - c.lastTargets
	c.lastBytes = currentBytes
	c.lastTargets = currentTargets

	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.throughput[:], seconds)
}

// RollingTargetsPerSec returns average targets/sec over the last n seconds.
func (c *Collector) RollingTargetsPerSec(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rollingAvg(c.targetsPerSec[:], seconds)
}

func (c *Collector) rollingAvg(buf []int64, n int) float64 {
	count := min(n, c.ringCount)
	if count == 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += buf[idx]
	}
	return float64(sum) / float64(count)
}

// SparklineData returns the last n bytes/sec samples, oldest first.
func (c *Collector) SparklineData(n int) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := min(n, c.ringCount)
	if count == 0 {
		return nil
	}
	data := make([]float64, count)
	for i := range count {
		idx := (c.ringIdx - count + i + ringSize) % ringSize
		data[i] = float64(c.throughput[idx])
	}
	return data
}

// ETA estimates the time left to destroy the remaining scanned bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesDestroyed.Load()
	if remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/speed) * time.Second
}

// Elapsed returns time since collector creation.
func (c *Collector) Elapsed() time.Duration {
	return time.Since(c.startTime)
}

func (s Snapshot) String() string {
	return fmt.Sprintf(
		"scanned=%d destroyed=%d failed=%d skipped=%d kept_dirs=%d bytes=%d written=%d",
		s.TargetsScanned, s.TargetsDestroyed, s.TargetsFailed, s.TargetsSkipped,
		s.DirsKept, s.BytesDestroyed, s.BytesWritten,
	)
}

// FormatBytes returns a human-readable byte count.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}
