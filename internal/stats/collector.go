// Package stats aggregates replication counters with lock-free atomics so
// the walker, pre-scan, and progress presenter can share them safely.
package stats

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const ringSize = 60

// Collector tracks replication outcome counters.
type Collector struct {
	dirsCreated  atomic.Int64
	filesCopied  atomic.Int64
	hardlinks    atomic.Int64
	links        atomic.Int64 // symlinks + junctions
	skipped      atomic.Int64
	failed       atomic.Int64
	partial      atomic.Int64
	bytesCopied  atomic.Int64
	dirsTotal    atomic.Int64
	filesTotal   atomic.Int64
	linksTotal   atomic.Int64
	bytesTotal   atomic.Int64
	verified     atomic.Int64
	verifyFailed atomic.Int64
	startTime    time.Time

	// Ring buffer — written only by the presenter's Tick(), not the walker.
	mu         sync.Mutex
	throughput [ringSize]int64 // bytes delta per second
	ringIdx    int
	ringCount  int
	lastBytes  int64
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records the pre-scan totals feeding progress percentages.
func (c *Collector) SetTotals(dirs, files, links, bytes int64) {
	c.dirsTotal.Store(dirs)
	c.filesTotal.Store(files)
	c.linksTotal.Store(links)
	c.bytesTotal.Store(bytes)
}

func (c *Collector) AddDirsCreated(n int64)  { c.dirsCreated.Add(n) }
func (c *Collector) AddFilesCopied(n int64)  { c.filesCopied.Add(n) }
func (c *Collector) AddHardlinks(n int64)    { c.hardlinks.Add(n) }
func (c *Collector) AddLinks(n int64)        { c.links.Add(n) }
func (c *Collector) AddSkipped(n int64)      { c.skipped.Add(n) }
func (c *Collector) AddFailed(n int64)       { c.failed.Add(n) }
func (c *Collector) AddPartial(n int64)      { c.partial.Add(n) }
func (c *Collector) AddBytesCopied(n int64)  { c.bytesCopied.Add(n) }
func (c *Collector) AddVerified(n int64)     { c.verified.Add(n) }
func (c *Collector) AddVerifyFailed(n int64) { c.verifyFailed.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	DirsCreated  int64
	FilesCopied  int64
	Hardlinks    int64
	Links        int64
	Skipped      int64
	Failed       int64
	Partial      int64
	BytesCopied  int64
	DirsTotal    int64
	FilesTotal   int64
	LinksTotal   int64
	BytesTotal   int64
	Verified     int64
	VerifyFailed int64
	Elapsed      time.Duration
}

// Snapshot returns a consistent point-in-time read of all counters.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		DirsCreated:  c.dirsCreated.Load(),
		FilesCopied:  c.filesCopied.Load(),
		Hardlinks:    c.hardlinks.Load(),
		Links:        c.links.Load(),
		Skipped:      c.skipped.Load(),
		Failed:       c.failed.Load(),
		Partial:      c.partial.Load(),
		BytesCopied:  c.bytesCopied.Load(),
		DirsTotal:    c.dirsTotal.Load(),
		FilesTotal:   c.filesTotal.Load(),
		LinksTotal:   c.linksTotal.Load(),
		BytesTotal:   c.bytesTotal.Load(),
		Verified:     c.verified.Load(),
		VerifyFailed: c.verifyFailed.Load(),
		Elapsed:      c.Elapsed(),
	}
}

// Tick snapshots the bytes delta into the ring buffer. Called 1/sec by the
// presenter.
func (c *Collector) Tick() {
	currentBytes := c.bytesCopied.Load()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.throughput[c.ringIdx] = currentBytes - c.lastBytes
	c.lastBytes = currentBytes
	c.ringIdx = (c.ringIdx + 1) % ringSize
	if c.ringCount < ringSize {
		c.ringCount++
	}
}

// RollingSpeed returns average bytes/sec over the last n seconds of samples.
func (c *Collector) RollingSpeed(seconds int) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := seconds
	if count > c.ringCount {
		count = c.ringCount
	}
	if count == 0 {
		return 0
	}
	var sum int64
	for i := range count {
		idx := (c.ringIdx - 1 - i + ringSize) % ringSize
		sum += c.throughput[idx]
	}
	return float64(sum) / float64(count)
}

// ETA estimates remaining time from rolling speed and remaining bytes.
func (c *Collector) ETA() time.Duration {
	speed := c.RollingSpeed(10)
	if speed <= 0 {
		return 0
	}
	remaining := c.bytesTotal.Load() - c.bytesCopied.Load()
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
		"dirs=%d copied=%d hardlinks=%d links=%d skipped=%d failed=%d partial=%d bytes=%d",
		s.DirsCreated, s.FilesCopied, s.Hardlinks, s.Links,
		s.Skipped, s.Failed, s.Partial, s.BytesCopied,
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
