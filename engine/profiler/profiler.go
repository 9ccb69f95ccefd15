// Package profiler reports frame rate, frame time, scene population and memory statistics at a fixed
// interval while the engine runs with profiling enabled.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// DefaultInterval is how often a report line is produced.
const DefaultInterval = time.Second

// Counts is the scene population sampled on the frame that produces a report.
type Counts struct {
	// Objects is the number of live game objects.
	Objects int

	// Transforms is the number of transforms checked out of the pool.
	Transforms int
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
	report         common.Reporter
}

// NewProfiler creates a new Profiler. The interval defaults to DefaultInterval and reports go to the
// standard logger.
//
// Parameters:
//   - options: functional options such as WithInterval
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: DefaultInterval,
		now:            time.Now,
		report:         common.LogReporter,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the interval has elapsed it reports FPS, mean frame time,
// the sampled counts, heap usage, allocation rate and GC pauses, and starts a new interval.
//
// Parameters:
//   - counts: returns the scene population; only called on frames that report
//
// Returns:
//   - bool: true if stats were reported this tick, false otherwise
func (p *Profiler) Tick(counts func() Counts) bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	frameMs := float64(elapsed.Milliseconds()) / float64(p.frameCount)

	var c Counts
	if counts != nil {
		c = counts()
	}

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.report.Report("[Profiler] FPS: %.2f | Frame: %.2f ms | Objects: %d | Transforms: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		fps, frameMs, c.Objects, c.Transforms, allocMB, allocRateMB, gcCount, maxPauseUs)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
