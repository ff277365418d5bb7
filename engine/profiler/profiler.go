package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/ccaven/lunch/common"
)

// Stats is the set of counters accumulated since the last report.
type Stats struct {
	Frames  int
	Uploads int
	Errors  int
}

// Profiler tracks frame rate, uniform upload rate and memory statistics.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	stats          Stats
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	logger         *slog.Logger
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second; the logger defaults to common.Logger().
//
// Parameters:
//   - options: functional options applied after defaults
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// RecordUpload counts one uniform upload.
func (p *Profiler) RecordUpload() {
	p.stats.Uploads++
}

// RecordError counts one failed uniform dispatch.
func (p *Profiler) RecordError() {
	p.stats.Errors++
}

// Snapshot returns the counters accumulated since the last report.
func (p *Profiler) Snapshot() Stats {
	return p.stats
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed and resets the counters.
// Statistics include: FPS, uploads per second, dispatch errors, heap usage, allocation rate and GC pauses.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.stats.Frames++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1e-9
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	var maxPauseUs uint64
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	common.LoggerOr(p.logger).Info("profiler",
		"fps", float64(p.stats.Frames)/seconds,
		"uploads_per_sec", float64(p.stats.Uploads)/seconds,
		"dispatch_errors", p.stats.Errors,
		"heap_mb", float64(p.memStats.Alloc)/1024/1024,
		"alloc_rate_mb", float64(allocDelta)/1024/1024/seconds,
		"gc", gcCount,
		"gc_max_pause_us", maxPauseUs,
	)

	p.stats = Stats{}
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
