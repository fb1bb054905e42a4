package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Sample accumulates the timings of one named region between two Tick reports.
type Sample struct {
	Count int
	Total time.Duration
	Max   time.Duration
}

// Average returns the mean duration of the region, or zero if it never ran.
func (s Sample) Average() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Profiler tracks frame rate, memory statistics and named sample regions.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	logger  *zap.Logger
	now     func() time.Time
	open    map[string]time.Time
	samples map[string]Sample
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		logger:         zap.NewNop(),
		now:            time.Now,
		open:           make(map[string]time.Time),
		samples:        make(map[string]Sample),
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// BeginSample opens the region name. Opening an already open region restarts it.
//
// Parameters:
//   - name: the region name
func (p *Profiler) BeginSample(name string) {
	p.open[name] = p.now()
}

// EndSample closes the region name and records its duration.
//
// Parameters:
//   - name: the region name
//
// Returns:
//   - time.Duration: the measured duration
//   - bool: false if the region was not open
func (p *Profiler) EndSample(name string) (time.Duration, bool) {
	start, ok := p.open[name]
	if !ok {
		return 0, false
	}
	delete(p.open, name)

	d := p.now().Sub(start)
	s := p.samples[name]
	s.Count++
	s.Total += d
	s.Max = max(s.Max, d)
	p.samples[name] = s
	return d, true
}

// Sample returns the timings recorded for name since the last report.
//
// Parameters:
//   - name: the region name
//
// Returns:
//   - Sample: the accumulated timings
//   - bool: false if the region has not completed since the last report
func (p *Profiler) Sample(name string) (Sample, bool) {
	s, ok := p.samples[name]
	return s, ok
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics and sample region averages when the update interval has elapsed,
// then starts a new reporting window.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	fields := []zap.Field{
		zap.Float64("fps", fps),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Duration("gc_last_pause", lastPause),
		zap.Duration("gc_max_pause", maxPause),
		zap.Float64("sys_mb", sysMB),
	}
	for name, s := range p.samples {
		fields = append(fields, zap.Duration(name+"_avg", s.Average()), zap.Duration(name+"_max", s.Max))
	}
	p.logger.Info("frame stats", fields...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.samples)
	return true
}
