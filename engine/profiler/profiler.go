package profiler

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used when no tracer is supplied.
const TracerName = "github.com/Carmen-Shannon/oxy-ddgi"

// Profiler tracks frame rate, memory statistics and per-pass counts for performance monitoring,
// and opens an OpenTelemetry span around every profiled pass.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	mu sync.Mutex

	tracer trace.Tracer

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	passCounts map[string]int
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second and spans go to the
// global tracer provider.
//
// Parameters:
//   - opts: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(opts ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
		passCounts:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer(TracerName)
	}
	return p
}

// Begin starts a span named pass and counts one run of it. The returned function ends the span,
// recording err on it when non-nil.
//
// Parameters:
//   - ctx: the parent context
//   - pass: the pass name, e.g. "DDGI Ray Trace Pass"
//   - attrs: span attributes
//
// Returns:
//   - context.Context: the context carrying the span
//   - func(error): ends the span
func (p *Profiler) Begin(ctx context.Context, pass string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	p.mu.Lock()
	p.passCounts[pass]++
	p.mu.Unlock()

	ctx, span := p.tracer.Start(ctx, pass, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// PassCount returns how many times pass ran since the last logged interval.
//
// Parameters:
//   - pass: the pass name
//
// Returns:
//   - int: the run count
func (p *Profiler) PassCount(pass string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passCounts[pass]
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory and
// per-pass run counts.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.frameCount++
	currentTime := time.Now()
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
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	args := []any{
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	}
	for _, pass := range slices.Sorted(maps.Keys(p.passCounts)) {
		args = append(args, pass, p.passCounts[pass])
	}
	logger.For("profiler").Info("frame stats", args...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	clear(p.passCounts)
	return true
}
