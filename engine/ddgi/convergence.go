package ddgi

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-ddgi/common"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/logger"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer"
	"github.com/Carmen-Shannon/oxy-ddgi/engine/renderer/resource"
	"golang.org/x/sync/semaphore"
)

// ErrReadbackEmpty is logged when a variability readback completes without data.
var ErrReadbackEmpty = errors.New("variability readback returned no data")

type pendingReadback struct {
	seq uint64
	ch  <-chan renderer.ReadbackResult
}

// ConvergenceEstimator decides when the probe volume has converged from asynchronous readbacks
// of the reduced variability. At most one readback is in flight; frames that find one pending
// simply skip issuing another.
type ConvergenceEstimator struct {
	mu  sync.Mutex
	sem *semaphore.Weighted

	threshold float32

	seq      uint64
	minValid uint64
	pending  *pendingReadback

	clearVariability bool
	sampleCount      int
	converged        bool
}

// NewConvergenceEstimator returns an estimator in the not-converged state.
//
// Parameters:
//   - threshold: the mean variability below which the volume may count as converged
//
// Returns:
//   - *ConvergenceEstimator: the estimator
func NewConvergenceEstimator(threshold float32) *ConvergenceEstimator {
	return &ConvergenceEstimator{
		sem:              semaphore.NewWeighted(1),
		threshold:        threshold,
		clearVariability: true,
	}
}

// SetThreshold updates the convergence threshold used by later readbacks.
func (c *ConvergenceEstimator) SetThreshold(threshold float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.threshold = threshold
}

// Request issues a readback of the first texel of src unless one is already in flight. It must
// be called inside a compute frame.
//
// Parameters:
//   - r: the renderer recording the current compute frame
//   - src: the reduced variability texture
//   - staging: the map-readable staging buffer
//
// Returns:
//   - bool: true when a readback was issued
func (c *ConvergenceEstimator) Request(r renderer.Renderer, src resource.Texture, staging resource.Buffer) bool {
	if !c.sem.TryAcquire(1) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.pending = &pendingReadback{seq: c.seq, ch: r.Readback(src, staging)}
	return true
}

// InFlight reports whether a readback has been issued and not yet drained.
func (c *ConvergenceEstimator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Poll drains a completed readback without blocking. Results issued before the latest Reset
// or Disable are discarded.
//
// Returns:
//   - bool: true when a result was applied
func (c *ConvergenceEstimator) Poll() bool {
	c.mu.Lock()
	p := c.pending
	c.mu.Unlock()
	if p == nil {
		return false
	}

	var res renderer.ReadbackResult
	select {
	case res = <-p.ch:
	default:
		return false
	}

	c.mu.Lock()
	c.pending = nil
	stale := p.seq < c.minValid || p.seq != c.seq
	c.mu.Unlock()
	c.sem.Release(1)

	if stale {
		logger.For("ddgi").Debug("discarded stale variability readback", "seq", p.seq)
		return false
	}
	return c.Apply(res)
}

// Apply folds one readback into the estimate. Errors and empty payloads are logged and leave
// the state unchanged.
//
// Parameters:
//   - res: the readback result
//
// Returns:
//   - bool: true when the result was usable
func (c *ConvergenceEstimator) Apply(res renderer.ReadbackResult) bool {
	if res.Err != nil {
		logger.For("ddgi").Error("variability readback failed", "err", res.Err)
		return false
	}
	if len(res.Data) < 4 {
		logger.For("ddgi").Error("variability readback failed", "err", ErrReadbackEmpty)
		return false
	}
	value := common.Float32At(res.Data, 0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clearVariability {
		c.sampleCount = 0
		c.clearVariability = false
	}
	c.sampleCount++
	wasConverged := c.converged
	c.converged = c.sampleCount > ConvergenceMinSamples && value < c.threshold
	if c.converged != wasConverged {
		logger.For("ddgi").Debug("convergence changed", "converged", c.converged, "variability", value, "samples", c.sampleCount)
	}
	return true
}

// MarkLightingChanged drops out of convergence immediately and restarts the sample count at the
// next readback.
func (c *ConvergenceEstimator) MarkLightingChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converged = false
	c.clearVariability = true
}

// Disable drops out of convergence while variability tracking is off.
func (c *ConvergenceEstimator) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converged = false
	c.clearVariability = true
	c.sampleCount = 0
	c.minValid = c.seq + 1
}

// Reset returns to the initial state and invalidates any readback in flight.
func (c *ConvergenceEstimator) Reset() {
	c.Disable()
}

// Converged reports whether tracing may be skipped.
func (c *ConvergenceEstimator) Converged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.converged
}

// SampleCount returns the number of readbacks applied since the last clear.
func (c *ConvergenceEstimator) SampleCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleCount
}

// ClearPending reports whether the next readback restarts the sample count.
func (c *ConvergenceEstimator) ClearPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearVariability
}
