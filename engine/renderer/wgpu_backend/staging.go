package wgpu_backend

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrStagingBusy is returned for a readback whose staging buffer still has a map outstanding.
var ErrStagingBusy = errors.New("staging buffer is still mapped or mapping")

// mapState tracks one copy-then-map cycle of a staging buffer.
type mapState struct {
	status chan wgpu.BufferMapAsyncStatus
	// abandoned is set when the worker gave up polling before the map callback fired.
	abandoned bool
}

// stagingTracker keeps a staging buffer out of use from the copy that fills it until it is unmapped.
// Callers hold the backend mutex.
type stagingTracker[K comparable] struct {
	states map[K]*mapState
}

func newStagingTracker[K comparable]() *stagingTracker[K] {
	return &stagingTracker[K]{states: make(map[K]*mapState)}
}

// acquire starts a new cycle for buf. An abandoned cycle whose callback has since fired is reclaimed
// first, calling unmap when the late map succeeded. It returns false while buf is still busy.
func (t *stagingTracker[K]) acquire(buf K, unmap func()) (*mapState, bool) {
	if st, ok := t.states[buf]; ok {
		if !st.abandoned {
			return nil, false
		}
		select {
		case s := <-st.status:
			if s == wgpu.BufferMapAsyncStatusSuccess {
				unmap()
			}
		default:
			return nil, false
		}
	}
	st := &mapState{status: make(chan wgpu.BufferMapAsyncStatus, 1)}
	t.states[buf] = st
	return st, true
}

// release ends the cycle st of buf once the buffer is unmapped or the map failed.
func (t *stagingTracker[K]) release(buf K, st *mapState) {
	if t.states[buf] == st {
		delete(t.states, buf)
	}
}

// abandon leaves buf busy until a later acquire observes the callback.
func (t *stagingTracker[K]) abandon(buf K, st *mapState) {
	if t.states[buf] == st {
		st.abandoned = true
	}
}
