package limiter

import (
	"sync/atomic"

	jointlimits "go.viam.com/jointlimits"
)

// limitsSnapshot is one immutable view of a joint's limits, published by the
// non-realtime parameter-update path and consumed by the realtime enforce
// path. It is grounded on original_source's
// realtime_tools::RealtimeBuffer<JointLimits>: a value the writer thread
// constructs whole and publishes atomically, rather than a structure the
// reader thread would need to lock to see consistently.
type limitsSnapshot struct {
	hard    jointlimits.JointLimits
	soft    jointlimits.SoftJointLimits
	hasSoft bool
}

// limitsBuffer is a wait-free single-writer/single-reader-per-joint cell:
// Store publishes a brand new snapshot, Load retrieves whichever snapshot
// is currently published. Neither call blocks or allocates on the read
// side, satisfying spec.md §4.2's "no allocation, no logging, no I/O
// inside enforce" for the path that picks up parameter changes.
type limitsBuffer struct {
	ptr atomic.Pointer[limitsSnapshot]
}

// store publishes snap as the current snapshot.
func (b *limitsBuffer) store(snap *limitsSnapshot) {
	b.ptr.Store(snap)
}

// load returns the currently published snapshot, or nil if store was never
// called.
func (b *limitsBuffer) load() *limitsSnapshot {
	return b.ptr.Load()
}
