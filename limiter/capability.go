package limiter

import (
	"time"

	jointlimits "go.viam.com/jointlimits"
)

// Capability is the polymorphism seam spec.md §9's redesign note asks for:
// "favor a small capability interface... over a class hierarchy." A
// concrete limiter algorithm (soft, hard, or a future one) implements
// Capability and the Frontend drives it through these three hooks, mirroring
// original_source/joint_limits/include/joint_limits/joint_limiter_interface.hpp's
// on_init/on_configure/on_enforce/reset_internals lifecycle without the
// original's class-template inheritance.
type Capability interface {
	// ApplyLimits installs the limits a joint should be enforced against.
	// The Frontend calls it from its Enforce, on the realtime thread, the
	// first time it sees a newly published snapshot (from Init, Configure,
	// or a parameter change); it must not allocate, log, or block on
	// contested state.
	ApplyLimits(hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits, hasSoft bool)

	// Enforce mutates desired in place to satisfy this capability's
	// envelope given actual and the elapsed time dt, and reports whether
	// anything was changed. Called from the realtime thread; must not
	// allocate, log, or block on contested state.
	Enforce(actual jointlimits.JointControlSample, desired *jointlimits.JointControlSample, dt time.Duration) bool

	// ResetInternals clears any state carried between Enforce calls (for
	// example a previously-commanded sample), so the next call re-seeds
	// it from scratch.
	ResetInternals()
}
