package limiter

import (
	"time"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/jointlimits/hardlimit"
)

// HardJointLimiter is the Capability backed by hardlimit.Limiter:
// hard-bound-only enforcement with none of the soft cushion's spring
// behavior. ApplyLimits ignores whatever soft limits it is given, since
// this capability has no use for them.
type HardJointLimiter struct {
	lim *hardlimit.Limiter
}

// NewHardJointLimiter constructs a HardJointLimiter with no limits applied
// yet.
func NewHardJointLimiter() *HardJointLimiter {
	return &HardJointLimiter{lim: hardlimit.New(jointlimits.JointLimits{})}
}

// ApplyLimits implements Capability.
func (h *HardJointLimiter) ApplyLimits(hard jointlimits.JointLimits, _ jointlimits.SoftJointLimits, _ bool) {
	h.lim.UpdateLimits(hard)
}

// Enforce implements Capability.
func (h *HardJointLimiter) Enforce(actual jointlimits.JointControlSample, desired *jointlimits.JointControlSample, dt time.Duration) bool {
	return h.lim.Enforce(actual, desired, dt)
}

// ResetInternals implements Capability.
func (h *HardJointLimiter) ResetInternals() {
	h.lim.ResetInternals()
}
