package limiter

import (
	"time"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/jointlimits/softlimit"
)

// SoftJointLimiter is the Capability backed by softlimit.Limiter: full
// position/velocity/acceleration/jerk/effort enforcement with the soft
// cushion applied whenever soft limits are present.
type SoftJointLimiter struct {
	lim *softlimit.Limiter
}

// NewSoftJointLimiter constructs a SoftJointLimiter with no limits applied
// yet; call ApplyLimits (directly, or through a Frontend initialized with
// InitFromSource or InitWithLimits) before Enforce.
func NewSoftJointLimiter() *SoftJointLimiter {
	return &SoftJointLimiter{lim: softlimit.New(jointlimits.JointLimits{}, jointlimits.SoftJointLimits{})}
}

// ApplyLimits implements Capability.
func (s *SoftJointLimiter) ApplyLimits(hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits, hasSoft bool) {
	if !hasSoft {
		soft = jointlimits.SoftJointLimits{}
	}
	s.lim.UpdateLimits(hard, soft)
}

// Enforce implements Capability.
func (s *SoftJointLimiter) Enforce(actual jointlimits.JointControlSample, desired *jointlimits.JointControlSample, dt time.Duration) bool {
	return s.lim.Enforce(actual, desired, dt)
}

// ResetInternals implements Capability.
func (s *SoftJointLimiter) ResetInternals() {
	s.lim.ResetInternals()
}
