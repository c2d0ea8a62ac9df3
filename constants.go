package jointlimits

import "math"

const (
	// PositionBoundsTolerance is the slack, in the same units as
	// JointLimits.MinPosition/MaxPosition, tolerated when deciding whether a
	// measured position has left the hard envelope. It absorbs
	// state-feedback jitter around the boundary rather than freezing the
	// soft-velocity envelope on every noisy sample.
	PositionBoundsTolerance = 1e-3

	// SoftLimitRecoveryRate is the gentle speed used to pull a joint back
	// inside its soft envelope once it has drifted outside it but is still
	// inside the hard envelope: one degree per second.
	SoftLimitRecoveryRate = math.Pi / 180.0
)
