// Package solver implements the pure, per-quantity limit computations that
// the soft and hard limiters clamp desired joint commands against. Every
// function here is allocation-free and side-effect-free so it is safe to
// call from a realtime control cycle.
package solver

import (
	"math"

	jointlimits "go.viam.com/jointlimits"
)

// Limits is a closed interval [Lower, Upper] with Lower <= Upper always
// holding, even in the degenerate (empty-intersection) case: the interval
// then collapses to a single point and callers can detect saturation by
// checking Lower == Upper.
type Limits struct {
	Lower float64
	Upper float64
}

func unconstrained() Limits {
	return Limits{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

// intersect narrows l to [lower, upper], leaving l untouched on either side
// where the new bound is looser.
func (l Limits) intersect(lower, upper float64) Limits {
	if lower > l.Lower {
		l.Lower = lower
	}
	if upper < l.Upper {
		l.Upper = upper
	}
	return l
}

// collapse enforces Lower <= Upper, collapsing an empty intersection to its
// midpoint so callers always see a well-formed, if degenerate, interval.
func (l Limits) collapse() Limits {
	if l.Lower > l.Upper {
		mid := (l.Lower + l.Upper) / 2
		return Limits{Lower: mid, Upper: mid}
	}
	return l
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func optFinite(o jointlimits.Optional[float64]) (float64, bool) {
	v, ok := o.Get()
	if !ok || !finite(v) {
		return 0, false
	}
	return v, true
}

// PositionLimits returns the allowable position interval for the next
// command, given the joint's hard limits, its actual velocity (currently
// unused — kept for signature parity with the position-limit call site,
// which always passes it), its actual position, its previously commanded
// position, and the elapsed time dt (seconds, > 0).
//
// The base interval is the hard position envelope, if any. When a hard
// velocity limit is present it is further tightened to a single dt-step
// reachability window around the previous commanded position (falling back
// to the actual position when no finite previous command exists) — using
// the commanded rather than measured position avoids compounding
// state-feedback lag into an artificially tight envelope.
func PositionLimits(
	hard jointlimits.JointLimits,
	actualVelocity, actualPosition, prevCommandPosition jointlimits.Optional[float64],
	dt float64,
) Limits {
	_ = actualVelocity // unused; see doc comment

	out := unconstrained()
	if hard.HasPositionLimits {
		out = out.intersect(hard.MinPosition, hard.MaxPosition)
	}

	if hard.HasVelocityLimits {
		pRef, ok := optFinite(prevCommandPosition)
		if !ok {
			pRef, ok = optFinite(actualPosition)
		}
		if ok {
			span := hard.MaxVelocity * dt
			out = out.intersect(pRef-span, pRef+span)
		}
	}

	return out.collapse()
}

// VelocityLimits returns the allowable velocity interval for the next
// command. desiredVelocity is accepted for call-site symmetry but, per
// spec, does not itself participate in the bound computation.
func VelocityLimits(
	hard jointlimits.JointLimits,
	desiredVelocity, actualPosition, prevCommandVelocity jointlimits.Optional[float64],
	dt float64,
) Limits {
	_ = desiredVelocity

	out := unconstrained()
	if hard.HasVelocityLimits {
		out = out.intersect(-hard.MaxVelocity, hard.MaxVelocity)
	}

	if hard.HasAccelerationLimits {
		if vPrev, ok := optFinite(prevCommandVelocity); ok {
			aAcc := hard.MaxAcceleration
			aDec := hard.DecelerationLimit()
			var lower, upper float64
			switch {
			case vPrev > 0:
				lower, upper = vPrev-aDec*dt, vPrev+aAcc*dt
			case vPrev < 0:
				lower, upper = vPrev-aAcc*dt, vPrev+aDec*dt
			default:
				lower, upper = -aAcc*dt, aAcc*dt
			}
			out = out.intersect(lower, upper)
		}
	}

	if hard.HasPositionLimits && (hard.HasAccelerationLimits || hard.HasDecelerationLimits) {
		if pAct, ok := optFinite(actualPosition); ok {
			aStop := hard.DecelerationLimit()
			distUpper := hard.MaxPosition - pAct
			if distUpper < 0 {
				distUpper = 0
			}
			distLower := pAct - hard.MinPosition
			if distLower < 0 {
				distLower = 0
			}
			upperCap := math.Sqrt(2 * aStop * distUpper)
			lowerCap := -math.Sqrt(2 * aStop * distLower)
			out = out.intersect(lowerCap, upperCap)
		}
	}

	return out.collapse()
}

// AccelerationLimits returns the allowable acceleration interval. The
// decelerating direction — whichever sign of acceleration would reduce
// |v_act| — uses max_deceleration when HasDecelerationLimits is set;
// otherwise both directions use the symmetric max_acceleration. Because the
// decelerating side is a property of the *proposed* acceleration together
// with the current velocity (not fixed ahead of time), the result is the
// symmetric interval scaled by whichever magnitude currently applies to
// aDesired, rather than a fixed asymmetric per-side interval.
func AccelerationLimits(hard jointlimits.JointLimits, aDesired, vAct jointlimits.Optional[float64]) Limits {
	if !hard.HasAccelerationLimits {
		return unconstrained()
	}

	limit := hard.MaxAcceleration
	a, aOK := optFinite(aDesired)
	v, vOK := optFinite(vAct)
	if aOK && vOK && v != 0 && sign(a) != sign(v) {
		limit = hard.DecelerationLimit()
	}
	return Limits{Lower: -limit, Upper: limit}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// EffortLimits returns the allowable effort interval. dt is accepted for
// call-site symmetry with the other solver functions; effort limits have no
// time-integration term.
func EffortLimits(hard jointlimits.JointLimits, actualPosition, actualVelocity jointlimits.Optional[float64], dt float64) Limits {
	_ = dt

	out := unconstrained()
	if hard.HasEffortLimits {
		out = out.intersect(-hard.MaxEffort, hard.MaxEffort)
	}

	const tol = jointlimits.PositionBoundsTolerance

	if hard.HasPositionLimits {
		if pAct, ok := optFinite(actualPosition); ok {
			vAct, vOK := optFinite(actualVelocity)
			movingUp := vOK && vAct >= 0
			movingDown := vOK && vAct <= 0
			if pAct >= hard.MaxPosition-tol && movingUp {
				out.Upper = math.Min(out.Upper, 0)
			}
			if pAct <= hard.MinPosition+tol && movingDown {
				out.Lower = math.Max(out.Lower, 0)
			}
		}
	}

	if hard.HasVelocityLimits {
		if vAct, ok := optFinite(actualVelocity); ok {
			if vAct >= hard.MaxVelocity-tol {
				out.Upper = math.Min(out.Upper, 0)
			}
			if vAct <= -hard.MaxVelocity+tol {
				out.Lower = math.Max(out.Lower, 0)
			}
		}
	}

	return out.collapse()
}
