// Package softlimit implements the per-joint soft-limit enforcement filter:
// spec.md §4.2's coupling of position, velocity, acceleration, jerk, and
// effort through the current measured state, the previously commanded
// state, and the elapsed time.
package softlimit

import (
	"math"
	"sync"
	"time"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/jointlimits/solver"
)

// epsilon is the floating-point slack used when deciding whether a desired
// value was actually moved by clamping.
const epsilon = 1e-9

// Limiter is the stateful per-joint soft-limit filter. The zero value is not
// usable; construct with New. A Limiter is safe for concurrent use: Enforce
// and UpdateLimits both take the same mutex.
type Limiter struct {
	mu sync.Mutex

	hard    jointlimits.JointLimits
	soft    jointlimits.SoftJointLimits
	hasSoft bool

	prevCommand jointlimits.JointControlSample
}

// New constructs a Limiter for one joint's hard limits and, optionally, its
// soft cushion. Pass a zero jointlimits.SoftJointLimits{} when the joint has
// no soft limits; the filter then degrades to hard-limit-only behavior for
// every term that depended on the cushion.
func New(hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits) *Limiter {
	l := &Limiter{hard: hard, soft: soft, hasSoft: soft.IsPresent()}
	return l
}

// UpdateLimits atomically replaces the limits this Limiter enforces against,
// without touching prev_command. Safe to call concurrently with Enforce from
// a non-realtime thread.
func (l *Limiter) UpdateLimits(hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hard = hard
	l.soft = soft
	l.hasSoft = soft.IsPresent()
}

// ResetInternals clears the previously-commanded state, so the next Enforce
// call re-seeds it lazily from whichever of actual/desired is available.
func (l *Limiter) ResetInternals() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prevCommand = jointlimits.JointControlSample{}
}

// Enforce mutates desired in place so that it respects this joint's hard and
// soft envelopes given the current measured state actual and the elapsed
// time dt, and reports whether any component of desired was altered. It
// allocates nothing, logs nothing, and performs no I/O.
func (l *Limiter) Enforce(actual jointlimits.JointControlSample, desired *jointlimits.JointControlSample, dt time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	dtSeconds := dt.Seconds()
	if dtSeconds <= 0 {
		return false
	}

	hard := l.hard
	soft := l.soft

	limitsEnforced := false

	l.seedPrevCommand(actual, *desired)

	actPosition := fallbackPosition(actual.Position, l.prevCommand.Position)
	prevCmdPosition := fallbackPosition(l.prevCommand.Position, actual.Position)

	softMinVel, softMaxVel := math.Inf(-1), math.Inf(1)
	if hard.HasVelocityLimits {
		softMinVel, softMaxVel = -hard.MaxVelocity, hard.MaxVelocity

		if hard.HasPositionLimits && soft.IsPresent() && finite(prevCmdPosition) {
			softMinVel = clamp(-soft.KPosition*(prevCmdPosition-soft.MinPosition), -hard.MaxVelocity, hard.MaxVelocity)
			softMaxVel = clamp(-soft.KPosition*(prevCmdPosition-soft.MaxPosition), -hard.MaxVelocity, hard.MaxVelocity)

			switch {
			case finite(actPosition) &&
				(actPosition < hard.MinPosition-jointlimits.PositionBoundsTolerance ||
					actPosition > hard.MaxPosition+jointlimits.PositionBoundsTolerance):
				softMinVel, softMaxVel = 0, 0
			case actPosition < soft.MinPosition || actPosition > soft.MaxPosition:
				softMinVel = math.Copysign(jointlimits.SoftLimitRecoveryRate, softMinVel)
				softMaxVel = math.Copysign(jointlimits.SoftLimitRecoveryRate, softMaxVel)
			}
		}
	}

	if desired.HasPosition() {
		posLimits := solver.PositionLimits(hard, actual.Velocity, actual.Position, l.prevCommand.Position, dtSeconds)

		posLow, posHigh := math.Inf(-1), math.Inf(1)
		if soft.IsPresent() {
			posLow, posHigh = soft.MinPosition, soft.MaxPosition
		}

		if hard.HasVelocityLimits {
			posLow = clamp(prevCmdPosition+softMinVel*dtSeconds, posLow, posHigh)
			posHigh = clamp(prevCmdPosition+softMaxVel*dtSeconds, posLow, posHigh)
		}

		posLow = math.Max(posLow, posLimits.Lower)
		posHigh = math.Min(posHigh, posLimits.Upper)
		posLow, posHigh = collapse(posLow, posHigh)

		v := desired.Position.Value()
		if isLimited(v, posLow, posHigh) {
			limitsEnforced = true
		}
		desired.Position = jointlimits.Some(clamp(v, posLow, posHigh))
	}

	if desired.HasVelocity() {
		velLimits := solver.VelocityLimits(hard, desired.Velocity, actual.Position, l.prevCommand.Velocity, dtSeconds)

		if hard.HasAccelerationLimits {
			if av, ok := actual.Velocity.Get(); ok {
				softMinVel = math.Max(softMinVel, av-hard.MaxAcceleration*dtSeconds)
				softMaxVel = math.Min(softMaxVel, av+hard.MaxAcceleration*dtSeconds)
			}
		}

		lower := math.Max(softMinVel, velLimits.Lower)
		upper := math.Min(softMaxVel, velLimits.Upper)
		lower, upper = collapse(lower, upper)

		v := desired.Velocity.Value()
		if isLimited(v, lower, upper) {
			limitsEnforced = true
		}
		desired.Velocity = jointlimits.Some(clamp(v, lower, upper))
	}

	if desired.HasEffort() {
		effLimits := solver.EffortLimits(hard, actual.Position, actual.Velocity, dtSeconds)
		softMinEff, softMaxEff := effLimits.Lower, effLimits.Upper

		if hard.HasEffortLimits && soft.KVelocityPresent() {
			if av, ok := actual.Velocity.Get(); ok {
				softMinEff = clamp(-soft.KVelocity*(av-softMinVel), -hard.MaxEffort, hard.MaxEffort)
				softMaxEff = clamp(-soft.KVelocity*(av-softMaxVel), -hard.MaxEffort, hard.MaxEffort)
				softMinEff = math.Max(softMinEff, effLimits.Lower)
				softMaxEff = math.Min(softMaxEff, effLimits.Upper)
			}
		}
		softMinEff, softMaxEff = collapse(softMinEff, softMaxEff)

		v := desired.Effort.Value()
		if isLimited(v, softMinEff, softMaxEff) {
			limitsEnforced = true
		}
		desired.Effort = jointlimits.Some(clamp(v, softMinEff, softMaxEff))
	}

	if desired.HasAcceleration() {
		accLimits := solver.AccelerationLimits(hard, desired.Acceleration, actual.Velocity)
		v := desired.Acceleration.Value()
		if isLimited(v, accLimits.Lower, accLimits.Upper) {
			limitsEnforced = true
		}
		desired.Acceleration = jointlimits.Some(clamp(v, accLimits.Lower, accLimits.Upper))
	}

	if desired.HasJerk() {
		lower, upper := math.Inf(-1), math.Inf(1)
		if hard.HasJerkLimits {
			lower, upper = -hard.MaxJerk, hard.MaxJerk
		}
		v := desired.Jerk.Value()
		if isLimited(v, lower, upper) {
			limitsEnforced = true
		}
		desired.Jerk = jointlimits.Some(clamp(v, lower, upper))
	}

	if sanitize(desired, actual) {
		limitsEnforced = true
	}

	l.updatePrevCommand(*desired)

	return limitsEnforced
}

// seedPrevCommand lazily initializes any prev_command quantity that desired
// carries but prev_command does not yet, per spec.md §4.2 step 2.
func (l *Limiter) seedPrevCommand(actual, desired jointlimits.JointControlSample) {
	seed := func(prev *jointlimits.Optional[float64], a, d jointlimits.Optional[float64]) {
		if !d.IsPresent() || prev.IsPresent() {
			return
		}
		if v, ok := a.Get(); ok {
			prev.Set(v)
		} else {
			prev.Set(d.Value())
		}
	}
	seed(&l.prevCommand.Position, actual.Position, desired.Position)
	seed(&l.prevCommand.Velocity, actual.Velocity, desired.Velocity)
	seed(&l.prevCommand.Effort, actual.Effort, desired.Effort)
	seed(&l.prevCommand.Acceleration, actual.Acceleration, desired.Acceleration)
	seed(&l.prevCommand.Jerk, actual.Jerk, desired.Jerk)

	if actual.HasData() {
		l.prevCommand.JointName = actual.JointName
	} else if desired.HasData() {
		l.prevCommand.JointName = desired.JointName
	}
}

// updatePrevCommand copies every quantity desired carries into prev_command,
// per spec.md §4.2 step 10.
func (l *Limiter) updatePrevCommand(desired jointlimits.JointControlSample) {
	if v, ok := desired.Position.Get(); ok {
		l.prevCommand.Position = jointlimits.Some(v)
	}
	if v, ok := desired.Velocity.Get(); ok {
		l.prevCommand.Velocity = jointlimits.Some(v)
	}
	if v, ok := desired.Effort.Get(); ok {
		l.prevCommand.Effort = jointlimits.Some(v)
	}
	if v, ok := desired.Acceleration.Get(); ok {
		l.prevCommand.Acceleration = jointlimits.Some(v)
	}
	if v, ok := desired.Jerk.Get(); ok {
		l.prevCommand.Jerk = jointlimits.Some(v)
	}
	if desired.HasData() {
		l.prevCommand.JointName = desired.JointName
	}
}

// sanitize implements spec.md §4.2 step 9: non-finite quantities after
// clamping are recovered locally rather than propagated.
func sanitize(desired *jointlimits.JointControlSample, actual jointlimits.JointControlSample) bool {
	enforced := false
	if desired.HasPosition() && !finite(desired.Position.Value()) && actual.HasPosition() {
		desired.Position = actual.Position
		enforced = true
	}
	if desired.HasVelocity() && !finite(desired.Velocity.Value()) {
		desired.Velocity = jointlimits.Some(float64(0))
		enforced = true
	}
	if desired.HasAcceleration() && !finite(desired.Acceleration.Value()) {
		desired.Acceleration = jointlimits.Some(float64(0))
		enforced = true
	}
	if desired.HasJerk() && !finite(desired.Jerk.Value()) {
		desired.Jerk = jointlimits.Some(float64(0))
		enforced = true
	}
	return enforced
}

// fallbackPosition mirrors the original implementation's two-sided fallback
// chain: prefer primary when it is present and finite, otherwise fall back
// to secondary, otherwise report the sentinel +Inf used internally to mean
// "no position information available at all".
func fallbackPosition(primary, secondary jointlimits.Optional[float64]) float64 {
	if v, ok := primary.Get(); ok && finite(v) {
		return v
	}
	if v, ok := secondary.Get(); ok {
		return v
	}
	return math.Inf(1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// collapse enforces lo <= hi, matching solver.Limits' degenerate-interval
// tie-break, for the bounds assembled locally inside Enforce.
func collapse(lo, hi float64) (float64, float64) {
	if lo > hi {
		mid := (lo + hi) / 2
		return mid, mid
	}
	return lo, hi
}

func isLimited(v, lo, hi float64) bool {
	return v < lo-epsilon || v > hi+epsilon
}
