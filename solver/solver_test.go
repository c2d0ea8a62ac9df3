package solver

import (
	"math"
	"testing"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/test"
)

func TestPositionLimits(t *testing.T) {
	t.Run("unconstrained without hard limits", func(t *testing.T) {
		got := PositionLimits(jointlimits.JointLimits{}, jointlimits.None[float64](), jointlimits.None[float64](), jointlimits.None[float64](), 0.01)
		test.That(t, got.Lower, test.ShouldEqual, math.Inf(-1))
		test.That(t, got.Upper, test.ShouldEqual, math.Inf(1))
	})

	t.Run("hard position bounds only", func(t *testing.T) {
		hard := jointlimits.JointLimits{HasPositionLimits: true, MinPosition: -1, MaxPosition: 1}
		got := PositionLimits(hard, jointlimits.None[float64](), jointlimits.None[float64](), jointlimits.None[float64](), 0.01)
		test.That(t, got.Lower, test.ShouldEqual, -1.0)
		test.That(t, got.Upper, test.ShouldEqual, 1.0)
	})

	t.Run("velocity limit tightens around previous command", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasPositionLimits: true, MinPosition: -10, MaxPosition: 10,
			HasVelocityLimits: true, MaxVelocity: 2,
		}
		got := PositionLimits(hard, jointlimits.None[float64](), jointlimits.Some(0.0), jointlimits.Some(1.0), 0.5)
		test.That(t, got.Lower, test.ShouldEqual, 0.0)
		test.That(t, got.Upper, test.ShouldEqual, 2.0)
	})

	t.Run("falls back to actual position when prev command not finite", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasPositionLimits: true, MinPosition: -10, MaxPosition: 10,
			HasVelocityLimits: true, MaxVelocity: 2,
		}
		got := PositionLimits(hard, jointlimits.None[float64](), jointlimits.Some(3.0), jointlimits.None[float64](), 0.5)
		test.That(t, got.Lower, test.ShouldEqual, 2.0)
		test.That(t, got.Upper, test.ShouldEqual, 4.0)
	})
}

func TestVelocityLimits(t *testing.T) {
	t.Run("acceleration ramp from rest", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasVelocityLimits: true, MaxVelocity: 2,
			HasAccelerationLimits: true, MaxAcceleration: 10,
		}
		got := VelocityLimits(hard, jointlimits.None[float64](), jointlimits.None[float64](), jointlimits.Some(0.0), 0.01)
		test.That(t, got.Lower, test.ShouldAlmostEqual, -0.1)
		test.That(t, got.Upper, test.ShouldAlmostEqual, 0.1)
	})

	t.Run("asymmetric deceleration limit tightens the decelerating side", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasVelocityLimits: true, MaxVelocity: 10,
			HasAccelerationLimits: true, MaxAcceleration: 10,
			HasDecelerationLimits: true, MaxDeceleration: 2,
		}
		// moving at +5: decelerating side is negative (toward 0), so the
		// lower bound is tightened by max_deceleration, not max_acceleration.
		got := VelocityLimits(hard, jointlimits.None[float64](), jointlimits.None[float64](), jointlimits.Some(5.0), 1.0)
		test.That(t, got.Lower, test.ShouldAlmostEqual, 3.0)  // 5 - 2*1
		test.That(t, got.Upper, test.ShouldAlmostEqual, 10.0) // min(5+10*1, 10)
	})

	t.Run("stop-within-bounds caps velocity approaching the nearer position bound", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasPositionLimits: true, MinPosition: -10, MaxPosition: 10,
			HasAccelerationLimits: true, MaxAcceleration: 4,
			HasDecelerationLimits: true, MaxDeceleration: 2,
		}
		// 1 unit from the upper bound: max safe speed toward it is sqrt(2*2*1).
		got := VelocityLimits(hard, jointlimits.None[float64](), jointlimits.Some(9.0), jointlimits.None[float64](), 1.0)
		test.That(t, got.Upper, test.ShouldAlmostEqual, math.Sqrt(4))
	})
}

func TestAccelerationLimits(t *testing.T) {
	t.Run("unconstrained without hard limits", func(t *testing.T) {
		got := AccelerationLimits(jointlimits.JointLimits{}, jointlimits.Some(1.0), jointlimits.Some(1.0))
		test.That(t, got.Lower, test.ShouldEqual, math.Inf(-1))
		test.That(t, got.Upper, test.ShouldEqual, math.Inf(1))
	})

	t.Run("uses max_acceleration when accelerating", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasAccelerationLimits: true, MaxAcceleration: 3,
			HasDecelerationLimits: true, MaxDeceleration: 7,
		}
		got := AccelerationLimits(hard, jointlimits.Some(1.0), jointlimits.Some(1.0))
		test.That(t, got.Lower, test.ShouldEqual, -3.0)
		test.That(t, got.Upper, test.ShouldEqual, 3.0)
	})

	t.Run("uses max_deceleration when decelerating", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasAccelerationLimits: true, MaxAcceleration: 3,
			HasDecelerationLimits: true, MaxDeceleration: 7,
		}
		got := AccelerationLimits(hard, jointlimits.Some(-1.0), jointlimits.Some(1.0))
		test.That(t, got.Lower, test.ShouldEqual, -7.0)
		test.That(t, got.Upper, test.ShouldEqual, 7.0)
	})
}

func TestEffortLimits(t *testing.T) {
	t.Run("zeroes the side that would push further into the wall", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasEffortLimits: true, MaxEffort: 50,
			HasPositionLimits: true, MinPosition: -1, MaxPosition: 1,
		}
		got := EffortLimits(hard, jointlimits.Some(0.9995), jointlimits.Some(1.0), 0.01)
		test.That(t, got.Upper, test.ShouldEqual, 0.0)
		test.That(t, got.Lower, test.ShouldEqual, -50.0)
	})

	t.Run("leaves effort untouched away from any bound", func(t *testing.T) {
		hard := jointlimits.JointLimits{
			HasEffortLimits: true, MaxEffort: 50,
			HasPositionLimits: true, MinPosition: -1, MaxPosition: 1,
		}
		got := EffortLimits(hard, jointlimits.Some(0.0), jointlimits.Some(0.0), 0.01)
		test.That(t, got.Lower, test.ShouldEqual, -50.0)
		test.That(t, got.Upper, test.ShouldEqual, 50.0)
	})
}
