package jointlimits

import (
	"testing"

	"go.viam.com/test"
)

func TestJointControlSampleEmpty(t *testing.T) {
	var s JointControlSample
	test.That(t, s.IsEmpty(), test.ShouldBeTrue)
	test.That(t, s.HasData(), test.ShouldBeFalse)

	s.Velocity = Some(0.5)
	test.That(t, s.IsEmpty(), test.ShouldBeFalse)
	test.That(t, s.HasVelocity(), test.ShouldBeTrue)
	test.That(t, s.HasPosition(), test.ShouldBeFalse)
}

func TestOptional(t *testing.T) {
	o := None[float64]()
	_, ok := o.Get()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, o.IsPresent(), test.ShouldBeFalse)

	o.Set(3.5)
	v, ok := o.Get()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, v, test.ShouldEqual, 3.5)

	o.Clear()
	test.That(t, o.IsPresent(), test.ShouldBeFalse)
	test.That(t, o.Value(), test.ShouldEqual, 0.0)
}
