package limiter

import (
	"context"
	"sync"
	"testing"
	"time"

	goutils "go.viam.com/utils"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/jointlimits/jllog"
	"go.viam.com/jointlimits/paramsrc"
	"go.viam.com/test"
)

func shoulderDefaults() paramsrc.AttributeMap {
	return paramsrc.AttributeMap{
		paramsrc.KeyHasPositionLimits: true,
		paramsrc.KeyMinPosition:       -1.0,
		paramsrc.KeyMaxPosition:       1.0,
	}
}

func TestFrontendInitWithLimitsAndEnforce(t *testing.T) {
	sink := jllog.NewRecordingSink()
	f, err := NewSoftJointLimiterFrontend([]string{"shoulder"}, nil, sink)
	test.That(t, err, test.ShouldBeNil)

	err = f.InitWithLimits(
		map[string]jointlimits.JointLimits{"shoulder": {HasPositionLimits: true, MinPosition: -1, MaxPosition: 1}},
		map[string]jointlimits.SoftJointLimits{},
		map[string]bool{},
	)
	test.That(t, err, test.ShouldBeNil)

	desired := jointlimits.JointControlSample{Position: jointlimits.Some(5.0)}
	changed := f.Enforce("shoulder", jointlimits.JointControlSample{Position: jointlimits.Some(0.0)}, &desired, 10*time.Millisecond)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, desired.Position.Value(), test.ShouldAlmostEqual, 1.0)
}

func TestFrontendEnforceBeforeInitIsNoop(t *testing.T) {
	f, err := NewHardJointLimiterFrontend([]string{"elbow"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	desired := jointlimits.JointControlSample{Position: jointlimits.Some(5.0)}
	changed := f.Enforce("elbow", jointlimits.JointControlSample{}, &desired, 10*time.Millisecond)
	test.That(t, changed, test.ShouldBeFalse)
	test.That(t, desired.Position.Value(), test.ShouldEqual, 5.0)
}

func TestFrontendEnforceUnknownJointPanics(t *testing.T) {
	f, err := NewHardJointLimiterFrontend([]string{"elbow"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	defer func() {
		r := recover()
		test.That(t, r, test.ShouldNotBeNil)
	}()
	desired := jointlimits.JointControlSample{Position: jointlimits.Some(5.0)}
	f.Enforce("ghost", jointlimits.JointControlSample{}, &desired, 10*time.Millisecond)
}

func TestFrontendInitFromSource(t *testing.T) {
	src := paramsrc.NewStaticSource()
	f, err := NewSoftJointLimiterFrontend([]string{"shoulder"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)

	err = f.InitFromSource(src, map[string]paramsrc.AttributeMap{"shoulder": shoulderDefaults()})
	test.That(t, err, test.ShouldBeNil)

	desired := jointlimits.JointControlSample{Position: jointlimits.Some(5.0)}
	changed := f.Enforce("shoulder", jointlimits.JointControlSample{Position: jointlimits.Some(0.0)}, &desired, 10*time.Millisecond)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, desired.Position.Value(), test.ShouldAlmostEqual, 1.0)
}

func TestNewFrontendWithSourceInitializesImmediately(t *testing.T) {
	src := paramsrc.NewStaticSource()
	test.That(t, src.Declare("wrist", shoulderDefaults()), test.ShouldBeNil)

	f, err := NewHardJointLimiterFrontend([]string{"wrist"}, src, nil)
	test.That(t, err, test.ShouldBeNil)

	desired := jointlimits.JointControlSample{Position: jointlimits.Some(5.0)}
	changed := f.Enforce("wrist", jointlimits.JointControlSample{Position: jointlimits.Some(0.0)}, &desired, 10*time.Millisecond)
	test.That(t, changed, test.ShouldBeTrue)
	test.That(t, desired.Position.Value(), test.ShouldAlmostEqual, 1.0)
}

func TestFrontendResetInternals(t *testing.T) {
	f, err := NewHardJointLimiterFrontend([]string{"wrist"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.InitWithLimits(
		map[string]jointlimits.JointLimits{"wrist": {HasPositionLimits: true, MinPosition: -1, MaxPosition: 1}},
		map[string]jointlimits.SoftJointLimits{},
		map[string]bool{},
	), test.ShouldBeNil)

	desired := jointlimits.JointControlSample{Position: jointlimits.Some(0.5)}
	f.Enforce("wrist", jointlimits.JointControlSample{}, &desired, 10*time.Millisecond)
	test.That(t, f.ResetInternals("wrist"), test.ShouldBeNil)

	desired2 := jointlimits.JointControlSample{Position: jointlimits.Some(0.25)}
	changed := f.Enforce("wrist", jointlimits.JointControlSample{}, &desired2, 10*time.Millisecond)
	test.That(t, changed, test.ShouldBeFalse)
}

func TestFrontendJointNames(t *testing.T) {
	f, err := NewHardJointLimiterFrontend([]string{"wrist", "elbow"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	names := f.JointNames()
	test.That(t, len(names), test.ShouldEqual, 2)
}

// TestFrontendConcurrentParameterUpdateAndEnforce simulates the realtime
// thread calling Enforce in a tight loop while a non-realtime goroutine
// pushes parameter updates through a CallbackSource, in the shape
// go.viam.com/utils.ManagedGo wraps background work in across the rdk
// examples. It exercises the atomic limitsBuffer swap under contention;
// the race detector (not run here, but this shape is what it would check)
// is the point of the test.
func TestFrontendConcurrentParameterUpdateAndEnforce(t *testing.T) {
	src := paramsrc.NewCallbackSource()
	test.That(t, src.Declare("wrist", shoulderDefaults()), test.ShouldBeNil)

	f, err := NewSoftJointLimiterFrontend([]string{"wrist"}, nil, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.InitFromSource(src, map[string]paramsrc.AttributeMap{"wrist": shoulderDefaults()}), test.ShouldBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	wg.Add(1)
	goutils.ManagedGo(func() {
		for i := 0; i < 200; i++ {
			select {
			case <-ctx.Done():
				return
			default:
			}
			bound := 1.0 + float64(i%5)*0.1
			_ = src.Update("wrist", paramsrc.AttributeMap{paramsrc.KeyMaxPosition: bound})
		}
	}, wg.Done)

	for i := 0; i < 200; i++ {
		desired := jointlimits.JointControlSample{Position: jointlimits.Some(10.0)}
		changed := f.Enforce("wrist", jointlimits.JointControlSample{Position: jointlimits.Some(0.0)}, &desired, time.Millisecond)
		test.That(t, changed, test.ShouldBeTrue)
		test.That(t, desired.Position.Value(), test.ShouldBeLessThanOrEqualTo, 1.5)
	}

	cancel()
	wg.Wait()
}
