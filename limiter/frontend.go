// Package limiter assembles the per-joint Limiter Frontend spec.md §4.3
// describes: a Capability (the actual enforcement algorithm), a
// parameter-source collaborator that supplies and updates its limits, and
// a log sink — wired together the way
// original_source/joint_limits/include/joint_limits/joint_limiter_interface.hpp's
// JointLimiterInterface wires its template parameters, but as composition
// over a small interface rather than class-template inheritance (spec.md
// §9's redesign note). Frontend itself is the generic multi-joint
// container spec.md §4.3 describes: one jointEntry, and one realtime-safe
// limitsBuffer, per joint name.
package limiter

import (
	"time"

	"github.com/pkg/errors"

	jointlimits "go.viam.com/jointlimits"
	"go.viam.com/jointlimits/jllog"
	"go.viam.com/jointlimits/paramsrc"
)

// jointEntry is one joint's slice of a Frontend: its Capability, the
// realtime-safe buffer parameter updates are published through, and the
// bookkeeping that lets Enforce pick up a new snapshot without blocking.
type jointEntry struct {
	cap Capability

	buf         limitsBuffer
	lastApplied *limitsSnapshot
}

// Frontend drives one or more joints, each through its own Capability, in
// the shape go.viam.com/rdk's control.NewLoop drives one or more control
// blocks: a thin container plus lifecycle methods, with all the actual
// enforcement delegated to each joint's Capability.
type Frontend struct {
	entries map[string]*jointEntry
	sink    jllog.Sink
}

func newFrontend(joints []string, newCap func() Capability, sink jllog.Sink) *Frontend {
	if sink == nil {
		sink = jllog.NewRecordingSink()
	}
	entries := make(map[string]*jointEntry, len(joints))
	for _, j := range joints {
		entries[j] = &jointEntry{cap: newCap()}
	}
	return &Frontend{entries: entries, sink: sink}
}

// NewSoftJointLimiterFrontend constructs a Frontend driving one
// SoftJointLimiter per joint named in joints. If source is non-nil, every
// joint is immediately initialized from it via InitFromSource with empty
// defaults; pass nil to use the bypass path (InitWithLimits) instead.
func NewSoftJointLimiterFrontend(joints []string, source paramsrc.Source, sink jllog.Sink) (*Frontend, error) {
	f := newFrontend(joints, func() Capability { return NewSoftJointLimiter() }, sink)
	if source == nil {
		return f, nil
	}
	defaults := make(map[string]paramsrc.AttributeMap, len(joints))
	for _, j := range joints {
		defaults[j] = paramsrc.AttributeMap{}
	}
	if err := f.InitFromSource(source, defaults); err != nil {
		return nil, err
	}
	return f, nil
}

// NewHardJointLimiterFrontend is the HardJointLimiter equivalent of
// NewSoftJointLimiterFrontend.
func NewHardJointLimiterFrontend(joints []string, source paramsrc.Source, sink jllog.Sink) (*Frontend, error) {
	f := newFrontend(joints, func() Capability { return NewHardJointLimiter() }, sink)
	if source == nil {
		return f, nil
	}
	defaults := make(map[string]paramsrc.AttributeMap, len(joints))
	for _, j := range joints {
		defaults[j] = paramsrc.AttributeMap{}
	}
	if err := f.InitFromSource(source, defaults); err != nil {
		return nil, err
	}
	return f, nil
}

// JointNames returns the joints this Frontend drives, in no particular
// order.
func (f *Frontend) JointNames() []string {
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	return names
}

func (f *Frontend) entry(jointName string) (*jointEntry, error) {
	e, ok := f.entries[jointName]
	if !ok {
		return nil, errors.Errorf("joint %q is not driven by this frontend", jointName)
	}
	return e, nil
}

// InitFromSource is the parameter-source-driven Init variant: for every
// joint this Frontend drives, it declares the joint with src using
// defaults[joint], fetches its current limits, publishes them, and
// subscribes to future changes. It is called once, from a non-realtime
// thread, before the first Enforce call for any joint.
func (f *Frontend) InitFromSource(src paramsrc.Source, defaults map[string]paramsrc.AttributeMap) error {
	for jointName, e := range f.entries {
		jointName, e := jointName, e
		if err := src.Declare(jointName, defaults[jointName]); err != nil {
			return errors.Wrapf(err, "init %s", jointName)
		}
		hard, soft, hasSoft, err := src.GetLimits(jointName)
		if err != nil {
			return errors.Wrapf(err, "init %s", jointName)
		}
		e.publish(hard, soft, hasSoft)
		jllog.Infof(f.sink, "joint %s initialized from parameter source", jointName)

		src.OnParameterChange(func(changedJoint string, changed paramsrc.AttributeMap) error {
			if changedJoint != jointName {
				return nil
			}
			hard, soft, hasSoft, err := src.GetLimits(changedJoint)
			if err != nil {
				jllog.Errorf(f.sink, "joint %s: failed to refresh limits: %v", changedJoint, err)
				return err
			}
			e.publish(hard, soft, hasSoft)
			jllog.Infof(f.sink, "joint %s limits updated", changedJoint)
			return nil
		})
	}
	return nil
}

// InitWithLimits is the bypass Init variant: it publishes hard/soft
// directly for every joint named in hard, without a parameter source, for
// callers that already know their joints' limits (tests, or configuration
// that never changes at runtime).
func (f *Frontend) InitWithLimits(
	hard map[string]jointlimits.JointLimits,
	soft map[string]jointlimits.SoftJointLimits,
	hasSoft map[string]bool,
) error {
	for jointName, lim := range hard {
		if err := lim.Validate(); err != nil {
			return errors.Wrapf(err, "init %s", jointName)
		}
		e, err := f.entry(jointName)
		if err != nil {
			return err
		}
		e.publish(lim, soft[jointName], hasSoft[jointName])
		jllog.Infof(f.sink, "joint %s initialized with static limits", jointName)
	}
	return nil
}

// Configure republishes hard/soft for one joint outside of the
// parameter-source flow, for callers driving updates themselves. Safe to
// call from a non-realtime thread at any time after Init.
func (f *Frontend) Configure(jointName string, hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits, hasSoft bool) error {
	if err := hard.Validate(); err != nil {
		return errors.Wrapf(err, "configure %s", jointName)
	}
	e, err := f.entry(jointName)
	if err != nil {
		return err
	}
	e.publish(hard, soft, hasSoft)
	return nil
}

// publish builds a new snapshot and stores it in the realtime-safe buffer.
// This allocation happens on the non-realtime caller's goroutine only.
func (e *jointEntry) publish(hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits, hasSoft bool) {
	e.buf.store(&limitsSnapshot{hard: hard, soft: soft, hasSoft: hasSoft})
}

// Enforce is the realtime entry point for one joint. It picks up whatever
// snapshot is currently published for jointName (a single atomic load, no
// allocation), applies it to the underlying Capability only if it is new
// since the last call (a pointer comparison), and then runs the
// Capability's Enforce. Enforcing an unknown joint name panics rather than
// allocating an error, since a realtime caller has no safe way to handle a
// fallible configuration mistake mid-loop; callers should validate joint
// names during Init.
func (f *Frontend) Enforce(jointName string, actual jointlimits.JointControlSample, desired *jointlimits.JointControlSample, dt time.Duration) bool {
	e, ok := f.entries[jointName]
	if !ok {
		panic("limiter: unknown joint " + jointName)
	}
	snap := e.buf.load()
	if snap == nil {
		return false
	}
	if snap != e.lastApplied {
		e.cap.ApplyLimits(snap.hard, snap.soft, snap.hasSoft)
		e.lastApplied = snap
	}
	return e.cap.Enforce(actual, desired, dt)
}

// ResetInternals clears whatever state jointName's Capability carries
// between Enforce calls.
func (f *Frontend) ResetInternals(jointName string) error {
	e, err := f.entry(jointName)
	if err != nil {
		return err
	}
	e.cap.ResetInternals()
	return nil
}

// ResetAll clears internal state for every joint this Frontend drives.
func (f *Frontend) ResetAll() {
	for _, e := range f.entries {
		e.cap.ResetInternals()
	}
}
