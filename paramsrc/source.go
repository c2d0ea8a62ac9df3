// Package paramsrc defines the parameter-source collaborator spec.md §6
// pulls out of the joint-limit core: "declare(joint_name, schema),
// get_limits(joint_name) -> JointLimits, on_parameter_change(callback)."
// It is grounded on go.viam.com/rdk's resource.AttributeMapConverter and
// control.AttributeMap parameter-declaration conventions, and on
// original_source/joint_limits/include/joint_limits/joint_limiter_interface.hpp's
// declare_parameters/get_limits/on_parameter_event flow.
package paramsrc

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	jointlimits "go.viam.com/jointlimits"
)

// Schema keys a Source is expected to recognize per joint, mirroring the
// ros2_control joint_limits parameter YAML schema
// (has_position_limits, min_position, max_position, ...).
const (
	KeyHasPositionLimits     = "has_position_limits"
	KeyMinPosition           = "min_position"
	KeyMaxPosition           = "max_position"
	KeyHasVelocityLimits     = "has_velocity_limits"
	KeyMaxVelocity           = "max_velocity"
	KeyHasAccelerationLimits = "has_acceleration_limits"
	KeyMaxAcceleration       = "max_acceleration"
	KeyHasDecelerationLimits = "has_deceleration_limits"
	KeyMaxDeceleration       = "max_deceleration"
	KeyHasJerkLimits         = "has_jerk_limits"
	KeyMaxJerk               = "max_jerk"
	KeyHasEffortLimits       = "has_effort_limits"
	KeyMaxEffort             = "max_effort"

	KeySoftKPosition   = "soft_limits.k_position"
	KeySoftKVelocity   = "soft_limits.k_velocity"
	KeySoftMinPosition = "soft_limits.min_position"
	KeySoftMaxPosition = "soft_limits.max_position"
)

// OnParameterChangeFunc is the callback signature registered with
// Source.OnParameterChange. It receives the joint name and the subset of
// attributes that changed, and returns the error the caller should surface
// (per joint_limiter_interface.hpp's on_parameter_event returning a
// SetParametersResult-shaped outcome).
type OnParameterChangeFunc func(jointName string, changed AttributeMap) error

// Source is the collaborator the Limiter Frontend's non-realtime Init path
// and parameter-change callback call through. Implementations may talk to a live
// parameter service (ROS-style) or simply hold a static map for tests and
// standalone use.
type Source interface {
	// Declare registers jointName with the source, along with the defaults
	// it should fall back to when a value isn't found. Declare is called
	// once per joint during Init and never from the realtime thread.
	Declare(jointName string, defaults AttributeMap) error

	// GetLimits returns the hard limits, and the soft limits if present,
	// currently known for jointName.
	GetLimits(jointName string) (hard jointlimits.JointLimits, soft jointlimits.SoftJointLimits, hasSoft bool, err error)

	// OnParameterChange registers fn to be invoked whenever this source
	// observes a parameter update for any declared joint. It is the
	// collaborator's only asynchronous entry point; fn runs on whatever
	// goroutine the source uses to watch for updates, never on the
	// realtime enforce thread.
	OnParameterChange(fn OnParameterChangeFunc)
}

// ParseJointLimits builds a JointLimits from an AttributeMap using the
// Schema keys above, the same shape the original parses out of ROS
// parameters in joint_limiter_interface.hpp's get_joint_limits.
func ParseJointLimits(am AttributeMap) (jointlimits.JointLimits, error) {
	lim := jointlimits.JointLimits{
		HasPositionLimits:     am.Bool(KeyHasPositionLimits, false),
		MinPosition:           am.Float64(KeyMinPosition, 0),
		MaxPosition:           am.Float64(KeyMaxPosition, 0),
		HasVelocityLimits:     am.Bool(KeyHasVelocityLimits, false),
		MaxVelocity:           am.Float64(KeyMaxVelocity, 0),
		HasAccelerationLimits: am.Bool(KeyHasAccelerationLimits, false),
		MaxAcceleration:       am.Float64(KeyMaxAcceleration, 0),
		HasDecelerationLimits: am.Bool(KeyHasDecelerationLimits, false),
		MaxDeceleration:       am.Float64(KeyMaxDeceleration, 0),
		HasJerkLimits:         am.Bool(KeyHasJerkLimits, false),
		MaxJerk:               am.Float64(KeyMaxJerk, 0),
		HasEffortLimits:       am.Bool(KeyHasEffortLimits, false),
		MaxEffort:             am.Float64(KeyMaxEffort, 0),
	}
	if err := lim.Validate(); err != nil {
		return jointlimits.JointLimits{}, errors.WithStack(err)
	}
	return lim, nil
}

// ParseSoftJointLimits builds a SoftJointLimits from an AttributeMap. The
// second return reports whether any soft_limits.* key was present at all;
// a source with no soft limits declared should treat hasSoft=false as
// "fall back to hard-limit-only enforcement" per spec.md §5.
func ParseSoftJointLimits(am AttributeMap) (jointlimits.SoftJointLimits, bool) {
	hasSoft := am.Has(KeySoftKPosition) || am.Has(KeySoftKVelocity) ||
		am.Has(KeySoftMinPosition) || am.Has(KeySoftMaxPosition)
	if !hasSoft {
		return jointlimits.SoftJointLimits{}, false
	}
	soft := jointlimits.SoftJointLimits{
		KPosition:   am.Float64(KeySoftKPosition, 0),
		KVelocity:   am.Float64(KeySoftKVelocity, 0),
		MinPosition: am.Float64(KeySoftMinPosition, 0),
		MaxPosition: am.Float64(KeySoftMaxPosition, 0),
	}
	return soft, true
}

// CheckForLimitsUpdate implements spec.md §6's
// "check_for_limits_update(joint_name, batch, ...)": given a batch of
// changed attributes for jointName and the limits currently in effect, it
// reports whether anything relevant to jointName changed and, if so, the
// merged limits the caller should adopt.
func CheckForLimitsUpdate(
	jointName string,
	batch AttributeMap,
	current jointlimits.JointLimits,
) (changed bool, updated jointlimits.JointLimits) {
	if len(batch) == 0 {
		return false, current
	}
	merged := mergeLimits(current, batch)
	if merged == current {
		return false, current
	}
	return true, merged
}

func mergeLimits(current jointlimits.JointLimits, batch AttributeMap) jointlimits.JointLimits {
	out := current
	if batch.Has(KeyHasPositionLimits) {
		out.HasPositionLimits = batch.Bool(KeyHasPositionLimits, out.HasPositionLimits)
	}
	if batch.Has(KeyMinPosition) {
		out.MinPosition = batch.Float64(KeyMinPosition, out.MinPosition)
	}
	if batch.Has(KeyMaxPosition) {
		out.MaxPosition = batch.Float64(KeyMaxPosition, out.MaxPosition)
	}
	if batch.Has(KeyHasVelocityLimits) {
		out.HasVelocityLimits = batch.Bool(KeyHasVelocityLimits, out.HasVelocityLimits)
	}
	if batch.Has(KeyMaxVelocity) {
		out.MaxVelocity = batch.Float64(KeyMaxVelocity, out.MaxVelocity)
	}
	if batch.Has(KeyHasAccelerationLimits) {
		out.HasAccelerationLimits = batch.Bool(KeyHasAccelerationLimits, out.HasAccelerationLimits)
	}
	if batch.Has(KeyMaxAcceleration) {
		out.MaxAcceleration = batch.Float64(KeyMaxAcceleration, out.MaxAcceleration)
	}
	if batch.Has(KeyHasDecelerationLimits) {
		out.HasDecelerationLimits = batch.Bool(KeyHasDecelerationLimits, out.HasDecelerationLimits)
	}
	if batch.Has(KeyMaxDeceleration) {
		out.MaxDeceleration = batch.Float64(KeyMaxDeceleration, out.MaxDeceleration)
	}
	if batch.Has(KeyHasJerkLimits) {
		out.HasJerkLimits = batch.Bool(KeyHasJerkLimits, out.HasJerkLimits)
	}
	if batch.Has(KeyMaxJerk) {
		out.MaxJerk = batch.Float64(KeyMaxJerk, out.MaxJerk)
	}
	if batch.Has(KeyHasEffortLimits) {
		out.HasEffortLimits = batch.Bool(KeyHasEffortLimits, out.HasEffortLimits)
	}
	if batch.Has(KeyMaxEffort) {
		out.MaxEffort = batch.Float64(KeyMaxEffort, out.MaxEffort)
	}
	return out
}

// StaticSource is a fixed, in-memory Source for tests and for callers that
// configure limits at construction time rather than through a live
// parameter service, in the spirit of go.viam.com/rdk's
// resource.Config-driven static AttributeMaps.
type StaticSource struct {
	mu       sync.Mutex
	declared map[string]AttributeMap
	hard     map[string]jointlimits.JointLimits
	soft     map[string]jointlimits.SoftJointLimits
	hasSoft  map[string]bool
}

// NewStaticSource returns a StaticSource with no joints declared yet.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		declared: map[string]AttributeMap{},
		hard:     map[string]jointlimits.JointLimits{},
		soft:     map[string]jointlimits.SoftJointLimits{},
		hasSoft:  map[string]bool{},
	}
}

// Declare implements Source by parsing defaults into limits immediately.
// Values already declared for jointName take precedence over defaults.
func (s *StaticSource) Declare(jointName string, defaults AttributeMap) error {
	s.mu.Lock()
	merged := make(AttributeMap, len(defaults))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range s.declared[jointName] {
		merged[k] = v
	}
	s.mu.Unlock()

	hard, err := ParseJointLimits(merged)
	if err != nil {
		return errors.Wrapf(err, "declare %s", jointName)
	}
	soft, hasSoft := ParseSoftJointLimits(merged)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.declared[jointName] = merged
	s.hard[jointName] = hard
	s.soft[jointName] = soft
	s.hasSoft[jointName] = hasSoft
	return nil
}

// GetLimits implements Source.
func (s *StaticSource) GetLimits(jointName string) (jointlimits.JointLimits, jointlimits.SoftJointLimits, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hard, ok := s.hard[jointName]
	if !ok {
		return jointlimits.JointLimits{}, jointlimits.SoftJointLimits{}, false, errors.Errorf("joint %q not declared", jointName)
	}
	return hard, s.soft[jointName], s.hasSoft[jointName], nil
}

// OnParameterChange implements Source. StaticSource never changes after
// construction, so it never invokes fn; the method exists to satisfy the
// interface for callers that wire a StaticSource in place of a live one.
func (s *StaticSource) OnParameterChange(OnParameterChangeFunc) {}

// CallbackSource is a Source that supports live parameter edits: Update
// merges a batch of changed attributes for a joint, stores the resulting
// limits, and invokes every callback registered via OnParameterChange. It
// models the non-realtime side of
// joint_limiter_interface.hpp's on_parameter_event: parameter updates
// arrive on whatever thread the surrounding service uses, never on the
// realtime control loop.
type CallbackSource struct {
	mu        sync.Mutex
	hard      map[string]jointlimits.JointLimits
	soft      map[string]jointlimits.SoftJointLimits
	hasSoft   map[string]bool
	callbacks []OnParameterChangeFunc
}

// NewCallbackSource returns an empty CallbackSource.
func NewCallbackSource() *CallbackSource {
	return &CallbackSource{
		hard:    map[string]jointlimits.JointLimits{},
		soft:    map[string]jointlimits.SoftJointLimits{},
		hasSoft: map[string]bool{},
	}
}

// Declare implements Source. A joint that is already declared keeps the
// limits it has; defaults apply only to a joint declared for the first time.
func (c *CallbackSource) Declare(jointName string, defaults AttributeMap) error {
	hard, err := ParseJointLimits(defaults)
	if err != nil {
		return errors.Wrapf(err, "declare %s", jointName)
	}
	soft, hasSoft := ParseSoftJointLimits(defaults)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.hard[jointName]; ok {
		return nil
	}
	c.hard[jointName] = hard
	c.soft[jointName] = soft
	c.hasSoft[jointName] = hasSoft
	return nil
}

// GetLimits implements Source.
func (c *CallbackSource) GetLimits(jointName string) (jointlimits.JointLimits, jointlimits.SoftJointLimits, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hard, ok := c.hard[jointName]
	if !ok {
		return jointlimits.JointLimits{}, jointlimits.SoftJointLimits{}, false, errors.Errorf("joint %q not declared", jointName)
	}
	return hard, c.soft[jointName], c.hasSoft[jointName], nil
}

// OnParameterChange implements Source.
func (c *CallbackSource) OnParameterChange(fn OnParameterChangeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Update applies a batch of changed attributes for jointName, merging them
// onto the limits already known for that joint, and, if anything changed,
// notifies every registered callback. Callers run this from a non-realtime
// parameter-watching goroutine; it must never be called from the realtime
// Enforce thread.
func (c *CallbackSource) Update(jointName string, batch AttributeMap) error {
	c.mu.Lock()
	current, ok := c.hard[jointName]
	if !ok {
		c.mu.Unlock()
		return errors.Errorf("joint %q not declared", jointName)
	}
	changed, updated := CheckForLimitsUpdate(jointName, batch, current)
	if changed {
		c.hard[jointName] = updated
	}
	if _, hasSoft := ParseSoftJointLimits(batch); hasSoft {
		soft := c.soft[jointName]
		soft.KPosition = batch.Float64(KeySoftKPosition, soft.KPosition)
		soft.KVelocity = batch.Float64(KeySoftKVelocity, soft.KVelocity)
		soft.MinPosition = batch.Float64(KeySoftMinPosition, soft.MinPosition)
		soft.MaxPosition = batch.Float64(KeySoftMaxPosition, soft.MaxPosition)
		c.soft[jointName] = soft
		c.hasSoft[jointName] = true
		changed = true
	}
	callbacks := make([]OnParameterChangeFunc, len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.mu.Unlock()

	if !changed {
		return nil
	}
	var combined error
	for _, cb := range callbacks {
		combined = multierr.Append(combined, cb(jointName, batch))
	}
	return combined
}
