package jointlimits

import "github.com/pkg/errors"

// ErrorKind classifies the failure modes spec.md §7 defines for the
// joint-limit core.
type ErrorKind int

const (
	// ConfigurationInvalid: a joint's declared limits contradict themselves,
	// or input vectors have mismatched lengths. Surfaced from Init.
	ConfigurationInvalid ErrorKind = iota
	// RuntimeDegenerate: dt <= 0 was passed to Enforce.
	RuntimeDegenerate
	// NonFiniteCommand: a desired value was NaN/Inf after clamping and had
	// to be sanitized locally.
	NonFiniteCommand
	// MissingSoftLimits: no error at all, just a degradation signal; kept
	// here so callers can use the same Kind-based dispatch uniformly.
	MissingSoftLimits
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigurationInvalid:
		return "configuration_invalid"
	case RuntimeDegenerate:
		return "runtime_degenerate"
	case NonFiniteCommand:
		return "non_finite_command"
	case MissingSoftLimits:
		return "missing_soft_limits"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned for every ErrorKind above. Use
// errors.As to recover the Kind from a wrapped error.
type Error struct {
	Kind ErrorKind
	msg  string
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.msg
}

// NewConfigurationError builds a ConfigurationInvalid error.
func NewConfigurationError(msg string) error {
	return errors.WithStack(&Error{Kind: ConfigurationInvalid, msg: msg})
}

// NewRuntimeDegenerateError builds a RuntimeDegenerate error.
func NewRuntimeDegenerateError(msg string) error {
	return errors.WithStack(&Error{Kind: RuntimeDegenerate, msg: msg})
}

// NewNonFiniteCommandError builds a NonFiniteCommand error.
func NewNonFiniteCommandError(msg string) error {
	return errors.WithStack(&Error{Kind: NonFiniteCommand, msg: msg})
}

// KindOf unwraps err looking for a *Error and returns its Kind. ok is false
// if err (or anything it wraps) is not a *Error.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind, true
	}
	return 0, false
}
