// Package jointlimits implements the data model for a joint's hard and soft
// motion envelope and the per-cycle command sample that limiters clamp.
//
// The enforcement algorithms that consume this data model live in the
// sibling packages solver, softlimit, hardlimit, and limiter; this package
// only holds the value types and validation that they share.
package jointlimits
