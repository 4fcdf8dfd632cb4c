package orchestrator

import "errors"

// Domain-specific errors for orchestrator operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownDevice indicates the host is not in the device registry.
	ErrUnknownDevice = errors.New("orchestrator: unknown device")

	// ErrUnknownLeague indicates the league has no configured sport path.
	ErrUnknownLeague = errors.New("orchestrator: unknown league")

	// ErrNotWatching indicates the device has no active watch to stop.
	ErrNotWatching = errors.New("orchestrator: device is not watching")

	// ErrNotSimulating indicates the device has no simulation to stop.
	ErrNotSimulating = errors.New("orchestrator: device is not simulating")
)
