package wled

import "errors"

var (
	// ErrDeviceUnreachable indicates the device did not answer the request.
	ErrDeviceUnreachable = errors.New("wled: device unreachable")

	// ErrBadResponse indicates the device answered with a non-success status
	// or an undecodable body.
	ErrBadResponse = errors.New("wled: bad response from device")
)
