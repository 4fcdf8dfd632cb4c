package config

import "errors"

var (
	// ErrDeviceNotFound indicates the requested device host is not configured.
	ErrDeviceNotFound = errors.New("config: device not found")

	// ErrDeviceExists indicates a device with the same host is already configured.
	ErrDeviceExists = errors.New("config: device already exists")
)
