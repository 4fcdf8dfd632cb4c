package tsdb

import "errors"

// Sentinel errors for time-series operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, tsdb.ErrDisabled) {
//	    // Run without the series store
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("tsdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("tsdb: connection failed")

	// ErrDisabled indicates the time-series store is disabled in config.
	ErrDisabled = errors.New("tsdb: disabled in configuration")
)
