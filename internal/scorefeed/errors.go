package scorefeed

import "errors"

var (
	// ErrGameNotFound indicates the upstream feed has no game with that ID.
	ErrGameNotFound = errors.New("scorefeed: game not found")

	// ErrUpstream indicates the feed responded with a non-success status.
	ErrUpstream = errors.New("scorefeed: upstream error")
)
