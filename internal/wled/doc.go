// Package wled speaks the JSON HTTP API of WLED LED controllers.
//
// The package is deliberately thin: State and Segment mirror the device's
// /json/state document, Client performs the HTTP round trips, and all
// sequencing, retries and per-device locking live in the orchestrator.
//
// # Partial Updates
//
// The device API treats a pushed state as a patch. Pointer fields on State
// exist so that "on: false", "bri: 0" and "transition: 0" survive encoding;
// nil fields are omitted and the device keeps its current value.
//
// # Segment Deletion
//
// Pushing a segment with stop=0 removes that segment ID on the device.
// DeleteSegment builds the marker. Pushes that reshape the strip send
// markers for every stale ID so old segments never linger.
package wled
