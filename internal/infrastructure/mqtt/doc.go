// Package mqtt provides the outbound event stream for Scoreline Core.
//
// The broker connection is optional and strictly publish-only: Scoreline
// announces game updates, watch lifecycle changes and its own liveness so
// home-automation platforms can react (dim the room when the game goes
// final, flash a lamp on a lead change). Nothing subscribes back.
//
// # Topic Hierarchy
//
//	scoreline/event/{type}          game_update, game_final, watch_started, ...
//	scoreline/device/{host}/state   retained per-device watch state
//	scoreline/system/status         retained online/offline with LWT
//
// # Connection Lifecycle
//
//  1. Connect() establishes the session and registers a Last Will so the
//     broker flips status to offline if Scoreline crashes
//  2. The paho library reconnects automatically with exponential backoff
//  3. Close() publishes a graceful offline status before disconnecting
//
// Publish failures while the broker is away are reported as errors and
// dropped by callers; the event stream is advisory, never load-bearing.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	client.PublishJSON(topics.Event(mqtt.EventGameUpdate), update)
package mqtt
