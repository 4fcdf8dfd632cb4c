package mqtt

import "fmt"

// Topic prefixes for the Scoreline MQTT hierarchy.
//
// Everything lives under a single root so home-automation platforms can
// subscribe to scoreline/# and route from there.
const (
	// TopicPrefix is the base for all Scoreline topics.
	TopicPrefix = "scoreline"

	// TopicPrefixEvent is the base for event topics.
	TopicPrefixEvent = "scoreline/event"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "scoreline/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "scoreline/system"
)

// Event type constants used with Topics.Event.
const (
	EventGameUpdate   = "game_update"
	EventGameFinal    = "game_final"
	EventWatchStarted = "watch_started"
	EventWatchStopped = "watch_stopped"
	EventSimulation   = "simulation"
)

// Topics provides builders for Scoreline MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Event(mqtt.EventGameUpdate)
//	// Returns: "scoreline/event/game_update"
type Topics struct{}

// Event returns the topic for a game or watch lifecycle event.
//
// Example: scoreline/event/game_update
func (Topics) Event(eventType string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixEvent, eventType)
}

// DeviceState returns the topic carrying a device's current watch state.
// Published retained so late subscribers see the current mode.
//
// Example: scoreline/device/wled-den.local/state
func (Topics) DeviceState(host string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, host)
}

// SystemStatus returns the system status topic (online/offline, LWT).
//
// Example: scoreline/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllEvents returns a pattern matching every event topic.
//
// Pattern: scoreline/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/+", TopicPrefixEvent)
}

// AllDeviceStates returns a pattern matching every device state topic.
//
// Pattern: scoreline/device/+/state
func (Topics) AllDeviceStates() string {
	return fmt.Sprintf("%s/+/state", TopicPrefixDevice)
}

// AllTopics returns a pattern matching all Scoreline topics.
//
// Pattern: scoreline/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
