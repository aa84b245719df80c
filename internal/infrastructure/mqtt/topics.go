package mqtt

import "fmt"

// Topic prefixes for the CrowdSight MQTT hierarchy.
//
// All topics use the scheme: crowdsight/{category}/{id_or_event}
const (
	// TopicPrefix is the base for all CrowdSight topics.
	TopicPrefix = "crowdsight"

	// TopicPrefixOccupancy is the base for occupancy snapshot topics.
	TopicPrefixOccupancy = "crowdsight/occupancy"

	// TopicPrefixPlaces is the base for place lifecycle event topics.
	TopicPrefixPlaces = "crowdsight/places"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "crowdsight/system"
)

// Topics provides builders for CrowdSight MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	occTopic := topics.Occupancy("cafe-main")
//	// Returns: "crowdsight/occupancy/cafe-main"
type Topics struct{}

// Occupancy returns the topic for occupancy snapshots of a place.
//
// Snapshots are published retained so new subscribers immediately
// receive the latest known occupancy.
//
// Example: crowdsight/occupancy/cafe-main
func (Topics) Occupancy(placeID string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixOccupancy, placeID)
}

// PlaceEvent returns the topic for place lifecycle events.
// Valid events are "created", "updated", and "deleted".
//
// Example: crowdsight/places/created
func (Topics) PlaceEvent(event string) string {
	return fmt.Sprintf("%s/%s", TopicPrefixPlaces, event)
}

// SystemStatus returns the topic for service online/offline status.
// The Last Will and Testament is registered on this topic.
//
// Example: crowdsight/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
