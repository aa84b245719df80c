// Package mqtt provides the MQTT publishing client for CrowdSight.
//
// CrowdSight publishes occupancy results to an external broker so that
// signage, dashboards, and building-automation systems can react to crowd
// levels without polling the HTTP API. The client is publish-only: no
// inbound topic drives analysis, so there is no subscription machinery.
//
// # Topics
//
// All topics live under the "crowdsight/" prefix:
//
//   - crowdsight/occupancy/{place_id}: retained occupancy snapshots
//   - crowdsight/places/{event}: place lifecycle events (created, updated, deleted)
//   - crowdsight/system/status: online/offline status with LWT
//
// Use the Topics helpers rather than formatting topic strings by hand.
//
// # Lifecycle
//
// Connect establishes the broker session, registers a Last Will and
// Testament on the status topic, and announces the service as online.
// Close publishes a graceful offline status before disconnecting. The
// paho client auto-reconnects with exponential backoff; the online
// status is re-published on every successful reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//		return fmt.Errorf("mqtt connect: %w", err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Occupancy(place.ID)
//	if err := client.PublishJSON(topic, snapshot, true); err != nil {
//		logger.Warn("occupancy publish failed", "error", err)
//	}
//
// The broker is an optional integration. Callers must tolerate a nil
// client and treat publish failures as non-fatal.
package mqtt
