package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteOccupancySample records a single occupancy reading for a place.
//
// This is the primary method for recording analysis results. The write
// is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - placeID: Unique identifier for the place (e.g., "plc-a1b2c3d4")
//   - percent: Occupancy percentage (0-100)
//   - occupied: Number of occupied seats
//   - total: Total seat count (place capacity)
//
// Example:
//
//	client.WriteOccupancySample("plc-a1b2c3d4", 72, 36, 50)
func (c *Client) WriteOccupancySample(placeID string, percent, occupied, total int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"occupancy",
		map[string]string{
			"place_id": placeID,
		},
		map[string]interface{}{
			"percent":        percent,
			"occupied_seats": occupied,
			"total_seats":    total,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteAnalysisMetric records timing data for an analysis run.
//
// Used for monitoring pipeline performance over time.
//
// Parameters:
//   - placeID: Place identifier
//   - source: Analysis source, "image" or "video"
//   - durationMs: Wall-clock duration of the run in milliseconds
//   - frames: Number of frames scored (1 for images)
func (c *Client) WriteAnalysisMetric(placeID string, source string, durationMs float64, frames int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"analysis",
		map[string]string{
			"place_id": placeID,
			"source":   source,
		},
		map[string]interface{}{
			"duration_ms": durationMs,
			"frames":      frames,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "crowdsight-01"},
//	    map[string]interface{}{"upload_queue": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., backfilled data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
