// Package influxdb provides InfluxDB connectivity for CrowdSight.
//
// It wraps the official influxdb-client-go v2 library with CrowdSight-specific
// patterns for connection management, metric writing, and health monitoring.
//
// # Purpose
//
// This package handles time-series data storage for:
//   - Occupancy samples per place (long-term trend analysis)
//   - Analysis run metrics (duration, frame counts, source type)
//
// The SQLite occupancy_history table keeps only a rolling 24-hour view;
// InfluxDB retains the full time series for cross-day reporting.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "crowdsight",
//	    Bucket: "occupancy",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record an occupancy sample
//	client.WriteOccupancySample("cafe-main", 72, 36, 50)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a callback.
// Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size, flush_interval).
// This reduces network overhead when many places are analysed in bursts.
package influxdb
