// Package influxdb mirrors Garden Core telemetry into InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. When enabled in
// config.yaml, every persisted sensor reading is also written as a
// reading point tagged with the board MAC and device kind, and board
// connectivity changes are written as status points. Measurement names
// come from the influxdb section and default to sensor_reading and
// esp_status. Every point carries service=gardencore plus the configured
// tags. SQLite remains the source of truth; the mirror exists for
// dashboards.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	client.SetOnError(func(err error) { log.Warn("mirror", "error", err) })
//
//	client.WriteReading("AA:BB:CC:DD:EE:01", "SOIL_MOISTURE_SENSOR", 42.5, time.Now())
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval.
package influxdb
