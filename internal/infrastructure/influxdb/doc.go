// Package influxdb wraps the official influxdb-client-go v2 library for
// the optional time-series history mirror. Numeric sensor readings and
// variable item values are written as points; everything else stays out
// of the bucket.
//
// Connect builds a client from config.InfluxDBConfig and verifies the
// server is reachable before returning:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteItemReading(4001, "outdoor-temp", 18.2, "°C")
//
// Writes are non-blocking and batched (batch_size and flush_interval in
// the config control the cadence). Batch failures surface through the
// SetOnError callback rather than a return value; Close flushes any
// buffered points. All methods are safe for concurrent use.
package influxdb
