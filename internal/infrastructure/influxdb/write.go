package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteItemReading records a numeric sensor reading for an item.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - itemID: The item's stable numeric id
//   - name: The item name (tag, low cardinality)
//   - value: The reading
//   - unit: The unit the reading is tagged with (°C, °F, %)
func (c *Client) WriteItemReading(itemID int, name string, value float64, unit string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"item_readings",
		map[string]string{
			"item_id": strconv.Itoa(itemID),
			"item":    name,
			"unit":    unit,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteItemValue records a variable item's string value.
//
// Parameters:
//   - itemID: The item's stable numeric id
//   - name: The item name
//   - value: The new value, stored verbatim
func (c *Client) WriteItemValue(itemID int, name string, value string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"item_values",
		map[string]string{
			"item_id": strconv.Itoa(itemID),
			"item":    name,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
