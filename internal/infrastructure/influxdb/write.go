package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementMeeting    = "teams_meeting"
	MeasurementConnection = "teams_connection"
)

// RecordState writes one snapshot of a record type. Each component id
// becomes a boolean field.
//
// Example point:
//
//	teams_meeting,host=OFFICE-PC,type=MeetingState is_muted=true,is_in_meeting=true
func (c *Client) RecordState(typeName string, values map[string]bool) {
	if !c.IsConnected() || len(values) == 0 {
		return
	}

	fields := make(map[string]interface{}, len(values))
	for id, v := range values {
		fields[id] = v
	}

	c.writePoint(MeasurementMeeting, map[string]string{"type": typeName}, fields, time.Now())
}

// RecordConnection writes the upstream connection state.
func (c *Client) RecordConnection(connected bool) {
	if !c.IsConnected() {
		return
	}

	c.writePoint(MeasurementConnection, nil, map[string]interface{}{"connected": connected}, time.Now())
}

func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}, ts time.Time) {
	all := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		all[k] = v
	}
	if c.host != "" {
		all["host"] = c.host
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, all, fields, ts))
}
