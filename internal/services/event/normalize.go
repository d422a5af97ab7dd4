package event

import (
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const measurementEvent = "farm_event"

// EventToPoint maps a CommonEvent onto the farm_event measurement.
// Identity lives in tags, payload detail in fields.
func EventToPoint(evt CommonEvent) *write.Point {
	tags := map[string]string{
		"event_type":     evt.EventType,
		"source_service": evt.SourceService,
		"severity":       evt.Severity,
	}
	if evt.FarmID != "" {
		tags["farm_id"] = evt.FarmID
	}
	if evt.RefID != "" {
		tags["ref_id"] = evt.RefID
	}
	if evt.Kind != "" {
		tags["kind"] = evt.Kind
	}

	fields := map[string]interface{}{}
	for k, v := range evt.Fields {
		fields[k] = v
	}
	// Influx rejects field-less points; count also makes the event
	// countable in Flux aggregations.
	if _, ok := fields["count"]; !ok {
		fields["count"] = int64(1)
	}

	return influxdb2.NewPoint(measurementEvent, tags, fields, evt.Timestamp)
}
