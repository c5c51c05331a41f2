package schema

import "time"

// SourceKind identifies which upstream export a row came from.
type SourceKind string

const (
	SourceDrivingHistory SourceKind = "DRIVING_HISTORY"
	SourceActivityDetail SourceKind = "ACTIVITY_DETAIL"
)

// EventType classifies a telematics event. KEY_ON and KEY_OFF bracket a
// shift; anything else is retained for audit but does not move the shift
// boundaries.
type EventType string

const (
	EventKeyOn   EventType = "KEY_ON"
	EventKeyOff  EventType = "KEY_OFF"
	EventUnknown EventType = "UNKNOWN"
)

// Event is one normalized telematics row. Immutable once created.
type Event struct {
	DriverKey   string     `json:"driverKey"`
	DisplayName string     `json:"displayName"`
	Timestamp   time.Time  `json:"timestamp"`
	Type        EventType  `json:"eventType"`
	Location    string     `json:"location,omitempty"`
	JobNumber   string     `json:"jobNumber,omitempty"`
	Asset       string     `json:"asset,omitempty"`
	Source      SourceKind `json:"source"`
}

// Field is a semantic column the resolver maps header labels onto.
type Field string

const (
	FieldDriver    Field = "driver"
	FieldTimestamp Field = "timestamp"
	FieldEventType Field = "eventType"
	FieldLocation  Field = "location"
	FieldAsset     Field = "asset"
)

// RequiredFields must resolve for a file to be ingestible. The remaining
// fields degrade to "unavailable" without failing the file.
var RequiredFields = []Field{FieldDriver, FieldTimestamp}
