package domain

import (
	"encoding/json"
	"time"
)

// Source system tags. The tag plus the provider's event id form the
// secondary uniqueness key for a stored incident.
const (
	SourceOHGO       = "OHGO"
	SourceDriveTexas = "DRIVETEXAS"
)

// Closure status values derived from free-text condition fields.
const (
	ClosureOpen    = "OPEN"
	ClosurePartial = "PARTIAL"
	ClosureClosed  = "CLOSED"
	ClosureUnknown = "UNKNOWN"
)

// Route classes. Anything not matching the interstate naming convention
// is classified as a state route.
const (
	RouteClassInterstate = "INTERSTATE"
	RouteClassState      = "STATE"
)

// DirectionMaxLen is the width of the incidents.direction column.
// Longer values are truncated, never rejected ("Both Directions" style
// strings forced the column to be widened once already).
const DirectionMaxLen = 32

// Incident is the provider-agnostic canonical representation of one
// traffic event. It is rebuilt from the feed on every cycle and
// reconciled against the store; it is never persisted directly.
type Incident struct {
	// UUID is the global external identity. For rows first seen without a
	// provider-native uuid it is synthesized as "<prefix>:<event id>".
	UUID          string `json:"uuid"`
	SourceSystem  string `json:"source_system"`
	SourceEventID string `json:"source_event_id"`
	SourceURL     *string `json:"source_url,omitempty"`

	State      string   `json:"state"`
	County     *string  `json:"county,omitempty"`
	Route      *string  `json:"route,omitempty"`
	RouteClass *string  `json:"route_class,omitempty"`
	Direction  *string  `json:"direction,omitempty"`
	Milepost   *float64 `json:"milepost,omitempty"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`

	ReportedTime *time.Time `json:"reported_time,omitempty"`
	UpdatedTime  *time.Time `json:"updated_time,omitempty"`
	ClearedTime  *time.Time `json:"cleared_time,omitempty"`

	IsActive      *bool   `json:"is_active,omitempty"`
	EventType     *string `json:"event_type,omitempty"`
	LanesAffected *string `json:"lanes_affected,omitempty"`
	ClosureStatus *string `json:"closure_status,omitempty"`
	SeverityFlag  *string `json:"severity_flag,omitempty"`
	SeverityScore *int    `json:"severity_score,omitempty"`

	// RawBlob retains the original provider payload verbatim for audit.
	RawBlob json.RawMessage `json:"-"`
}

// Road is an OHGO roadway inventory record, upserted independently of
// incidents and keyed by (source_system, road_id).
type Road struct {
	SourceSystem string          `json:"source_system"`
	RoadID       string          `json:"road_id"`
	Name         *string         `json:"name,omitempty"`
	Description  *string         `json:"description,omitempty"`
	Direction    *string         `json:"direction,omitempty"`
	BeginMile    *float64        `json:"begin_mile,omitempty"`
	EndMile      *float64        `json:"end_mile,omitempty"`
	Length       *float64        `json:"length,omitempty"`
	Geometry     json.RawMessage `json:"geometry,omitempty"`
	LastUpdated  *time.Time      `json:"last_updated,omitempty"`
}

// RoadDirectionMaxLen is the width of the roads.direction column.
const RoadDirectionMaxLen = 20
