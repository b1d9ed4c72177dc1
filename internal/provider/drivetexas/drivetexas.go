// Package drivetexas adapts the TxDOT DriveTexas conditions feed. The feed
// is a GeoJSON FeatureCollection whose property names drift between camel
// and upper snake case across revisions, so every field is read through
// ordered candidate lists.
package drivetexas

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/feed"
	"github.com/roadwatch/incident-etl/internal/provider"
)

// Config holds the DriveTexas endpoint settings.
type Config struct {
	BaseURL string
	APIKey  string
}

// Connector implements provider.Provider for DriveTexas.
type Connector struct {
	cfg    Config
	client *feed.Client
	logger *slog.Logger
}

// New creates a DriveTexas connector. The feed authenticates with its own
// key query parameter, so the client should carry no fallback API key.
func New(cfg Config, client *feed.Client, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg,
		client: client,
		logger: logger.With("provider", domain.SourceDriveTexas),
	}
}

func (c *Connector) Name() string   { return domain.SourceDriveTexas }
func (c *Connector) Prefix() string { return "drivetexas" }

// FetchIncidents calls the conditions feed and normalizes its features.
// DriveTexas has no paging or region parameters, so Filters is unused. A
// missing API key yields an empty result with a warning instead of an
// error: the scheduler keeps cycling and picks the feed up once configured.
func (c *Connector) FetchIncidents(ctx context.Context, _ provider.Filters) ([]domain.Incident, error) {
	if c.cfg.APIKey == "" {
		c.logger.Warn("api key not configured, skipping fetch")
		return nil, nil
	}

	params := url.Values{"key": {c.cfg.APIKey}}
	headers := http.Header{}
	headers.Set("User-Agent", "incident-etl/drivetexas")

	data, err := c.client.GetJSON(ctx, c.cfg.BaseURL, params, headers)
	if err != nil {
		return nil, fmt.Errorf("drivetexas fetch: %w", err)
	}

	features, _ := feed.Items(data)
	out := make([]domain.Incident, 0, len(features))
	for _, f := range features {
		if inc, ok := normalizeFeature(f); ok {
			out = append(out, inc)
		}
	}

	c.logger.Info("fetch incidents done", "count", len(out))
	return out, nil
}

// normalizeFeature maps one DriveTexas GeoJSON feature. Observed property
// variants: GLOBALID / Identifier / id, route_name / ROUTE_NAME,
// travel_direction / DIRECTION, start_time / end_time / create_time,
// description, condition, delay_flag, county_num. Features without
// coordinates or an identity are rejected.
func normalizeFeature(feature map[string]any) (domain.Incident, bool) {
	props, ok := feature["properties"].(map[string]any)
	if !ok {
		return domain.Incident{}, false
	}
	geom, _ := feature["geometry"].(map[string]any)
	lat, lon := feed.Coordinates(geom)
	if lat == nil || lon == nil {
		return domain.Incident{}, false
	}

	id := provider.ID(props, "GLOBALID", "Identifier", "id")
	if id == "" {
		return domain.Incident{}, false
	}

	reported := domain.ParseTime(provider.Str(props, "start_time", "START_TIME"))
	updated := domain.ParseTime(provider.Str(props, "create_time", "CREATE_TIME", "start_time", "START_TIME"))
	cleared := domain.ParseTime(provider.Str(props, "end_time", "END_TIME"))
	active := domain.ActiveFromCleared(cleared)

	description := provider.Str(props, "description", "DESCRIPTION")
	closureStatus := domain.ClosureFromText(description)
	sevFlag, sevScore := severity(props, description)

	eventType := provider.Str(props, "condition", "CONDITION")
	if eventType == "" {
		eventType = "Unknown"
	}

	inc := domain.Incident{
		UUID:          "drivetexas:" + id,
		SourceSystem:  domain.SourceDriveTexas,
		SourceEventID: id,
		State:         "TX",
		County:        strPtr(provider.Str(props, "county_num", "COUNTY_NUM")),
		Route:         strPtr(provider.Str(props, "route_name", "ROUTE_NAME")),
		Direction:     domain.Clip(strPtr(provider.Str(props, "travel_direction", "DIRECTION")), domain.DirectionMaxLen),
		Milepost:      provider.Float(props, "from_ref_marker", "FROM_REF_MARKER"),
		Latitude:      lat,
		Longitude:     lon,
		ReportedTime:  reported,
		UpdatedTime:   updated,
		ClearedTime:   cleared,
		IsActive:      &active,
		EventType:     &eventType,
		LanesAffected: strPtr(description),
		ClosureStatus: &closureStatus,
		SeverityFlag:  sevFlag,
		SeverityScore: sevScore,
		RawBlob:       rawBlob(props, geom),
	}
	if inc.Route != nil {
		class := domain.ClassifyRoute(*inc.Route)
		inc.RouteClass = &class
	}
	return inc, true
}

// severity maps the DriveTexas delay flag and description text to a rough
// severity. A closure outranks a flagged delay, which outranks blocked
// lanes; any other non-empty description is low.
func severity(props map[string]any, description string) (*string, *int) {
	desc := strings.ToLower(description)
	delayFlag := strings.ToLower(provider.Str(props, "delay_flag", "DELAY_FLAG"))

	switch {
	case strings.Contains(desc, "closed"):
		return sev("HIGH", 3)
	case delayFlag == "true" || delayFlag == "1" || delayFlag == "yes":
		return sev("MEDIUM", 2)
	case strings.Contains(desc, "lane blocked"), strings.Contains(desc, "shoulder blocked"):
		return sev("MEDIUM", 2)
	case desc != "":
		return sev("LOW", 1)
	}
	return nil, nil
}

func sev(flag string, score int) (*string, *int) {
	return &flag, &score
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func rawBlob(props, geom map[string]any) json.RawMessage {
	blob, err := json.Marshal(map[string]any{"properties": props, "geometry": geom})
	if err != nil {
		return nil
	}
	return blob
}
