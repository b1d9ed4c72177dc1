package ohgo

import (
	"encoding/json"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/feed"
	"github.com/roadwatch/incident-etl/internal/provider"
)

// normalizeItem maps one raw OHGO item into a canonical incident. Two
// shapes occur in the wild and are tried in order: a GeoJSON feature
// (fields under "properties", coordinates under "geometry") and a flat
// object. Items without a usable identity are rejected.
func normalizeItem(item map[string]any) (domain.Incident, bool) {
	if props, ok := item["properties"].(map[string]any); ok {
		return fromFeature(item, props)
	}
	return fromFlat(item)
}

func fromFeature(item, props map[string]any) (domain.Incident, bool) {
	id := provider.ID(item, "id")
	if id == "" {
		id = provider.ID(props, "id", "eventId")
	}
	if id == "" {
		return domain.Incident{}, false
	}

	var lat, lon *float64
	if geom, ok := item["geometry"].(map[string]any); ok {
		lat, lon = feed.Coordinates(geom)
	}

	status := provider.Str(props, "status", "roadStatus")
	category := provider.Str(props, "type", "category")
	cleared := domain.ParseTime(provider.Str(props, "endTime"))
	sevFlag, sevScore := domain.DeriveSeverity(
		provider.Int(props, "severityScore"),
		provider.Str(props, "severity"),
		status, category,
	)
	active := domain.DeriveActive(provider.Bool(props, "isActive"), cleared != nil, status)

	inc := domain.Incident{
		UUID:          id,
		SourceSystem:  domain.SourceOHGO,
		SourceEventID: id,
		SourceURL:     selfLink(item, props),
		State:         stateOr(props, "OH"),
		County:        strPtr(provider.Str(props, "county")),
		Route:         strPtr(provider.Str(props, "routeName")),
		Direction:     domain.Clip(strPtr(provider.Str(props, "direction")), domain.DirectionMaxLen),
		Latitude:      lat,
		Longitude:     lon,
		ReportedTime:  domain.ParseTime(provider.Str(props, "startTime")),
		UpdatedTime:   domain.ParseTime(provider.Str(props, "lastUpdated")),
		ClearedTime:   cleared,
		IsActive:      &active,
		EventType:     strPtr(category),
		LanesAffected: strPtr(provider.Str(props, "lanesAffected")),
		ClosureStatus: closure(status),
		SeverityFlag:  sevFlag,
		SeverityScore: sevScore,
		RawBlob:       rawBlob(item),
	}
	classifyRoute(&inc)
	return inc, true
}

func fromFlat(item map[string]any) (domain.Incident, bool) {
	id := provider.ID(item, "id", "eventId", "uuid")
	if id == "" {
		return domain.Incident{}, false
	}

	status := provider.Str(item, "roadStatus", "status")
	category := provider.Str(item, "category", "type")
	cleared := domain.ParseTime(provider.Str(item, "clearedTime", "endTime"))
	sevFlag, sevScore := domain.DeriveSeverity(
		provider.Int(item, "severityScore"),
		provider.Str(item, "severity"),
		status, category,
	)
	active := domain.DeriveActive(provider.Bool(item, "isActive"), cleared != nil, status)

	inc := domain.Incident{
		UUID:          id,
		SourceSystem:  domain.SourceOHGO,
		SourceEventID: id,
		SourceURL:     selfLink(item, item),
		State:         stateOr(item, "OH"),
		County:        strPtr(provider.Str(item, "county")),
		Route:         strPtr(provider.Str(item, "routeName")),
		Direction:     domain.Clip(strPtr(provider.Str(item, "direction")), domain.DirectionMaxLen),
		Latitude:      provider.Float(item, "latitude"),
		Longitude:     provider.Float(item, "longitude"),
		ReportedTime:  domain.ParseTime(provider.Str(item, "reportedTime", "startTime")),
		UpdatedTime:   domain.ParseTime(provider.Str(item, "updatedTime", "lastUpdated")),
		ClearedTime:   cleared,
		IsActive:      &active,
		EventType:     strPtr(category),
		LanesAffected: strPtr(provider.Str(item, "lanesAffected")),
		ClosureStatus: closure(status),
		SeverityFlag:  sevFlag,
		SeverityScore: sevScore,
		RawBlob:       rawBlob(item),
	}
	classifyRoute(&inc)
	return inc, true
}

// normalizeRoad maps an OHGO roads item. Road records have no activity or
// severity semantics, just inventory fields.
func normalizeRoad(item map[string]any) (domain.Road, bool) {
	id := provider.ID(item, "id", "roadId")
	if id == "" {
		return domain.Road{}, false
	}

	var geometry json.RawMessage
	if g, ok := item["geometry"]; ok && g != nil {
		geometry, _ = json.Marshal(g) //nolint:errcheck // round-tripping decoded JSON
	}

	return domain.Road{
		SourceSystem: domain.SourceOHGO,
		RoadID:       id,
		Name:         strPtr(provider.Str(item, "name")),
		Description:  strPtr(provider.Str(item, "description")),
		Direction:    domain.Clip(strPtr(provider.Str(item, "direction")), domain.RoadDirectionMaxLen),
		BeginMile:    provider.Float(item, "beginMile", "beginMilepost"),
		EndMile:      provider.Float(item, "endMile", "endMilepost"),
		Length:       provider.Float(item, "length"),
		Geometry:     geometry,
		LastUpdated:  domain.ParseTime(provider.Str(item, "lastUpdated")),
	}, true
}

// selfLink extracts href from the link element with rel="self", checking
// both casings OHGO has shipped, then falls back to a plain url field.
func selfLink(item, props map[string]any) *string {
	for _, container := range []map[string]any{item, props} {
		links, ok := container["links"].([]any)
		if !ok {
			links, ok = container["Links"].([]any)
		}
		if !ok {
			continue
		}
		for _, ln := range links {
			link, ok := ln.(map[string]any)
			if !ok {
				continue
			}
			if provider.Str(link, "rel", "Rel") == "self" {
				if href := provider.Str(link, "href", "Href"); href != "" {
					return &href
				}
			}
		}
	}
	if u := provider.Str(item, "url"); u != "" {
		return &u
	}
	return nil
}

func closure(status string) *string {
	c := domain.ClosureFromText(status)
	return &c
}

func classifyRoute(inc *domain.Incident) {
	if inc.Route != nil {
		class := domain.ClassifyRoute(*inc.Route)
		inc.RouteClass = &class
	}
}

func stateOr(m map[string]any, fallback string) string {
	if s := provider.Str(m, "state"); s != "" {
		return s
	}
	return fallback
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func rawBlob(item map[string]any) json.RawMessage {
	blob, err := json.Marshal(item)
	if err != nil {
		return nil
	}
	return blob
}
