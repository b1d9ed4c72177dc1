package ohgo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/feed"
	"github.com/roadwatch/incident-etl/internal/provider"
)

// Datasets fetchable through Collect, keyed by include token.
var collectEndpoints = map[string]string{
	"construction":         "/construction",
	"digital_signs":        "/digital-signs",
	"cameras":              "/cameras",
	"travel_delays":        "/travel-delays",
	"dangerous_slowdowns":  "/dangerous-slowdowns",
	"truck_parking":        "/truck-parking",
	"weather_sensor_sites": "/weather-sensor-sites",
	"work_zones":           "/work-zones",
}

// FetchRoads retrieves the OHGO roadway inventory.
func (c *Connector) FetchRoads(ctx context.Context) ([]domain.Road, error) {
	roadsURL := feed.BuildURL(c.cfg.BaseURL, c.cfg.RoadsPath)
	data, err := c.client.GetJSON(ctx, roadsURL, nil, c.auth())
	if err != nil {
		return nil, fmt.Errorf("ohgo roads fetch: %w", err)
	}

	items, _ := feed.Items(data)
	roads := make([]domain.Road, 0, len(items))
	for _, item := range items {
		if road, ok := normalizeRoad(item); ok {
			roads = append(roads, road)
		}
	}
	c.logger.Info("fetch roads done", "count", len(roads))
	return roads, nil
}

// FetchDataset retrieves one non-incident collection (construction,
// cameras, ...) as raw items. The endpoint is composed from the API root so
// a base URL configured pointing at /incidents still resolves siblings
// correctly.
func (c *Connector) FetchDataset(ctx context.Context, endpoint string, f provider.Filters) ([]map[string]any, error) {
	datasetURL := feed.BuildURL(feed.APIRoot(c.cfg.BaseURL), endpoint)

	params := url.Values{}
	if f.PageAll {
		params.Set("page-all", "true")
	}
	if f.Region != "" {
		params.Set("region", f.Region)
	}
	if f.BoundsSW != "" && f.BoundsNE != "" {
		params.Set("map-bounds-sw", f.BoundsSW)
		params.Set("map-bounds-ne", f.BoundsNE)
	}
	if f.Radius != "" {
		params.Set("radius", f.Radius)
	}

	data, err := c.client.GetJSON(ctx, datasetURL, params, c.auth())
	if err != nil {
		return nil, fmt.Errorf("ohgo dataset %s: %w", endpoint, err)
	}
	items, _ := feed.Items(data)
	return items, nil
}

// Collect fetches incidents plus any requested extra datasets. Extras that
// 404 (not every deployment enables every endpoint) are omitted with a
// warning rather than failing the whole collection.
func (c *Connector) Collect(ctx context.Context, f provider.Filters, include []string) (map[string]any, error) {
	incidents, err := c.FetchIncidents(ctx, f)
	if err != nil {
		return nil, err
	}
	out := map[string]any{"incidents": incidents}

	for _, key := range include {
		endpoint, ok := collectEndpoints[key]
		if !ok {
			c.logger.Info("collect skip unknown include", "include", key)
			continue
		}
		items, err := c.FetchDataset(ctx, endpoint, f)
		if err != nil {
			var statusErr *feed.StatusError
			if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
				c.logger.Warn("collect endpoint not enabled on this deployment", "include", key)
				out[key] = []map[string]any{}
				continue
			}
			return nil, err
		}
		out[key] = items
		c.logger.Info("collect dataset done", "include", key, "count", len(items))
	}
	return out, nil
}
