// Package ohgo adapts the Ohio DOT OHGO public API to the canonical
// incident model. OHGO deployments disagree about wrapper keys, parameter
// casing (page-all vs pageAll), and even payload shape (flat objects vs
// GeoJSON features), so fetching and normalization are defensive throughout.
package ohgo

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/feed"
	"github.com/roadwatch/incident-etl/internal/provider"
)

const defaultPageSize = 100

// Config holds the OHGO endpoint settings, bound once from the environment.
type Config struct {
	BaseURL       string
	IncidentsPath string
	RoadsPath     string
	APIKey        string

	// Optional geographic defaults applied when a fetch passes no filters.
	Region   string
	BoundsSW string
	BoundsNE string
	Radius   string
}

// Connector implements provider.Provider for OHGO.
type Connector struct {
	cfg    Config
	client *feed.Client
	logger *slog.Logger
}

// New creates an OHGO connector sharing the given feed client.
func New(cfg Config, client *feed.Client, logger *slog.Logger) *Connector {
	return &Connector{
		cfg:    cfg,
		client: client,
		logger: logger.With("provider", domain.SourceOHGO),
	}
}

func (c *Connector) Name() string   { return domain.SourceOHGO }
func (c *Connector) Prefix() string { return "ohgo" }

// auth returns the header and query-parameter forms of the API key. The
// header is the documented channel; the query parameter is the fallback the
// feed client switches to on 401/403.
func (c *Connector) auth() http.Header {
	headers := http.Header{}
	if c.cfg.APIKey != "" {
		headers.Set("Authorization", "APIKEY "+c.cfg.APIKey)
	}
	return headers
}

// FetchIncidents retrieves the incident set, following the page-all toggle
// and optional region/bounds/radius filters, and normalizes every usable
// item. Defaults to page-all, which returns the full statewide set.
func (c *Connector) FetchIncidents(ctx context.Context, f provider.Filters) ([]domain.Incident, error) {
	incidentsURL := feed.BuildURL(c.cfg.BaseURL, c.cfg.IncidentsPath)
	params := c.incidentParams(f)

	c.logger.Info("fetch incidents start", "url", incidentsURL, "page_all", f.PageAll)

	data, err := c.client.GetJSON(ctx, incidentsURL, params, c.auth())
	if err != nil {
		return nil, fmt.Errorf("ohgo incidents fetch: %w", err)
	}

	// Some deployments only understand the camelCase paging parameter and
	// answer the kebab-case one with an error wrapper instead of a status.
	if f.PageAll && hasErrorWrapper(data) {
		alt := clone(params)
		alt.Del("page-all")
		alt.Set("pageAll", "true")
		data, err = c.client.GetJSON(ctx, incidentsURL, alt, c.auth())
		if err != nil {
			return nil, fmt.Errorf("ohgo incidents fetch (pageAll retry): %w", err)
		}
	}

	items, meta := feed.Items(data)

	if !f.PageAll {
		items, err = c.fetchRemainingPages(ctx, incidentsURL, params, items, meta)
		if err != nil {
			return nil, err
		}
	}

	out := make([]domain.Incident, 0, len(items))
	for _, raw := range items {
		inc, ok := normalizeItem(raw)
		if !ok {
			continue
		}
		out = append(out, inc)
	}

	c.logger.Info("fetch incidents done", "count", len(out))
	return out, nil
}

// incidentParams builds the query for an incidents fetch, filter values
// falling back to the configured defaults.
func (c *Connector) incidentParams(f provider.Filters) url.Values {
	params := url.Values{}
	if f.PageAll {
		params.Set("page-all", "true")
	} else {
		size := f.PageSize
		if size <= 0 {
			size = defaultPageSize
		}
		params.Set("page-size", strconv.Itoa(size))
		params.Set("page", "1")
	}

	if region := firstOf(f.Region, c.cfg.Region); region != "" {
		params.Set("region", region)
	}
	sw, ne := f.BoundsSW, f.BoundsNE
	if sw == "" || ne == "" {
		sw, ne = c.cfg.BoundsSW, c.cfg.BoundsNE
	}
	if sw != "" && ne != "" {
		params.Set("map-bounds-sw", sw)
		params.Set("map-bounds-ne", ne)
	}
	if radius := firstOf(f.Radius, c.cfg.Radius); radius != "" {
		params.Set("radius", radius)
	}
	return params
}

// fetchRemainingPages walks pages 2..TotalPageCount when paged fetching was
// requested, stopping early on an empty page.
func (c *Connector) fetchRemainingPages(ctx context.Context, incidentsURL string, params url.Values, firstPage []map[string]any, meta map[string]any) ([]map[string]any, error) {
	totalPages := metaInt(meta, "TotalPageCount")
	all := firstPage
	page := firstPage

	for pageNum := 2; len(page) > 0; pageNum++ {
		if totalPages > 0 && pageNum > totalPages {
			break
		}
		next := clone(params)
		next.Set("page", strconv.Itoa(pageNum))
		data, err := c.client.GetJSON(ctx, incidentsURL, next, c.auth())
		if err != nil {
			return nil, fmt.Errorf("ohgo incidents page %d: %w", pageNum, err)
		}
		page, _ = feed.Items(data)
		all = append(all, page...)
	}
	return all, nil
}

// hasErrorWrapper reports whether a decoded response is a dict carrying an
// Error/error member, which OHGO uses instead of HTTP error statuses for
// unrecognized parameters.
func hasErrorWrapper(data any) bool {
	m, ok := data.(map[string]any)
	if !ok {
		return false
	}
	_, upper := m["Error"]
	_, lower := m["error"]
	return upper || lower
}

func metaInt(meta map[string]any, key string) int {
	if v, ok := meta[key]; ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return 0
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func clone(params url.Values) url.Values {
	out := url.Values{}
	for k, vs := range params {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
