// Package provider defines the contract an upstream DOT feed adapter
// fulfills and the map-access helpers the adapters share. Providers are
// deliberately thin: they fetch, pick fields out of inconsistent payloads,
// and hand canonical incidents to the ingest engine.
package provider

import (
	"context"

	"github.com/roadwatch/incident-etl/internal/domain"
)

// Filters narrows a fetch geographically or by paging mode. Zero values
// mean "use the provider's configured defaults".
type Filters struct {
	PageAll  bool
	PageSize int
	Region   string
	BoundsSW string
	BoundsNE string
	Radius   string
}

// Provider fetches one upstream feed and normalizes it into canonical
// incidents. FetchIncidents returns only records with a usable identity;
// items without one are dropped during normalization.
type Provider interface {
	// Name is the source_system tag stored with every record.
	Name() string
	// Prefix namespaces synthesized uuids, e.g. "ohgo" -> "ohgo:<event id>".
	Prefix() string
	FetchIncidents(ctx context.Context, f Filters) ([]domain.Incident, error)
}
