package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roadwatch/incident-etl/internal/domain"
)

// RoadFetcher is implemented by providers that publish a roadway inventory
// alongside their incident feed.
type RoadFetcher interface {
	FetchRoads(ctx context.Context) ([]domain.Road, error)
}

// RoadStore persists roadway inventory records.
type RoadStore interface {
	UpsertRoads(ctx context.Context, roads []domain.Road) (int, error)
}

// RoadSync refreshes the roadway inventory on demand. Roads change rarely,
// so there is no periodic job; the HTTP trigger is the only driver.
type RoadSync struct {
	fetcher RoadFetcher
	store   RoadStore
	logger  *slog.Logger
}

// NewRoadSync creates a RoadSync over the given fetcher and store.
func NewRoadSync(fetcher RoadFetcher, store RoadStore, logger *slog.Logger) *RoadSync {
	return &RoadSync{fetcher: fetcher, store: store, logger: logger}
}

// IngestRoads fetches the full inventory and upserts it, returning how many
// records were written.
func (r *RoadSync) IngestRoads(ctx context.Context) (int, error) {
	roads, err := r.fetcher.FetchRoads(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch roads: %w", err)
	}
	n, err := r.store.UpsertRoads(ctx, roads)
	if err != nil {
		return n, fmt.Errorf("upsert roads: %w", err)
	}
	r.logger.Info("roads refreshed", "count", n)
	return n, nil
}
