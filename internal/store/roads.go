package store

import (
	"context"
	"fmt"

	"github.com/roadwatch/incident-etl/internal/domain"
)

// UpsertRoad inserts or refreshes one roadway inventory record. Roads have
// no race-sensitive identity history, so the plain ON DUPLICATE KEY UPDATE
// form is enough here.
func (s *Store) UpsertRoad(ctx context.Context, road domain.Road) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roads (
			source_system, road_id, name, description, direction,
			begin_mile, end_mile, length, geometry, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			description = VALUES(description),
			direction = VALUES(direction),
			begin_mile = VALUES(begin_mile),
			end_mile = VALUES(end_mile),
			length = VALUES(length),
			geometry = VALUES(geometry),
			last_updated = VALUES(last_updated)`,
		road.SourceSystem, road.RoadID, road.Name, road.Description, road.Direction,
		road.BeginMile, road.EndMile, road.Length, nullableBlob(road.Geometry), road.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert road %s/%s: %w", road.SourceSystem, road.RoadID, err)
	}
	return nil
}

// UpsertRoads stores a batch of roads, returning how many were written.
func (s *Store) UpsertRoads(ctx context.Context, roads []domain.Road) (int, error) {
	count := 0
	for _, road := range roads {
		if err := s.UpsertRoad(ctx, road); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
