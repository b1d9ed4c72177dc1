package store

import (
	"context"
	"fmt"
)

// ActiveCount counts incidents that are active, or of unknown activity and
// not yet cleared. The unknown-and-uncleared case counts as active for the
// same reason the derivation defaults to active: bias toward visibility.
func (s *Store) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM incidents
		WHERE is_active = 1
		   OR (is_active IS NULL AND cleared_time IS NULL)`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("active count: %w", err)
	}
	return count, nil
}

// Latest returns the most recently touched incidents. MySQL has no NULLS
// LAST, so ordering goes through (col IS NULL) first.
func (s *Store) Latest(ctx context.Context, limit int) ([]StoredIncident, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+incidentColumns+` FROM incidents
		ORDER BY (updated_time IS NULL), updated_time DESC,
		         (reported_time IS NULL), reported_time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("latest incidents: %w", err)
	}
	defer rows.Close()

	var out []StoredIncident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("latest incidents scan: %w", err)
		}
		out = append(out, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest incidents rows: %w", err)
	}
	return out, nil
}

// CountIncidents returns the total row count; used by tests and the
// readiness surface.
func (s *Store) CountIncidents(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return count, nil
}
