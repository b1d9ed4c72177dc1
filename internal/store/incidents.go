package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/roadwatch/incident-etl/internal/domain"
)

// mysqlDuplicateEntry is the server error for a violated unique key.
const mysqlDuplicateEntry = 1062

// InsertOutcome is the explicit result of an insert attempt. A concurrent
// ingestion run winning the race to insert the same identity surfaces as
// Conflict, not as an error, so the caller's recovery branch is an ordinary
// conditional.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	Conflict
)

// StoredIncident is a persisted incident row.
type StoredIncident struct {
	ID int64
	domain.Incident
}

const incidentColumns = `id, uuid, source_system, source_event_id, source_url,
	state, county, route, route_class, direction, milepost, latitude, longitude,
	reported_time, updated_time, cleared_time,
	is_active, event_type, lanes_affected, closure_status, severity_flag, severity_score,
	raw_blob`

// FindIncident looks up an existing row by the dual identity keys: any uuid
// in candidates, or the (source_system, source_event_id) composite. Returns
// nil when no row matches.
func (s *Store) FindIncident(ctx context.Context, candidates []string, sourceSystem, sourceEventID string) (*StoredIncident, error) {
	var clauses []string
	var args []any

	if len(candidates) > 0 {
		clauses = append(clauses, "uuid IN ("+placeholders(len(candidates))+")")
		for _, c := range candidates {
			args = append(args, c)
		}
	}
	if sourceSystem != "" && sourceEventID != "" {
		clauses = append(clauses, "(source_system = ? AND source_event_id = ?)")
		args = append(args, sourceSystem, sourceEventID)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	query := "SELECT " + incidentColumns + " FROM incidents WHERE " +
		strings.Join(clauses, " OR ") + " LIMIT 1"

	row := s.db.QueryRowContext(ctx, query, args...)
	inc, err := scanIncident(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find incident: %w", err)
	}
	return inc, nil
}

// InsertIncident attempts to insert a new row, committing immediately.
// A uniqueness violation on any key is reported as Conflict with no error.
func (s *Store) InsertIncident(ctx context.Context, inc domain.Incident) (InsertOutcome, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (
			uuid, source_system, source_event_id, source_url,
			state, county, route, route_class, direction, milepost, latitude, longitude,
			reported_time, updated_time, cleared_time,
			is_active, event_type, lanes_affected, closure_status, severity_flag, severity_score,
			raw_blob, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.UUID, inc.SourceSystem, inc.SourceEventID, inc.SourceURL,
		inc.State, inc.County, inc.Route, inc.RouteClass, inc.Direction, inc.Milepost, inc.Latitude, inc.Longitude,
		inc.ReportedTime, inc.UpdatedTime, inc.ClearedTime,
		inc.IsActive, inc.EventType, inc.LanesAffected, inc.ClosureStatus, inc.SeverityFlag, inc.SeverityScore,
		nullableBlob(inc.RawBlob), now, now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return Conflict, nil
		}
		return 0, fmt.Errorf("insert incident %s: %w", inc.UUID, err)
	}
	return Inserted, nil
}

// UpdateIncident overwrites the mutable fields of an existing row. The
// stored uuid is never changed; identity is stable once assigned.
func (s *Store) UpdateIncident(ctx context.Context, id int64, inc domain.Incident) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE incidents SET
			source_system = ?, source_event_id = ?, source_url = ?,
			state = ?, county = ?, route = ?, route_class = ?, direction = ?,
			milepost = ?, latitude = ?, longitude = ?,
			reported_time = ?, updated_time = ?, cleared_time = ?,
			is_active = ?, event_type = ?, lanes_affected = ?, closure_status = ?,
			severity_flag = ?, severity_score = ?,
			raw_blob = ?, updated_at = ?
		WHERE id = ?`,
		inc.SourceSystem, inc.SourceEventID, inc.SourceURL,
		inc.State, inc.County, inc.Route, inc.RouteClass, inc.Direction,
		inc.Milepost, inc.Latitude, inc.Longitude,
		inc.ReportedTime, inc.UpdatedTime, inc.ClearedTime,
		inc.IsActive, inc.EventType, inc.LanesAffected, inc.ClosureStatus,
		inc.SeverityFlag, inc.SeverityScore,
		nullableBlob(inc.RawBlob), time.Now().UTC(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update incident %d: %w", id, err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanIncident(row scanner) (*StoredIncident, error) {
	var (
		out           StoredIncident
		sourceEventID sql.NullString
		sourceURL     sql.NullString
		state         sql.NullString
		county        sql.NullString
		route         sql.NullString
		routeClass    sql.NullString
		direction     sql.NullString
		milepost      sql.NullFloat64
		latitude      sql.NullFloat64
		longitude     sql.NullFloat64
		reportedTime  sql.NullTime
		updatedTime   sql.NullTime
		clearedTime   sql.NullTime
		isActive      sql.NullBool
		eventType     sql.NullString
		lanesAffected sql.NullString
		closureStatus sql.NullString
		severityFlag  sql.NullString
		severityScore sql.NullInt64
		rawBlob       []byte
	)

	err := row.Scan(
		&out.ID, &out.UUID, &out.SourceSystem, &sourceEventID, &sourceURL,
		&state, &county, &route, &routeClass, &direction, &milepost, &latitude, &longitude,
		&reportedTime, &updatedTime, &clearedTime,
		&isActive, &eventType, &lanesAffected, &closureStatus, &severityFlag, &severityScore,
		&rawBlob,
	)
	if err != nil {
		return nil, err
	}

	out.SourceEventID = sourceEventID.String
	out.SourceURL = nullStr(sourceURL)
	out.State = state.String
	out.County = nullStr(county)
	out.Route = nullStr(route)
	out.RouteClass = nullStr(routeClass)
	out.Direction = nullStr(direction)
	out.Milepost = nullFloat(milepost)
	out.Latitude = nullFloat(latitude)
	out.Longitude = nullFloat(longitude)
	out.ReportedTime = nullTime(reportedTime)
	out.UpdatedTime = nullTime(updatedTime)
	out.ClearedTime = nullTime(clearedTime)
	out.IsActive = nullBool(isActive)
	out.EventType = nullStr(eventType)
	out.LanesAffected = nullStr(lanesAffected)
	out.ClosureStatus = nullStr(closureStatus)
	out.SeverityFlag = nullStr(severityFlag)
	out.SeverityScore = nullInt(severityScore)
	out.RawBlob = rawBlob
	return &out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func nullableBlob(blob []byte) any {
	if len(blob) == 0 {
		return nil
	}
	return blob
}

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	return &v.Time
}

func nullBool(v sql.NullBool) *bool {
	if !v.Valid {
		return nil
	}
	return &v.Bool
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
