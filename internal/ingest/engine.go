// Package ingest contains the duplicate-safe upsert engine and the periodic
// runner that drives each provider on its own interval. The engine is the
// only place identity resolution happens; providers hand it normalized
// incidents and it decides insert, update, or skip per record.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"time"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/observability"
	"github.com/roadwatch/incident-etl/internal/store"
)

// Store is the persistence surface the engine needs. *store.Store satisfies
// it; tests substitute an in-memory implementation.
type Store interface {
	FindIncident(ctx context.Context, candidates []string, sourceSystem, sourceEventID string) (*store.StoredIncident, error)
	InsertIncident(ctx context.Context, inc domain.Incident) (store.InsertOutcome, error)
	UpdateIncident(ctx context.Context, id int64, inc domain.Incident) error
}

// Result accounts for one batch. Inserted + Updated + Skipped equals the
// number of items handed in.
type Result struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// Processed is the total number of records the batch touched.
func (r Result) Processed() int {
	return r.Inserted + r.Updated + r.Skipped
}

// Engine performs identity-resolved upserts. Each record commits
// individually, so a failure partway through a batch leaves the earlier
// records durable.
type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewEngine creates an Engine writing through the given store.
func NewEngine(s Store, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{store: s, logger: logger, metrics: metrics}
}

// UpsertBatch stores a batch of incidents from one provider. prefix
// namespaces synthesized uuids ("ohgo", "drivetexas"). Records without any
// usable identity are counted as skipped. Store errors abort the batch and
// propagate; everything written before the failure stays written.
func (e *Engine) UpsertBatch(ctx context.Context, prefix string, items []domain.Incident) (Result, error) {
	var res Result
	for _, inc := range items {
		outcome, err := e.upsertOne(ctx, prefix, inc)
		if err != nil {
			e.metrics.UpsertErrors.WithLabelValues(inc.SourceSystem).Inc()
			return res, err
		}
		switch outcome {
		case outcomeInserted:
			res.Inserted++
		case outcomeUpdated:
			res.Updated++
		case outcomeSkipped:
			res.Skipped++
		}
		e.metrics.UpsertOutcomes.WithLabelValues(inc.SourceSystem, outcome.String()).Inc()
	}
	return res, nil
}

type outcome int

const (
	outcomeInserted outcome = iota
	outcomeUpdated
	outcomeSkipped
)

func (o outcome) String() string {
	switch o {
	case outcomeInserted:
		return "inserted"
	case outcomeUpdated:
		return "updated"
	case outcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

func (e *Engine) upsertOne(ctx context.Context, prefix string, inc domain.Incident) (outcome, error) {
	candidates := identityCandidates(inc, prefix)
	if len(candidates) == 0 {
		e.logger.Warn("incident has no usable identity, skipping",
			"source_system", inc.SourceSystem)
		return outcomeSkipped, nil
	}

	existing, err := e.store.FindIncident(ctx, candidates, inc.SourceSystem, inc.SourceEventID)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return e.applyUpdate(ctx, existing, inc)
	}

	if inc.UUID == "" {
		inc.UUID = prefix + ":" + inc.SourceEventID
	}
	result, err := e.store.InsertIncident(ctx, inc)
	if err != nil {
		return 0, err
	}
	if result == store.Inserted {
		return outcomeInserted, nil
	}

	// Lost the insert race: a concurrent run claimed the identity between
	// our lookup and our insert. Re-resolve against the row that won,
	// including the uuid we just tried to claim.
	candidates = appendUnique(candidates, inc.UUID)
	existing, err = e.store.FindIncident(ctx, candidates, inc.SourceSystem, inc.SourceEventID)
	if err != nil {
		return 0, err
	}
	if existing == nil {
		e.logger.Warn("insert conflict but no row found on re-lookup, skipping",
			"uuid", inc.UUID, "source_system", inc.SourceSystem)
		return outcomeSkipped, nil
	}

	merged := merge(existing, inc)
	if err := e.store.UpdateIncident(ctx, existing.ID, merged); err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

// applyUpdate overwrites an existing row, but only when the incoming record
// actually changes something. Identity never moves: the stored uuid wins
// over whatever the feed sent this time.
func (e *Engine) applyUpdate(ctx context.Context, existing *store.StoredIncident, inc domain.Incident) (outcome, error) {
	merged := merge(existing, inc)
	if !changed(existing.Incident, merged) {
		return outcomeSkipped, nil
	}
	if err := e.store.UpdateIncident(ctx, existing.ID, merged); err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

// identityCandidates builds the ordered uuid candidate set: the native uuid,
// the raw source event id, and the namespaced form. Duplicates collapse
// while preserving first occurrence.
func identityCandidates(inc domain.Incident, prefix string) []string {
	var out []string
	if inc.UUID != "" {
		out = appendUnique(out, inc.UUID)
	}
	if inc.SourceEventID != "" {
		out = appendUnique(out, inc.SourceEventID)
		if prefix != "" {
			out = appendUnique(out, prefix+":"+inc.SourceEventID)
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, have := range list {
		if have == v {
			return list
		}
	}
	return append(list, v)
}

// merge produces the row to write over an existing one. The stored uuid is
// kept. reported_time keeps the earliest value ever seen: a stored value is
// retained not only when the incoming one is null but also when the incoming
// one is later, so the first observation of an incident is never lost to a
// feed that re-reports it with a fresher timestamp.
func merge(existing *store.StoredIncident, inc domain.Incident) domain.Incident {
	merged := inc
	merged.UUID = existing.UUID
	switch {
	case merged.ReportedTime == nil:
		merged.ReportedTime = existing.ReportedTime
	case existing.ReportedTime != nil && existing.ReportedTime.Before(*merged.ReportedTime):
		merged.ReportedTime = existing.ReportedTime
	}
	return merged
}

// changed reports whether any mutable field differs between the stored row
// and the merged incoming record.
func changed(old, next domain.Incident) bool {
	if old.SourceSystem != next.SourceSystem ||
		old.SourceEventID != next.SourceEventID ||
		old.State != next.State {
		return true
	}
	if !eqStr(old.SourceURL, next.SourceURL) ||
		!eqStr(old.County, next.County) ||
		!eqStr(old.Route, next.Route) ||
		!eqStr(old.RouteClass, next.RouteClass) ||
		!eqStr(old.Direction, next.Direction) ||
		!eqStr(old.EventType, next.EventType) ||
		!eqStr(old.LanesAffected, next.LanesAffected) ||
		!eqStr(old.ClosureStatus, next.ClosureStatus) ||
		!eqStr(old.SeverityFlag, next.SeverityFlag) {
		return true
	}
	if !eqFloat(old.Milepost, next.Milepost) ||
		!eqFloat(old.Latitude, next.Latitude) ||
		!eqFloat(old.Longitude, next.Longitude) {
		return true
	}
	if !eqTime(old.ReportedTime, next.ReportedTime) ||
		!eqTime(old.UpdatedTime, next.UpdatedTime) ||
		!eqTime(old.ClearedTime, next.ClearedTime) {
		return true
	}
	if !eqBool(old.IsActive, next.IsActive) || !eqInt(old.SeverityScore, next.SeverityScore) {
		return true
	}
	return !eqBlob(old.RawBlob, next.RawBlob)
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// eqTime compares at second precision. MySQL DATETIME columns drop
// fractional seconds, so a feed timestamp with sub-second precision would
// otherwise never match the re-read row and the record would count as
// updated on every cycle.
func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

func eqBool(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// eqBlob compares raw payloads structurally. MySQL reformats JSON columns
// on the way out, so byte equality alone would flag every row as changed.
func eqBlob(a, b json.RawMessage) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0 && len(b) == 0
	}
	var av, bv any
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return bytes.Equal(a, b)
	}
	return reflect.DeepEqual(av, bv)
}
