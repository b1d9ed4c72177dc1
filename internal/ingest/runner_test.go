package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadwatch/incident-etl/internal/domain"
	"github.com/roadwatch/incident-etl/internal/observability"
	"github.com/roadwatch/incident-etl/internal/provider"
)

type fakeProvider struct {
	name   string
	prefix string

	mu      sync.Mutex
	items   []domain.Incident
	err     error
	fetched chan struct{}
}

func newFakeProvider(name, prefix string) *fakeProvider {
	return &fakeProvider{name: name, prefix: prefix, fetched: make(chan struct{}, 16)}
}

func (p *fakeProvider) Name() string   { return p.name }
func (p *fakeProvider) Prefix() string { return p.prefix }

func (p *fakeProvider) FetchIncidents(_ context.Context, _ provider.Filters) ([]domain.Incident, error) {
	p.mu.Lock()
	items, err := p.items, p.err
	p.mu.Unlock()
	p.fetched <- struct{}{}
	return items, err
}

func (p *fakeProvider) set(items []domain.Incident, err error) {
	p.mu.Lock()
	p.items, p.err = items, err
	p.mu.Unlock()
}

func testRunner(jobs []Job, clock clockwork.Clock) (*Runner, *fakeStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fs := &fakeStore{}
	engine := NewEngine(fs, logger, observability.NewMetricsForTesting())
	return NewRunner(engine, jobs, logger, observability.NewMetricsForTesting(), clock), fs
}

func waitFetched(t *testing.T, p *fakeProvider) {
	t.Helper()
	select {
	case <-p.fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a fetch")
	}
}

func TestRunner_CyclesOnInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := newFakeProvider("OHGO", "ohgo")
	p.set([]domain.Incident{incident("TICK-1")}, nil)

	r, fs := testRunner([]Job{{Provider: p, Interval: time.Minute}}, fc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	// First cycle fires immediately, before any tick.
	waitFetched(t, p)

	require.NoError(t, fc.BlockUntilContext(context.Background(), 1))
	fc.Advance(time.Minute)
	waitFetched(t, p)

	cancel()
	<-done

	assert.Equal(t, 1, fs.count())
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRunner_FetchFailureDoesNotStopPolling(t *testing.T) {
	fc := clockwork.NewFakeClock()
	p := newFakeProvider("DRIVETEXAS", "drivetexas")
	p.set(nil, errors.New("upstream 503"))

	r, fs := testRunner([]Job{{Provider: p, Interval: 2 * time.Minute}}, fc)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()

	waitFetched(t, p)
	assert.Error(t, r.CheckReadiness(context.Background()))

	// Feed recovers; the next tick picks it up.
	p.set([]domain.Incident{{
		SourceSystem:  domain.SourceDriveTexas,
		SourceEventID: "TX-1",
		State:         "TX",
	}}, nil)

	require.NoError(t, fc.BlockUntilContext(context.Background(), 1))
	fc.Advance(2 * time.Minute)
	waitFetched(t, p)

	cancel()
	<-done

	assert.Equal(t, 1, fs.count())
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRunner_TriggerIngest(t *testing.T) {
	p := newFakeProvider("OHGO", "ohgo")
	p.set([]domain.Incident{incident("MAN-1"), incident("MAN-2")}, nil)
	r, fs := testRunner([]Job{{Provider: p, Interval: time.Minute}}, clockwork.NewFakeClock())

	t.Run("known provider, case-insensitive", func(t *testing.T) {
		res, err := r.TriggerIngest(context.Background(), "ohgo")
		require.NoError(t, err)
		assert.Equal(t, Result{Inserted: 2}, res)
		assert.Equal(t, 2, fs.count())
		assert.NoError(t, r.CheckReadiness(context.Background()))
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := r.TriggerIngest(context.Background(), "caltrans")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown provider")
	})
}

func TestRunner_NotReadyBeforeFirstCycle(t *testing.T) {
	p := newFakeProvider("OHGO", "ohgo")
	r, _ := testRunner([]Job{{Provider: p, Interval: time.Minute}}, clockwork.NewFakeClock())

	assert.Error(t, r.CheckReadiness(context.Background()))
}
