// Package testutil provides an in-memory, insertion-date-versioned
// series provider for tests and local experimentation.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/series"
)

type revision struct {
	asOf time.Time
	s    *series.Series
}

// MemoryProvider stores full series states keyed by insertion date.
// Get serves the latest revision at or before the requested as-of
// instant, mimicking how a history-keeping storage engine answers
// revision queries.
type MemoryProvider struct {
	mu        sync.RWMutex
	revisions map[string][]revision
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{revisions: make(map[string][]revision)}
}

// Insert records the full state of a series as of an insertion
// date. Revisions may arrive in any order.
func (p *MemoryProvider) Insert(name string, asOf time.Time, s *series.Series) {
	p.mu.Lock()
	defer p.mu.Unlock()
	revs := append(p.revisions[name], revision{asOf: asOf, s: s.Clone()})
	sort.Slice(revs, func(i, j int) bool { return revs[i].asOf.Before(revs[j].asOf) })
	p.revisions[name] = revs
}

// Get implements eval.Provider. A zero asOf means latest. A name
// with no revision at or before asOf yields an empty series rather
// than an error: the series exists, it just had no data yet.
func (p *MemoryProvider) Get(ctx context.Context, name string, asOf time.Time) (*series.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	revs, ok := p.revisions[name]
	if !ok {
		return nil, &ops.MissingSeriesError{Name: name}
	}
	best := -1
	for i, rev := range revs {
		if asOf.IsZero() || !rev.asOf.After(asOf) {
			best = i
		}
	}
	if best < 0 {
		return series.Empty(name, revs[0].s.TZAware), nil
	}
	return revs[best].s.Clone(), nil
}

// Exists implements eval.Provider.
func (p *MemoryProvider) Exists(ctx context.Context, name string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.revisions[name]
	return ok, nil
}
