package cli

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/seriesdb/formula/internal/engine"
	"github.com/seriesdb/formula/internal/series"
	"github.com/seriesdb/formula/internal/store"
	"github.com/seriesdb/formula/internal/testutil"
)

const timeLayout = time.RFC3339

// FixtureFile is the YAML document feeding series data into the
// in-memory provider: per series, one revision per insertion date.
type FixtureFile struct {
	Series []SeriesFixture `yaml:"series"`
}

// SeriesFixture declares one series and its revisions.
type SeriesFixture struct {
	Name      string            `yaml:"name"`
	TZAware   bool              `yaml:"tzaware"`
	Revisions []RevisionFixture `yaml:"revisions"`
}

// RevisionFixture is the state of a series as of one insertion
// date. Points map timestamps to values.
type RevisionFixture struct {
	AsOf   string             `yaml:"as_of"`
	Points map[string]float64 `yaml:"points"`
}

// LoadFixtures reads a YAML fixture file into a fresh provider.
func LoadFixtures(path string) (*testutil.MemoryProvider, error) {
	provider := testutil.NewMemoryProvider()
	if path == "" {
		return provider, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var file FixtureFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}

	for _, fix := range file.Series {
		for _, rev := range fix.Revisions {
			asOf, err := parseTime(rev.AsOf)
			if err != nil {
				return nil, fmt.Errorf("series %s: as_of: %w", fix.Name, err)
			}
			s, err := fixtureSeries(fix.Name, fix.TZAware, rev.Points)
			if err != nil {
				return nil, fmt.Errorf("series %s: %w", fix.Name, err)
			}
			provider.Insert(fix.Name, asOf, s)
		}
	}
	return provider, nil
}

func fixtureSeries(name string, tzaware bool, points map[string]float64) (*series.Series, error) {
	type point struct {
		ts    time.Time
		value float64
	}
	parsed := make([]point, 0, len(points))
	for stamp, value := range points {
		ts, err := parseTime(stamp)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, point{ts, value})
	}
	sort.Slice(parsed, func(i, j int) bool { return parsed[i].ts.Before(parsed[j].ts) })

	times := make([]time.Time, len(parsed))
	values := make([]float64, len(parsed))
	for i, p := range parsed {
		times[i] = p.ts
		values[i] = p.value
	}
	return series.New(name, times, values, tzaware)
}

// parseTime accepts RFC3339 or a bare date.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time %q", s)
	}
	return ts, nil
}

// openEngine wires store, fixtures and engine from the global
// flags. The caller closes the returned store.
func openEngine(opts *RootOptions) (*engine.Engine, *store.Store, error) {
	provider, err := LoadFixtures(opts.Fixtures)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "loading fixtures", Err: err}
	}
	s, err := store.Open(opts.DB)
	if err != nil {
		return nil, nil, &ExitError{Code: ExitCommandError, Message: "opening registry", Err: err}
	}
	return engine.New(s, provider), s, nil
}
