package deps

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/store"
)

// CyclicDependencyError rejects a registration that would close a
// dependency cycle. Path lists the names along the cycle, first and
// last entries equal.
type CyclicDependencyError struct {
	Name string
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("registering %q would create a cycle: %s",
		e.Name, strings.Join(e.Path, " -> "))
}

// Tracker writes formulas and their dependency edges to the
// registry, enforcing acyclicity on every write.
type Tracker struct {
	store *store.Store
}

// NewTracker wraps a registry store.
func NewTracker(s *store.Store) *Tracker {
	return &Tracker{store: s}
}

// Register stores a formula under name with its canonical text and
// metadata, ensures a registry node for every referenced series, and
// swaps the formula's edge set. The whole sequence runs in one
// transaction; when the new edges would close a cycle nothing is
// written and the previous state survives.
func (t *Tracker) Register(ctx context.Context, name, text string, expr lang.Expr, meta store.Metadata) error {
	tx, err := t.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sid, err := store.UpsertFormula(ctx, tx, name, text, meta)
	if err != nil {
		return err
	}

	refs := ExtractReferences(expr)
	needs := make([]int64, 0, len(refs))
	for _, ref := range refs {
		id, err := store.EnsureNode(ctx, tx, ref, store.KindPrimary)
		if err != nil {
			return err
		}
		needs = append(needs, id)
	}

	if err := store.ReplaceEdges(ctx, tx, sid, needs); err != nil {
		return err
	}

	// validate against the graph as it would be after commit
	graph, err := store.Edges(ctx, tx)
	if err != nil {
		return err
	}
	if path := findCycle(graph, sid); path != nil {
		names, err := cyclePath(ctx, tx, path)
		if err != nil {
			return err
		}
		return &CyclicDependencyError{Name: name, Path: names}
	}

	return errors.Wrap(tx.Commit(), "commit registration")
}

// findCycle walks the graph depth-first from start and returns the
// node ids along the first cycle through start, or nil when none
// exists. Only cycles reachable from start matter: the rest of the
// graph was acyclic before this registration.
func findCycle(graph map[int64][]int64, start int64) []int64 {
	var path []int64
	onPath := map[int64]bool{}
	visited := map[int64]bool{}

	var visit func(id int64) []int64
	visit = func(id int64) []int64 {
		path = append(path, id)
		onPath[id] = true
		for _, need := range graph[id] {
			if onPath[need] {
				// trim to the loop itself and close it for the report
				i := 0
				for path[i] != need {
					i++
				}
				return append(append([]int64(nil), path[i:]...), need)
			}
			if visited[need] {
				continue
			}
			if cycle := visit(need); cycle != nil {
				return cycle
			}
		}
		onPath[id] = false
		visited[id] = true
		path = path[:len(path)-1]
		return nil
	}
	return visit(start)
}

func cyclePath(ctx context.Context, tx *sql.Tx, ids []int64) ([]string, error) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name, err := store.NodeName(ctx, tx, id)
		if err != nil {
			return nil, errors.Wrap(err, "report cycle")
		}
		names = append(names, name)
	}
	return names, nil
}

// Dependencies lists the nodes the named formula directly needs.
func (t *Tracker) Dependencies(ctx context.Context, name string) ([]*store.Node, error) {
	return t.store.Dependencies(ctx, name)
}

// Dependents lists the formulas directly needing the named node.
func (t *Tracker) Dependents(ctx context.Context, name string) ([]*store.Node, error) {
	return t.store.Dependents(ctx, name)
}

// IsCycle reports whether err is a cycle rejection.
func IsCycle(err error) bool {
	var ce *CyclicDependencyError
	return errors.As(err, &ce)
}
