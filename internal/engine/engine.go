package engine

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/seriesdb/formula/internal/deps"
	"github.com/seriesdb/formula/internal/eval"
	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/ops"
	"github.com/seriesdb/formula/internal/series"
	"github.com/seriesdb/formula/internal/store"
)

// Engine binds the registry store, the operator set and a series
// provider into the system's public operations.
type Engine struct {
	store     *store.Store
	registry  *ops.Registry
	provider  eval.Provider
	tracker   *deps.Tracker
	evaluator *eval.Evaluator
}

// New wires an engine over a registry store and a series provider,
// using the stock operator set.
func New(s *store.Store, provider eval.Provider) *Engine {
	return NewWithRegistry(s, provider, ops.Builtin())
}

// NewWithRegistry is New with a caller-assembled operator registry.
func NewWithRegistry(s *store.Store, provider eval.Provider, registry *ops.Registry) *Engine {
	e := &Engine{
		store:    s,
		registry: registry,
		provider: provider,
		tracker:  deps.NewTracker(s),
	}
	e.evaluator = &eval.Evaluator{
		Registry: registry,
		Provider: provider,
		Resolver: e,
	}
	return e
}

// Formula implements eval.Resolver over the registry store: the
// stored text when name is a registered formula, false otherwise.
func (e *Engine) Formula(ctx context.Context, name string) (string, bool, error) {
	n, err := e.store.Node(ctx, name)
	if store.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if n.Kind != store.KindFormula {
		return "", false, nil
	}
	return n.Text, true, nil
}

// RegisterOptions tunes formula registration.
type RegisterOptions struct {
	// Metadata is merged into the computed metadata (contenthash).
	Metadata store.Metadata
	// AllowUnknown registers even when referenced series are known
	// to neither the registry nor the provider.
	AllowUnknown bool
}

// Register validates, normalizes and stores a formula under name,
// replacing any previous text and dependency edges. The text must
// parse, pass the operator checks, evaluate to a series, and (unless
// overridden) reference only known series. A registration closing a
// dependency cycle fails without touching the stored graph.
func (e *Engine) Register(ctx context.Context, name, text string, opts RegisterOptions) (int64, error) {
	expr, err := lang.Parse(text)
	if err != nil {
		return 0, err
	}
	canonical := lang.Render(expr)

	if err := eval.Check(expr, e.registry); err != nil {
		return 0, err
	}
	if err := typecheck(canonical, expr); err != nil {
		return 0, err
	}
	if !opts.AllowUnknown {
		if err := e.checkKnown(ctx, canonical, expr); err != nil {
			return 0, err
		}
	}

	meta := store.Metadata{}
	for k, v := range opts.Metadata {
		meta[k] = v
	}
	hash, err := e.contentHash(ctx, name, expr)
	if err != nil {
		return 0, err
	}
	meta["contenthash"] = hash

	if err := e.tracker.Register(ctx, name, canonical, expr, meta); err != nil {
		return 0, err
	}
	n, err := e.store.Node(ctx, name)
	if err != nil {
		return 0, err
	}
	return n.ID, nil
}

// checkKnown rejects references resolved by neither the registry
// nor the provider.
func (e *Engine) checkKnown(ctx context.Context, text string, expr lang.Expr) error {
	var unknown []string
	for _, ref := range deps.ExtractReferences(expr) {
		if _, err := e.store.Node(ctx, ref); err == nil {
			continue
		} else if !store.IsNotFound(err) {
			return err
		}
		ok, err := e.provider.Exists(ctx, ref)
		if err != nil {
			return err
		}
		if !ok {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		return &UnknownSeriesError{Formula: text, Names: unknown}
	}
	return nil
}

// contentHash hashes the canonical render of the fully expanded
// tree, so a formula's hash changes when any formula it references
// changes. Expansion stops at the formula's own name: a stored
// previous version must not leak into the new hash.
func (e *Engine) contentHash(ctx context.Context, name string, expr lang.Expr) (string, error) {
	stop := map[string]bool{name: true}
	expanded, err := e.expand(ctx, expr, stop)
	if err != nil {
		return "", err
	}
	sum := sha1.Sum([]byte(lang.Render(expanded)))
	return hex.EncodeToString(sum[:]), nil
}

// ContentHash returns the stored content hash of a registered
// formula.
func (e *Engine) ContentHash(ctx context.Context, name string) (string, error) {
	n, err := e.store.Node(ctx, name)
	if err != nil {
		return "", err
	}
	hash, _ := n.Metadata["contenthash"].(string)
	return hash, nil
}

// Evaluate runs a formula over the window. The argument is either a
// registered name or literal formula text; text is recognized by its
// leading parenthesis. A name that is not a registered formula is
// read straight from the provider.
func (e *Engine) Evaluate(ctx context.Context, textOrName string, w ops.Window) (*series.Series, error) {
	var expr lang.Expr
	if strings.HasPrefix(strings.TrimSpace(textOrName), "(") {
		parsed, err := lang.Parse(textOrName)
		if err != nil {
			return nil, err
		}
		expr = parsed
	} else {
		text, isFormula, err := e.Formula(ctx, textOrName)
		if err != nil {
			return nil, err
		}
		if isFormula {
			if expr, err = lang.Parse(text); err != nil {
				return nil, err
			}
		} else {
			expr = &lang.Call{Op: "series", Args: []lang.Expr{lang.String(textOrName)}}
		}
	}

	return e.evaluator.Evaluate(ctx, expr, w)
}

// StaircaseEvaluate evaluates a registered formula once per
// snapshot revision, reusing unchanged prefixes where the formula
// shape allows it.
func (e *Engine) StaircaseEvaluate(ctx context.Context, name string, snapshots []time.Time, w ops.Window) ([]*series.Series, error) {
	return e.evaluator.Staircase(ctx, name, snapshots, w)
}

// Delete removes a node from the registry; its dependency edges go
// with it. Formulas still referencing the name keep their text and
// fail at evaluation with a missing series.
func (e *Engine) Delete(ctx context.Context, name string) error {
	return e.store.DeleteNode(ctx, name)
}

// Rename renames a node and rewrites the reference inside every
// formula depending on it. Fails without writing when the new name
// is already a registry node or already referenced by a formula.
// The text rewrites and the node rename commit together.
func (e *Engine) Rename(ctx context.Context, oldname, newname string) error {
	holders, err := e.store.Dependents(ctx, newname)
	if err != nil {
		return err
	}
	if len(holders) > 0 {
		names := make([]string, len(holders))
		for i, h := range holders {
			names[i] = h.Name
		}
		return &AlreadyReferencedError{NewName: newname, By: names}
	}

	dependents, err := e.store.Dependents(ctx, oldname)
	if err != nil {
		return err
	}
	rewrites := make(map[string]string, len(dependents))
	for _, dep := range dependents {
		expr, err := lang.Parse(dep.Text)
		if err != nil {
			return fmt.Errorf("stored formula `%s`: %w", dep.Name, err)
		}
		rewrites[dep.Name] = lang.Render(rewriteReferences(expr, oldname, newname))
	}

	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := store.NodeID(ctx, tx, newname); err == nil {
		return fmt.Errorf("cannot rename `%s`: `%s` is already registered", oldname, newname)
	} else if !store.IsNotFound(err) {
		return err
	}
	for name, text := range rewrites {
		if err := store.UpdateFormulaText(ctx, tx, name, text); err != nil {
			return err
		}
	}
	if err := store.RenameNode(ctx, tx, oldname, newname); err != nil {
		return err
	}
	return tx.Commit()
}

// rewriteReferences returns expr with every series reference to
// oldname pointed at newname.
func rewriteReferences(expr lang.Expr, oldname, newname string) lang.Expr {
	call, ok := expr.(*lang.Call)
	if !ok {
		return expr
	}
	out := &lang.Call{Op: call.Op}
	for i, arg := range call.Args {
		if call.Op == "series" && i == 0 {
			if name, ok := arg.(lang.String); ok && string(name) == oldname {
				out.Args = append(out.Args, lang.String(newname))
				continue
			}
		}
		out.Args = append(out.Args, rewriteReferences(arg, oldname, newname))
	}
	for _, kw := range call.Kwargs {
		out.Kwargs = append(out.Kwargs, lang.Kwarg{
			Name: kw.Name, Value: rewriteReferences(kw.Value, oldname, newname),
		})
	}
	return out
}

// Exists reports whether name is a registered formula.
func (e *Engine) Exists(ctx context.Context, name string) (bool, error) {
	_, isFormula, err := e.Formula(ctx, name)
	return isFormula, err
}

// List returns the registered formula nodes, ordered by name.
func (e *Engine) List(ctx context.Context) ([]*store.Node, error) {
	return e.store.ListNodes(ctx, store.KindFormula)
}

// Dependencies lists the nodes a formula directly needs.
func (e *Engine) Dependencies(ctx context.Context, name string) ([]*store.Node, error) {
	return e.tracker.Dependencies(ctx, name)
}

// Dependents lists the formulas directly needing a node.
func (e *Engine) Dependents(ctx context.Context, name string) ([]*store.Node, error) {
	return e.tracker.Dependents(ctx, name)
}

func errNotAFormula(name string) error {
	return fmt.Errorf("`%s` is not a registered formula", name)
}
