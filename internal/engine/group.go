package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/seriesdb/formula/internal/lang"
	"github.com/seriesdb/formula/internal/store"
)

// slotNames collects the placeholder references of a template:
// series names starting with a colon, sorted.
func slotNames(expr lang.Expr) []string {
	seen := map[string]bool{}
	lang.Walk(expr, func(e lang.Expr) {
		call, ok := e.(*lang.Call)
		if !ok || call.Op != "series" || len(call.Args) == 0 {
			return
		}
		if name, ok := call.Args[0].(lang.String); ok && strings.HasPrefix(string(name), ":") {
			seen[string(name)] = true
		}
	})
	slots := make([]string, 0, len(seen))
	for s := range seen {
		slots = append(slots, s)
	}
	sort.Strings(slots)
	return slots
}

// RegisterGroupFormula stores a reusable formula template. Slots
// are series references named with a leading colon, e.g.
// (series ":zone"); the template must have at least one.
func (e *Engine) RegisterGroupFormula(ctx context.Context, name, text string, meta store.Metadata) (int64, error) {
	expr, err := lang.Parse(text)
	if err != nil {
		return 0, err
	}
	canonical := lang.Render(expr)
	if err := typecheck(canonical, expr); err != nil {
		return 0, err
	}
	if len(slotNames(expr)) == 0 {
		return 0, fmt.Errorf("group formula `%s` has no slots", name)
	}
	return e.store.UpsertGroupFormula(ctx, name, canonical, meta)
}

// BindGroupFormula instantiates a template under a series name:
// every slot is substituted with its bound series and the result is
// registered as an ordinary formula, dependency edges included. The
// binding must cover the template's slots exactly.
func (e *Engine) BindGroupFormula(ctx context.Context, name, groupname string, binding store.Binding, opts RegisterOptions) (int64, error) {
	tmpl, err := e.store.GroupFormula(ctx, groupname)
	if err != nil {
		return 0, err
	}
	expr, err := lang.Parse(tmpl.Text)
	if err != nil {
		return 0, err
	}

	slots := slotNames(expr)
	for _, slot := range slots {
		if _, ok := binding[slot]; !ok {
			return 0, fmt.Errorf("binding for `%s` misses slot %s", groupname, slot)
		}
	}
	if len(binding) != len(slots) {
		for bound := range binding {
			if !strings.HasPrefix(bound, ":") || !contains(slots, bound) {
				return 0, fmt.Errorf("binding for `%s` names unknown slot %s", groupname, bound)
			}
		}
	}

	bound := expr
	for slot, target := range binding {
		bound = rewriteReferences(bound, slot, target)
	}
	if _, err := e.Register(ctx, name, lang.Render(bound), opts); err != nil {
		return 0, err
	}
	return e.store.UpsertGroupBinding(ctx, name, groupname, binding, opts.Metadata)
}

func contains(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
