package deps

import (
	"sort"

	"github.com/seriesdb/formula/internal/lang"
)

// ExtractReferences collects the names referenced by series calls
// anywhere in the expression, deduplicated and sorted. Calls whose
// first argument is not a string literal contribute nothing.
func ExtractReferences(expr lang.Expr) []string {
	seen := map[string]bool{}
	lang.Walk(expr, func(e lang.Expr) {
		call, ok := e.(*lang.Call)
		if !ok || call.Op != "series" || len(call.Args) == 0 {
			return
		}
		if name, ok := call.Args[0].(lang.String); ok {
			seen[string(name)] = true
		}
	})
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
