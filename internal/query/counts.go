package query

import (
	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/shadercache"
	"github.com/rdctools/rdcq/internal/tables"
)

// Count computes `count <what> [pass?]` (spec.md §4.6). Unknown target is
// InvalidArgs.
func Count(what string, pass string, flat []action.Flat, passes []tables.Pass, resources []tables.ResourceRow, cache *shadercache.Cache) (uint64, error) {
	inPass := func(eid uint64) bool {
		if pass == "" {
			return true
		}
		for _, p := range passes {
			if p.Name == pass {
				return eid >= p.BeginEID && eid <= p.EndEID
			}
		}
		return false
	}

	switch what {
	case "events":
		var n uint64
		for _, f := range flat {
			if inPass(f.Action.EventID) {
				n++
			}
		}
		return n, nil
	case "draws":
		var n uint64
		for _, f := range flat {
			if (f.Type == action.TypeDraw || f.Type == action.TypeDrawIndexed) && inPass(f.Action.EventID) {
				n++
			}
		}
		return n, nil
	case "dispatches":
		var n uint64
		for _, f := range flat {
			if f.Type == action.TypeDispatch && inPass(f.Action.EventID) {
				n++
			}
		}
		return n, nil
	case "clears":
		var n uint64
		for _, f := range flat {
			if f.Type == action.TypeClear && inPass(f.Action.EventID) {
				n++
			}
		}
		return n, nil
	case "triangles":
		var n uint64
		for _, f := range flat {
			if (f.Type == action.TypeDraw || f.Type == action.TypeDrawIndexed) && inPass(f.Action.EventID) {
				n += action.Triangles(f.Action.NumIndices, f.Action.NumInstances)
			}
		}
		return n, nil
	case "passes":
		return uint64(len(passes)), nil
	case "resources":
		return uint64(len(resources)), nil
	case "shaders":
		return uint64(len(cache.Disasm)), nil
	default:
		return 0, rpcerr.New(rpcerr.InvalidArgs, "unknown count target %q", what)
	}
}
