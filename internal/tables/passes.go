// Package tables derives the pass list and resource table from the
// flattened action sequence and the adapter's resource list (spec.md §4.3).
package tables

import (
	"fmt"

	"github.com/rdctools/rdcq/internal/action"
)

// Pass is a derived, read-only entity (spec.md §3).
type Pass struct {
	Name         string // friendly, disambiguated
	OriginalName string
	BeginEID     uint64
	EndEID       uint64
	Draws        int
	Dispatches   int
	Triangles    uint64
}

// BuildPasses walks the flattened top-level actions, opening a window on
// BeginPass and closing it on the matching EndPass; a window emits a pass
// only if it contains >=1 draw/dispatch/mesh-draw (spec.md §4.3).
// Identically-named passes get " #1", " #2"... suffixes.
func BuildPasses(flat []action.Flat) []Pass {
	type window struct {
		name           string
		begin          uint64
		draws, dispatch int
		triangles      uint64
		hasWork        bool
		end            uint64
	}
	var stack []*window
	var emitted []Pass

	for _, f := range flat {
		switch f.Type {
		case action.TypeBeginPass:
			stack = append(stack, &window{name: f.Action.Name, begin: f.Action.EventID})
			continue
		case action.TypeEndPass:
			if len(stack) == 0 {
				continue
			}
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			w.end = f.Action.EventID
			if w.hasWork {
				emitted = append(emitted, Pass{
					Name: w.name, OriginalName: w.name,
					BeginEID: w.begin, EndEID: w.end,
					Draws: w.draws, Dispatches: w.dispatch, Triangles: w.triangles,
				})
			}
			continue
		}
		if len(stack) == 0 {
			continue
		}
		w := stack[len(stack)-1]
		switch f.Type {
		case action.TypeDraw, action.TypeDrawIndexed:
			w.hasWork = true
			w.draws++
			w.triangles += action.Triangles(f.Action.NumIndices, f.Action.NumInstances)
		case action.TypeDispatch:
			w.hasWork = true
			w.dispatch++
		}
	}

	disambiguate(emitted)
	return emitted
}

// disambiguate appends " #1", " #2"... to passes sharing an original name,
// mutating emitted in place, and recording the friendly<->original map.
func disambiguate(passes []Pass) {
	counts := map[string]int{}
	totals := map[string]int{}
	for _, p := range passes {
		totals[p.OriginalName]++
	}
	for i := range passes {
		name := passes[i].OriginalName
		if totals[name] <= 1 {
			continue
		}
		counts[name]++
		passes[i].Name = fmt.Sprintf("%s #%d", name, counts[name])
	}
}
