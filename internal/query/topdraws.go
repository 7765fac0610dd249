package query

import (
	"sort"

	"github.com/rdctools/rdcq/internal/action"
)

// TopDraw is one row of the spec.md §4.6 top-draws result.
type TopDraw struct {
	EID       uint64
	Marker    string
	Triangles uint64
}

// TopDraws sorts flattened draws by triangle count descending and returns
// the top N (spec.md default N=3).
func TopDraws(flat []action.Flat, n int) []TopDraw {
	var draws []TopDraw
	for _, f := range flat {
		if f.Type != action.TypeDraw && f.Type != action.TypeDrawIndexed {
			continue
		}
		draws = append(draws, TopDraw{
			EID:       f.Action.EventID,
			Marker:    f.ParentMarker,
			Triangles: action.Triangles(f.Action.NumIndices, f.Action.NumInstances),
		})
	}
	sort.SliceStable(draws, func(i, j int) bool { return draws[i].Triangles > draws[j].Triangles })
	if len(draws) > n {
		draws = draws[:n]
	}
	return draws
}
