package query

import (
	"sort"

	"github.com/rdctools/rdcq/internal/tables"
)

// Usage is one (eid, usage-kind) entry in a resource's ordered usage
// history (spec.md §4.6).
type Usage struct {
	EID  uint64
	Kind string
}

// Writes / Reads classify usage kinds per spec.md §4.6 step 1.
var writeKinds = map[string]bool{
	"ColorTarget": true, "DepthStencilTarget": true, "CS_RWResource": true,
	"Clear": true, "CopyDst": true, "GenMips": true, "ResolveDst": true,
}
var readKinds = map[string]bool{
	"PS_Resource": true, "CS_Resource": true, "VertexBuffer": true,
	"IndexBuffer": true, "CopySrc": true, "ResolveSrc": true,
}

// Edge is one pass-dependency edge (spec.md §4.6 output).
type Edge struct {
	Src       string
	Dst       string
	Resources []uint64
}

// PassDeps computes the pass-dependency DAG from the pass list and a
// per-resource ordered usage map. Resource id 0 is always excluded
// (invariant 8); self-loops are suppressed (invariant 7); events outside
// any pass window are ignored.
func PassDeps(passes []tables.Pass, usageByResource map[uint64][]Usage) []Edge {
	type edgeKey struct{ src, dst string }
	order := []edgeKey{}
	resourcesByEdge := map[edgeKey][]uint64{}
	seenByEdge := map[edgeKey]map[uint64]bool{}

	for resourceID, usages := range usageByResource {
		if resourceID == tables.NullResourceID {
			continue
		}
		sorted := append([]Usage(nil), usages...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EID < sorted[j].EID })

		var lastWriterPass string
		haveWriter := false
		for _, u := range sorted {
			pass, ok := passForEID(passes, u.EID)
			if !ok {
				continue // outside any pass window
			}
			switch {
			case writeKinds[u.Kind]:
				lastWriterPass = pass
				haveWriter = true
			case readKinds[u.Kind]:
				if !haveWriter || lastWriterPass == pass {
					continue // no writer yet, or self-loop
				}
				key := edgeKey{src: lastWriterPass, dst: pass}
				if seenByEdge[key] == nil {
					seenByEdge[key] = map[uint64]bool{}
					order = append(order, key)
				}
				if !seenByEdge[key][resourceID] {
					seenByEdge[key][resourceID] = true
					resourcesByEdge[key] = append(resourcesByEdge[key], resourceID)
				}
			}
		}
	}

	edges := make([]Edge, 0, len(order))
	for _, k := range order {
		edges = append(edges, Edge{Src: k.src, Dst: k.dst, Resources: resourcesByEdge[k]})
	}
	return edges
}

func passForEID(passes []tables.Pass, eid uint64) (string, bool) {
	for _, p := range passes {
		if eid >= p.BeginEID && eid <= p.EndEID {
			return p.Name, true
		}
	}
	return "", false
}
