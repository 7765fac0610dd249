package diff

import (
	"context"
	"strings"
)

// resourceRow mirrors the "rows" entries of the "resources" RPC.
type resourceRow struct {
	ID   uint64 `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type resourcesResult struct {
	Rows []resourceRow `json:"rows"`
}

func fetchResources(ctx context.Context, p *daemonProc) ([]resourceRow, error) {
	raw, err := call(ctx, p, "resources", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var res resourcesResult
	if err := decodeInto(raw, &res); err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// ResourceDiffRow is one matched (or unmatched) resource pair (spec.md
// §4.9 "Resource diff").
type ResourceDiffRow struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	AID        *uint64 `json:"a_id,omitempty"`
	BID        *uint64 `json:"b_id,omitempty"`
	Confidence string  `json:"confidence"`
}

// ResourceDiff matches named resources case-insensitively (first
// occurrence of a given name wins; duplicates fall into the unnamed,
// positional-per-type bucket) and matches whatever remains positionally
// within its type, at low confidence (spec.md §4.9 "Resource diff").
func (o *Orchestrator) ResourceDiff(ctx context.Context) ([]ResourceDiffRow, error) {
	a, err := fetchResources(ctx, o.a)
	if err != nil {
		return nil, err
	}
	b, err := fetchResources(ctx, o.b)
	if err != nil {
		return nil, err
	}

	namedA, unnamedA := splitNamed(a)
	namedB, unnamedB := splitNamed(b)

	var rows []ResourceDiffRow
	matchedB := map[string]bool{}
	for key, ra := range namedA {
		rb, ok := namedB[key]
		row := ResourceDiffRow{Name: ra.Name, Type: ra.Type, Confidence: "high"}
		aid := ra.ID
		row.AID = &aid
		if ok {
			bid := rb.ID
			row.BID = &bid
			matchedB[key] = true
			if ra.Type != rb.Type {
				row.Type = ra.Type + "/" + rb.Type
			}
		}
		rows = append(rows, row)
	}
	for key, rb := range namedB {
		if matchedB[key] {
			continue
		}
		bid := rb.ID
		rows = append(rows, ResourceDiffRow{Name: rb.Name, Type: rb.Type, BID: &bid, Confidence: "high"})
	}

	rows = append(rows, positionalMatch(unnamedA, unnamedB)...)
	return rows, nil
}

// splitNamed buckets rows by case-insensitive display name, with any
// name collision after the first occurrence demoted into the unnamed,
// positional-matching bucket (spec.md §4.9: "collisions: first occurrence
// wins; remainder fall into unnamed bucket").
func splitNamed(rows []resourceRow) (map[string]resourceRow, []resourceRow) {
	named := map[string]resourceRow{}
	var unnamed []resourceRow
	for _, r := range rows {
		if r.Name == "" {
			unnamed = append(unnamed, r)
			continue
		}
		key := strings.ToLower(r.Name)
		if _, dup := named[key]; dup {
			unnamed = append(unnamed, r)
			continue
		}
		named[key] = r
	}
	return named, unnamed
}

// positionalMatch pairs unnamed resources by type in encounter order,
// at low confidence (spec.md §4.9).
func positionalMatch(a, b []resourceRow) []ResourceDiffRow {
	byTypeA := map[string][]resourceRow{}
	for _, r := range a {
		byTypeA[r.Type] = append(byTypeA[r.Type], r)
	}
	byTypeB := map[string][]resourceRow{}
	for _, r := range b {
		byTypeB[r.Type] = append(byTypeB[r.Type], r)
	}

	var rows []ResourceDiffRow
	seenType := map[string]bool{}
	allTypes := func(rs []resourceRow) []string {
		var out []string
		for _, r := range rs {
			if !seenType[r.Type] {
				seenType[r.Type] = true
				out = append(out, r.Type)
			}
		}
		return out
	}
	for _, t := range append(allTypes(a), allTypes(b)...) {
		as, bs := byTypeA[t], byTypeB[t]
		n := len(as)
		if len(bs) > n {
			n = len(bs)
		}
		for i := 0; i < n; i++ {
			row := ResourceDiffRow{Type: t, Confidence: "low"}
			if i < len(as) {
				id := as[i].ID
				row.AID = &id
			}
			if i < len(bs) {
				id := bs[i].ID
				row.BID = &id
			}
			rows = append(rows, row)
		}
	}
	return rows
}
