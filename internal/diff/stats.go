package diff

import (
	"context"
	"fmt"
	"strings"
)

// passStatRow mirrors one row of the "stats" RPC's per-pass rows
// (query.PassStat serializes with its bare Go field names, no json tags).
type passStatRow struct {
	Name       string
	Draws      int
	Dispatches int
	Triangles  uint64
	RTWidth    uint32
	RTHeight   uint32
}

type statsResult struct {
	Passes []passStatRow `json:"per_pass"`
}

func fetchStats(ctx context.Context, p *daemonProc) ([]passStatRow, error) {
	raw, err := call(ctx, p, "stats", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var res statsResult
	if err := decodeInto(raw, &res); err != nil {
		return nil, err
	}
	return res.Passes, nil
}

// StatsDiffRow is one matched (or unmatched) pass's stats delta (spec.md
// §4.9 "Stats diff").
type StatsDiffRow struct {
	Name           string `json:"name"`
	DrawsDelta     string `json:"draws_delta"`
	DispatchDelta  string `json:"dispatches_delta"`
	TrianglesDelta string `json:"triangles_delta"`
}

// StatsDiff matches pass rows by trimmed, case-insensitive name and
// formats deltas with an explicit sign; a missing side renders "-" for
// every delta (spec.md §4.9 "Stats diff").
func (o *Orchestrator) StatsDiff(ctx context.Context) ([]StatsDiffRow, error) {
	a, err := fetchStats(ctx, o.a)
	if err != nil {
		return nil, err
	}
	b, err := fetchStats(ctx, o.b)
	if err != nil {
		return nil, err
	}

	byNameB := map[string]passStatRow{}
	for _, r := range b {
		byNameB[normalizeName(r.Name)] = r
	}
	matchedB := map[string]bool{}

	var rows []StatsDiffRow
	for _, ra := range a {
		key := normalizeName(ra.Name)
		rb, ok := byNameB[key]
		if !ok {
			rows = append(rows, StatsDiffRow{
				Name: ra.Name, DrawsDelta: "-", DispatchDelta: "-", TrianglesDelta: "-",
			})
			continue
		}
		matchedB[key] = true
		rows = append(rows, StatsDiffRow{
			Name:           ra.Name,
			DrawsDelta:     signedInt(rb.Draws - ra.Draws),
			DispatchDelta:  signedInt(rb.Dispatches - ra.Dispatches),
			TrianglesDelta: signedUint(rb.Triangles, ra.Triangles),
		})
	}
	for _, rb := range b {
		if matchedB[normalizeName(rb.Name)] {
			continue
		}
		rows = append(rows, StatsDiffRow{
			Name: rb.Name, DrawsDelta: "-", DispatchDelta: "-", TrianglesDelta: "-",
		})
	}
	return rows, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// signedInt renders a delta with an explicit sign, except zero which
// renders bare (spec.md §4.9: `"+5"`, `"-5"`, `"0"`).
func signedInt(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("+%d", delta)
	case delta < 0:
		return fmt.Sprintf("%d", delta)
	default:
		return "0"
	}
}

func signedUint(b, a uint64) string {
	if b >= a {
		return signedInt(int(b - a))
	}
	return fmt.Sprintf("-%d", a-b)
}
