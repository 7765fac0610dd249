package diff

import (
	"context"
	"encoding/json"

	"github.com/rdctools/rdcq/internal/diff/align"
)

// decodeInto re-marshals a generic JSON-RPC result and decodes it into a
// concrete struct, since call() hands back interface{} (the wire value
// after its own json.Unmarshal into Response.Result).
func decodeInto(v interface{}, out interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

type drawRow struct {
	EID       uint64 `json:"eid"`
	Type      string `json:"type"`
	Triangles uint64 `json:"triangles"`
	Instances uint64 `json:"instances"`
	Marker    string `json:"marker"`
	Shader    uint64 `json:"shader"`
	Topology  string `json:"topology"`
}

type drawsResult struct {
	Draws []drawRow `json:"draws"`
}

func fetchDraws(ctx context.Context, p *daemonProc) ([]align.Draw, error) {
	raw, err := call(ctx, p, "draws", map[string]interface{}{})
	if err != nil {
		return nil, err
	}
	var res drawsResult
	if err := decodeInto(raw, &res); err != nil {
		return nil, err
	}
	out := make([]align.Draw, len(res.Draws))
	for i, r := range res.Draws {
		out[i] = align.Draw{
			EID: r.EID, Marker: r.Marker, DrawType: r.Type,
			ShaderHash: r.Shader, Topology: r.Topology,
			Triangles: r.Triangles, Instances: r.Instances,
		}
	}
	return out, nil
}

// DrawStatus is the per-pair classification of spec.md §4.9 "Diff
// classification".
type DrawStatus string

const (
	StatusEqual    DrawStatus = "EQUAL"
	StatusModified DrawStatus = "MODIFIED"
	StatusAdded    DrawStatus = "ADDED"
	StatusDeleted  DrawStatus = "DELETED"
)

// DrawDiffRow is one row of the draw-sequence diff: an aligned pair plus
// its classification.
type DrawDiffRow struct {
	AEID       *uint64    `json:"a_eid,omitempty"`
	BEID       *uint64    `json:"b_eid,omitempty"`
	Status     DrawStatus `json:"status"`
	Confidence string     `json:"confidence"`
}

// DrawDiff fetches both sides' draw sequences, aligns them, and classifies
// every aligned pair (spec.md §4.9 "Alignment of draw sequences" and
// "Diff classification"). It preloads both daemons' shader caches first
// so the medium-confidence fallback key (type/shader/topology) has real
// data to key on whenever neither side's draws carry marker paths.
func (o *Orchestrator) DrawDiff(ctx context.Context) ([]DrawDiffRow, error) {
	o.QueryBoth(ctx, "shaders_preload", map[string]interface{}{})

	a, err := fetchDraws(ctx, o.a)
	if err != nil {
		return nil, err
	}
	b, err := fetchDraws(ctx, o.b)
	if err != nil {
		return nil, err
	}

	pairs, conf := align.Align(a, b)
	rows := make([]DrawDiffRow, 0, len(pairs))
	for _, pr := range pairs {
		rows = append(rows, classify(pr, conf))
	}
	return rows, nil
}

func classify(pr align.Pair, conf align.Confidence) DrawDiffRow {
	row := DrawDiffRow{Confidence: string(conf)}
	switch {
	case pr.A == nil:
		row.Status = StatusAdded
		b := pr.B.EID
		row.BEID = &b
	case pr.B == nil:
		row.Status = StatusDeleted
		a := pr.A.EID
		row.AEID = &a
	default:
		a, b := pr.A.EID, pr.B.EID
		row.AEID, row.BEID = &a, &b
		if pr.A.DrawType == pr.B.DrawType && pr.A.Triangles == pr.B.Triangles && pr.A.Instances == pr.B.Instances {
			row.Status = StatusEqual
		} else {
			row.Status = StatusModified
		}
	}
	return row
}
