// Package query implements the derived analyses of spec.md §4.6: stats,
// top-draws, shader map, pass-dependency DAG, search, and counts.
package query

import (
	"context"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/tables"
)

// Totals is the flat-pass aggregate of spec.md §4.6.
type Totals struct {
	TotalDraws  int
	Indexed     int
	NonIndexed  int
	Dispatches  int
	Clears      int
	Copies      int
}

// PassStat is one per-pass stats row.
type PassStat struct {
	Name        string
	Draws       int
	Dispatches  int
	Triangles   uint64
	RTWidth     uint32
	RTHeight    uint32
	Attachments int
}

// Service computes derived queries against a flattened action sequence,
// the pass table, and the replay adapter (for RT-dimension enrichment,
// which must restore the user's cursor before returning).
type Service struct {
	Adapter replay.Adapter
}

func New(a replay.Adapter) *Service { return &Service{Adapter: a} }

// Stats computes totals and per-pass rows. currentEID is the user's
// cursor before this call; RT-dimension enrichment seeks away from it
// and must restore it before returning (spec.md §4.6, concurrency §5).
func (s *Service) Stats(ctx context.Context, flat []action.Flat, passes []tables.Pass, currentEID uint64) (Totals, []PassStat, error) {
	var t Totals
	for _, f := range flat {
		switch f.Type {
		case action.TypeDrawIndexed:
			t.TotalDraws++
			t.Indexed++
		case action.TypeDraw:
			t.TotalDraws++
			t.NonIndexed++
		case action.TypeDispatch:
			t.Dispatches++
		case action.TypeClear:
			t.Clears++
		case action.TypeCopy:
			t.Copies++
		}
	}

	rows := make([]PassStat, 0, len(passes))
	for _, p := range passes {
		row := PassStat{Name: p.Name, Draws: p.Draws, Dispatches: p.Dispatches, Triangles: p.Triangles}
		if repEID, ok := representativeDraw(flat, p); ok {
			if err := s.Adapter.SetFrameEvent(ctx, repEID); err != nil {
				return t, nil, err
			}
			ps, err := s.Adapter.GetPipelineState(ctx)
			if err == nil {
				row.RTWidth = ps.RTWidth
				row.RTHeight = ps.RTHeight
				row.Attachments = attachmentCount(ps)
			}
		}
		rows = append(rows, row)
	}

	// restore cursor per the concurrency model's invariant
	if err := s.Adapter.SetFrameEvent(ctx, currentEID); err != nil {
		return t, nil, err
	}
	return t, rows, nil
}

func representativeDraw(flat []action.Flat, p tables.Pass) (uint64, bool) {
	for _, f := range flat {
		if f.Action.EventID < p.BeginEID || f.Action.EventID > p.EndEID {
			continue
		}
		if f.Type == action.TypeDraw || f.Type == action.TypeDrawIndexed || f.Type == action.TypeDispatch {
			return f.Action.EventID, true
		}
	}
	return 0, false
}

func attachmentCount(p *replay.PipelineState) int {
	n := 0
	for _, c := range p.ColorTargets {
		if c != 0 {
			n++
		}
	}
	if p.DepthTarget != 0 {
		n++
	}
	return n
}
