package query

import (
	"context"
	"testing"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/tables"
)

func TestStatsTotalsClassifyByType(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "Main"},
		{EventID: 2, Flags: replay.FlagDrawcall | replay.FlagIndexed, NumIndices: 3, NumInstances: 1},
		{EventID: 3, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 4, Flags: replay.FlagDispatch},
		{EventID: 5, Flags: replay.FlagClear},
		{EventID: 6, Flags: replay.FlagCopy},
		{EventID: 7, Flags: replay.FlagEndPass},
	}
	flat := action.Flatten(roots)
	passes := tables.BuildPasses(flat)

	fake := replay.NewFake()
	fake.Pipelines[2] = &replay.PipelineState{Shaders: map[replay.Stage]uint64{}}

	svc := New(fake)
	totals, rows, err := svc.Stats(context.Background(), flat, passes, 2)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if totals.TotalDraws != 2 || totals.Indexed != 1 || totals.NonIndexed != 1 {
		t.Errorf("totals = %+v, want 2 total, 1 indexed, 1 non-indexed", totals)
	}
	if totals.Dispatches != 1 || totals.Clears != 1 || totals.Copies != 1 {
		t.Errorf("totals = %+v", totals)
	}
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
}

func TestStatsRestoresCursorAfterEnrichment(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "First"},
		{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 3, Flags: replay.FlagEndPass},
		{EventID: 4, Flags: replay.FlagBeginPass, Name: "Second"},
		{EventID: 5, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 6, Flags: replay.FlagEndPass},
	}
	flat := action.Flatten(roots)
	passes := tables.BuildPasses(flat)

	fake := replay.NewFake()
	fake.Pipelines[2] = &replay.PipelineState{
		Shaders:      map[replay.Stage]uint64{},
		ColorTargets: []uint64{7, 0},
		DepthTarget:  9,
		RTWidth:      1920,
		RTHeight:     1080,
	}
	fake.Pipelines[5] = &replay.PipelineState{Shaders: map[replay.Stage]uint64{}}

	// the user's cursor sits on the second pass's draw before Stats runs
	if err := fake.SetFrameEvent(context.Background(), 5); err != nil {
		t.Fatalf("seed SetFrameEvent: %v", err)
	}

	_, rows, err := New(fake).Stats(context.Background(), flat, passes, 5)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].RTWidth != 1920 || rows[0].RTHeight != 1080 {
		t.Errorf("row = %+v, want 1920x1080", rows[0])
	}
	if rows[0].Attachments != 2 {
		t.Errorf("Attachments = %d, want 2 (one color + depth)", rows[0].Attachments)
	}

	p, err := fake.GetPipelineState(context.Background())
	if err != nil {
		t.Fatalf("GetPipelineState after Stats: %v", err)
	}
	if p.RTWidth != 0 {
		t.Errorf("cursor left on eid 2 (RTWidth=%d), want restored to eid 5", p.RTWidth)
	}
}
