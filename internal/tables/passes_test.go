package tables

import (
	"testing"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
)

func flatten(roots []*replay.Action) []action.Flat {
	return action.Flatten(roots)
}

func TestBuildPassesSkipsEmptyWindows(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "Empty"},
		{EventID: 2, Flags: replay.FlagEndPass},
		{EventID: 3, Flags: replay.FlagBeginPass, Name: "GBuffer"},
		{EventID: 4, Flags: replay.FlagDrawcall | replay.FlagIndexed, NumIndices: 300, NumInstances: 1},
		{EventID: 5, Flags: replay.FlagEndPass},
	}
	passes := BuildPasses(flatten(roots))
	if len(passes) != 1 {
		t.Fatalf("len(passes) = %d, want 1 (empty window dropped)", len(passes))
	}
	if passes[0].Name != "GBuffer" || passes[0].Draws != 1 {
		t.Errorf("pass = %+v, want GBuffer with 1 draw", passes[0])
	}
}

func TestBuildPassesDisambiguatesDuplicateNames(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "Shadow"},
		{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 3, Flags: replay.FlagEndPass},
		{EventID: 4, Flags: replay.FlagBeginPass, Name: "Shadow"},
		{EventID: 5, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 6, Flags: replay.FlagEndPass},
	}
	passes := BuildPasses(flatten(roots))
	if len(passes) != 2 {
		t.Fatalf("len(passes) = %d, want 2", len(passes))
	}
	if passes[0].Name != "Shadow #1" || passes[1].Name != "Shadow #2" {
		t.Errorf("names = %q, %q, want Shadow #1, Shadow #2", passes[0].Name, passes[1].Name)
	}
	if passes[0].OriginalName != "Shadow" || passes[1].OriginalName != "Shadow" {
		t.Errorf("OriginalName not preserved: %+v %+v", passes[0], passes[1])
	}
}

func TestBuildPassesCountsDrawsDispatchesAndTriangles(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "Main"},
		{EventID: 2, Flags: replay.FlagDrawcall | replay.FlagIndexed, NumIndices: 300, NumInstances: 2},
		{EventID: 3, Flags: replay.FlagDispatch},
		{EventID: 4, Flags: replay.FlagEndPass},
	}
	passes := BuildPasses(flatten(roots))
	if len(passes) != 1 {
		t.Fatalf("len(passes) = %d, want 1", len(passes))
	}
	p := passes[0]
	if p.Draws != 1 || p.Dispatches != 1 {
		t.Errorf("Draws/Dispatches = %d/%d, want 1/1", p.Draws, p.Dispatches)
	}
	if p.Triangles != 200 {
		t.Errorf("Triangles = %d, want 200", p.Triangles)
	}
	if p.BeginEID != 1 || p.EndEID != 4 {
		t.Errorf("window = [%d,%d], want [1,4]", p.BeginEID, p.EndEID)
	}
}

func TestBuildPassesIgnoresUnmatchedEndPass(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagEndPass},
		{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
	}
	passes := BuildPasses(flatten(roots))
	if len(passes) != 0 {
		t.Errorf("passes = %+v, want none", passes)
	}
}

func TestBuildPassesHandlesNestedPasses(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagBeginPass, Name: "Outer"},
		{EventID: 2, Flags: replay.FlagBeginPass, Name: "Inner"},
		{EventID: 3, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 4, Flags: replay.FlagEndPass},
		{EventID: 5, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 6, Flags: replay.FlagEndPass},
	}
	passes := BuildPasses(flatten(roots))
	if len(passes) != 2 {
		t.Fatalf("len(passes) = %d, want 2", len(passes))
	}
	if passes[0].Name != "Inner" || passes[0].Draws != 1 {
		t.Errorf("passes[0] = %+v, want Inner with 1 draw", passes[0])
	}
	if passes[1].Name != "Outer" || passes[1].Draws != 1 {
		t.Errorf("passes[1] = %+v, want Outer with 1 draw (only its own, not Inner's)", passes[1])
	}
}
