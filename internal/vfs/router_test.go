package vfs

import (
	"testing"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/tables"
)

func buildTestTree() *Tree {
	draw := &replay.Action{EventID: 5, Flags: replay.FlagDrawcall, Name: "draw"}
	flat := action.Flatten([]*replay.Action{draw})
	return BuildSkeleton(flat, nil, nil, 2)
}

func TestNormalizeRejectsTraversalAndRelativePaths(t *testing.T) {
	cases := []string{"../etc/passwd", "/draws/../../etc", "draws/5"}
	for _, p := range cases {
		if _, err := Normalize(p); err == nil {
			t.Errorf("Normalize(%q) succeeded, want error", p)
		}
	}
}

func TestNormalizeTrimsTrailingSlash(t *testing.T) {
	got, err := Normalize("/draws/5/")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got != "/draws/5" {
		t.Errorf("Normalize = %q, want /draws/5", got)
	}
}

func TestResolveStaticLeaf(t *testing.T) {
	tree := buildTestTree()
	r, err := tree.Resolve("/draws/5/pipeline/summary")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if r.Kind != KindLeaf || r.Handler != "pipeline_summary" {
		t.Errorf("Resolve = %+v, want leaf pipeline_summary", r)
	}
}

func TestResolveCBufferDynamicPattern(t *testing.T) {
	tree := buildTestTree()
	r, err := tree.Resolve("/draws/5/cbuffer/0/2")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if r.Handler != "cbuffer_decode" {
		t.Errorf("Handler = %q, want cbuffer_decode", r.Handler)
	}
	if r.Args["eid"] != "5" || r.Args["set"] != "0" || r.Args["binding"] != "2" {
		t.Errorf("Args = %+v", r.Args)
	}
}

func TestResolveCurrentAlias(t *testing.T) {
	tree := buildTestTree()
	tree.SetCurrentEID(5)
	r, err := tree.Resolve("/current/pipeline/summary")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if r.Handler != "pipeline_summary" {
		t.Errorf("alias did not resolve to the draw's pipeline summary: %+v", r)
	}
}

func TestResolveUnknownPathIsNotFound(t *testing.T) {
	tree := buildTestTree()
	if _, err := tree.Resolve("/nope"); err == nil {
		t.Error("Resolve(/nope) succeeded, want NotFound error")
	}
}

func TestShaderSubtreeLRUEvictsInLockstep(t *testing.T) {
	flat := []action.Flat{}
	for _, eid := range []uint64{1, 2, 3} {
		flat = append(flat, action.Flat{Action: &replay.Action{EventID: eid, Flags: replay.FlagDrawcall}, Type: action.TypeDraw})
	}
	tree := BuildSkeleton(flat, []tables.Pass{}, nil, 2)

	ps := &replay.PipelineState{Shaders: map[replay.Stage]uint64{replay.StagePS: 99}}
	tree.PopulateShaderSubtree(1, ps)
	tree.PopulateShaderSubtree(2, ps)
	if tree.ReachableSubtrees() != 2 {
		t.Fatalf("ReachableSubtrees = %d, want 2", tree.ReachableSubtrees())
	}

	tree.PopulateShaderSubtree(3, ps) // capacity 2: evicts eid 1 (least recently touched)
	if tree.ReachableSubtrees() != 2 {
		t.Fatalf("ReachableSubtrees after eviction = %d, want 2", tree.ReachableSubtrees())
	}
	if _, err := tree.Resolve("/draws/1/shader/ps/disasm"); err == nil {
		t.Error("evicted subtree still resolves")
	}
	if _, err := tree.Resolve("/draws/3/shader/ps/disasm"); err != nil {
		t.Errorf("newly populated subtree should resolve: %v", err)
	}
}
