package shadercache

import (
	"context"
	"testing"

	"github.com/rdctools/rdcq/internal/replay"
)

func buildTestFake() *replay.Fake {
	fake := replay.NewFake()
	fake.Actions = []*replay.Action{
		{EventID: 1, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		{EventID: 3, Flags: replay.FlagDispatch},
	}
	fake.Pipelines[1] = &replay.PipelineState{Shaders: map[replay.Stage]uint64{replay.StageVS: 10, replay.StagePS: 20}}
	fake.Pipelines[2] = &replay.PipelineState{Shaders: map[replay.Stage]uint64{replay.StageVS: 10, replay.StagePS: 20}}
	fake.Pipelines[3] = &replay.PipelineState{Shaders: map[replay.Stage]uint64{replay.StageCS: 30}}
	fake.Reflections[replay.StageVS] = &replay.ShaderReflection{EntryPoint: "vsMain"}
	fake.Reflections[replay.StagePS] = &replay.ShaderReflection{EntryPoint: "psMain"}
	fake.Reflections[replay.StageCS] = &replay.ShaderReflection{EntryPoint: "csMain"}
	return fake
}

func TestBuildDisassemblesEachDistinctShaderOnce(t *testing.T) {
	fake := buildTestFake()
	c := New(fake)

	if err := c.Build(context.Background(), fake.Actions); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(c.Disasm) != 3 {
		t.Fatalf("len(Disasm) = %d, want 3 (vs=10, ps=20, cs=30)", len(c.Disasm))
	}
	// shaders 10 and 20 are each bound across both draws (eid 1 and 2),
	// so UseCount accumulates per sighting rather than staying at 1
	if c.Disasm[10].UseCount != 2 || c.Disasm[20].UseCount != 2 {
		t.Errorf("UseCount = %d/%d, want 2/2", c.Disasm[10].UseCount, c.Disasm[20].UseCount)
	}
	if c.Disasm[30].UseCount != 1 {
		t.Errorf("CS shader UseCount = %d, want 1", c.Disasm[30].UseCount)
	}
}

func TestBuildIsIdempotentAndIssuesNoExtraSeeksOnSecondCall(t *testing.T) {
	fake := buildTestFake()
	c := New(fake)

	if err := c.Build(context.Background(), fake.Actions); err != nil {
		t.Fatalf("first Build error: %v", err)
	}
	seeksAfterFirst := fake.Seeks
	disasmAfterFirst := len(c.Disasm)

	if err := c.Build(context.Background(), fake.Actions); err != nil {
		t.Fatalf("second Build error: %v", err)
	}
	if fake.Seeks != seeksAfterFirst {
		t.Errorf("Seeks grew from %d to %d on a repeat Build, want no-op", seeksAfterFirst, fake.Seeks)
	}
	if len(c.Disasm) != disasmAfterFirst {
		t.Errorf("len(Disasm) changed from %d to %d on a repeat Build", disasmAfterFirst, len(c.Disasm))
	}
}

func TestBuildRecordsStagesAndFirstEIDPerShader(t *testing.T) {
	fake := buildTestFake()
	c := New(fake)
	if err := c.Build(context.Background(), fake.Actions); err != nil {
		t.Fatalf("Build error: %v", err)
	}

	vs, ok := c.Disasm[10]
	if !ok {
		t.Fatal("no cache entry for shader 10")
	}
	if !vs.Stages[replay.StageVS] {
		t.Errorf("Stages = %v, want VS set", vs.Stages)
	}
	if vs.FirstEID != 1 {
		t.Errorf("FirstEID = %d, want 1 (first draw that bound it)", vs.FirstEID)
	}
	if vs.EntryPoint != "vsMain" {
		t.Errorf("EntryPoint = %q, want vsMain", vs.EntryPoint)
	}
}

func TestBuildSkipsNonDrawDispatchActions(t *testing.T) {
	fake := replay.NewFake()
	fake.Actions = []*replay.Action{
		{EventID: 1, Flags: replay.FlagClear},
		{EventID: 2, Flags: replay.FlagCopy},
	}
	c := New(fake)
	if err := c.Build(context.Background(), fake.Actions); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if len(c.Disasm) != 0 {
		t.Errorf("Disasm = %+v, want none", c.Disasm)
	}
	if fake.Seeks != 0 {
		t.Errorf("Seeks = %d, want 0 (no draws/dispatches to visit)", fake.Seeks)
	}
}
