package pipeline

import (
	"context"
	"testing"

	"github.com/rdctools/rdcq/internal/replay"
)

func testPipelineFake() *replay.Fake {
	fake := replay.NewFake()
	fake.Pipelines[7] = &replay.PipelineState{
		Shaders:      map[replay.Stage]uint64{replay.StageVS: 10, replay.StagePS: 20},
		Topology:     "TriangleList",
		Viewport:     replay.Viewport{Width: 1920, Height: 1080, MaxDepth: 1},
		Scissor:      replay.Rect{Width: 1920, Height: 1080},
		Blend:        replay.BlendState{Enabled: true, SrcRGB: "one", DstRGB: "zero"},
		VertexBuffers: []replay.BufferBinding{{ResourceID: 5, Stride: 32, ByteSize: replay.SizeUnknown}},
		IndexBuffer:  &replay.BufferBinding{ResourceID: 6, ByteSize: 1024},
		PushConstants: make([]byte, 16),
	}
	return fake
}

func TestSnapshotSeeksThenReturnsState(t *testing.T) {
	fake := testPipelineFake()
	p, err := New(fake).Snapshot(context.Background(), 7)
	if err != nil {
		t.Fatalf("Snapshot error: %v", err)
	}
	if p.Topology != "TriangleList" {
		t.Errorf("Topology = %q, want TriangleList", p.Topology)
	}
	if fake.Seeks != 1 {
		t.Errorf("Seeks = %d, want 1", fake.Seeks)
	}
}

func TestStageInfoReturnsZeroRowWhenShaderUnbound(t *testing.T) {
	fake := testPipelineFake()
	row, err := New(fake).StageInfo(context.Background(), 7, replay.StageCS)
	if err != nil {
		t.Fatalf("StageInfo error: %v", err)
	}
	if row.ShaderID != 0 || row.EntryPoint != "" {
		t.Errorf("row = %+v, want zero-value for unbound stage", row)
	}
}

func TestStageInfoFillsReflectionFields(t *testing.T) {
	fake := testPipelineFake()
	fake.Reflections[replay.StageVS] = &replay.ShaderReflection{
		EntryPoint: "vsMain", ROBindCount: 2, RWBindCount: 1, CBufferCount: 3,
	}
	row, err := New(fake).StageInfo(context.Background(), 7, replay.StageVS)
	if err != nil {
		t.Fatalf("StageInfo error: %v", err)
	}
	if row.EntryPoint != "vsMain" || row.ROBindCount != 2 || row.RWBindCount != 1 || row.CBufferCount != 3 {
		t.Errorf("row = %+v", row)
	}
}

func TestSectionVBuffersRendersByteSizeSentinel(t *testing.T) {
	fake := testPipelineFake()
	out, err := New(fake).Section(context.Background(), 7, SectionVBuffers)
	if err != nil {
		t.Fatalf("Section error: %v", err)
	}
	rows := out["buffers"].([]map[string]interface{})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want 1", len(rows))
	}
	if rows[0]["byteSize"] != "-" {
		t.Errorf("byteSize = %v, want \"-\" for the UINT64_MAX sentinel", rows[0]["byteSize"])
	}
}

func TestSectionIBufferReportsNoneWhenUnbound(t *testing.T) {
	fake := testPipelineFake()
	fake.Pipelines[7].IndexBuffer = nil
	out, err := New(fake).Section(context.Background(), 7, SectionIBuffer)
	if err != nil {
		t.Fatalf("Section error: %v", err)
	}
	if out["ibuffer"] != "none" {
		t.Errorf("ibuffer = %v, want \"none\"", out["ibuffer"])
	}
}

func TestSectionUnknownNameIsInvalidArgs(t *testing.T) {
	fake := testPipelineFake()
	if _, err := New(fake).Section(context.Background(), 7, "bogus"); err == nil {
		t.Fatal("expected an error for an unknown section name")
	}
}
