package replay

import (
	"context"
	"fmt"
	"os"

	"github.com/rdctools/rdcq/internal/rpcerr"
)

// Fake is an in-memory Adapter for tests, table-backed rather than the
// duck-typed attribute objects of original_source/tests/mocks/mock_renderdoc.py.
// It lets tests construct a small capture by hand and exercise cursor
// discipline, classification, and pipeline-state extraction without an FFI
// binding.
type Fake struct {
	Actions       []*Action
	Resources     []Resource
	Pipelines     map[uint64]*PipelineState // keyed by eid
	Reflections   map[Stage]*ShaderReflection
	DebugMessages []DebugMessage
	Targets       []string
	PostVS        map[uint64]map[int]*BufferBinding // keyed by eid, then stream (1=vs-out, 2=gs-out)

	current    uint64
	hasCurrent bool
	Seeks      int // counts SetFrameEvent calls that actually moved the cursor

	BuiltShaders map[uint64]bool
	nextShaderID uint64
}

func NewFake() *Fake {
	return &Fake{
		Pipelines:    map[uint64]*PipelineState{},
		Reflections:  map[Stage]*ShaderReflection{},
		BuiltShaders: map[uint64]bool{},
		nextShaderID: 1000,
	}
}

func (f *Fake) GetRootActions(ctx context.Context) ([]*Action, error) { return f.Actions, nil }
func (f *Fake) GetResources(ctx context.Context) ([]Resource, error)  { return f.Resources, nil }

func (f *Fake) SetFrameEvent(ctx context.Context, eid uint64) error {
	if f.hasCurrent && f.current == eid {
		return nil // no-op: already there, per spec.md §4.1
	}
	if _, ok := f.Pipelines[eid]; !ok && len(f.Pipelines) > 0 {
		return outOfRange(eid, 0)
	}
	f.current = eid
	f.hasCurrent = true
	f.Seeks++
	return nil
}

func (f *Fake) GetPipelineState(ctx context.Context) (*PipelineState, error) {
	if !f.hasCurrent {
		return nil, rpcerr.New(rpcerr.NoReplay, "no frame event set")
	}
	p, ok := f.Pipelines[f.current]
	if !ok {
		return nil, rpcerr.New(rpcerr.NotFound, "no pipeline state for eid %d", f.current)
	}
	return p, nil
}

func (f *Fake) GetShaderReflection(ctx context.Context, stage Stage) (*ShaderReflection, error) {
	r, ok := f.Reflections[stage]
	if !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no reflection for stage %s", stage)
	}
	return r, nil
}

func (f *Fake) GetDebugMessages(ctx context.Context) ([]DebugMessage, error) {
	return f.DebugMessages, nil
}

func (f *Fake) GetBufferData(ctx context.Context, id uint64, offset, size uint64) ([]byte, error) {
	return make([]byte, size), nil
}

func (f *Fake) GetPostVSBuffer(ctx context.Context, eid uint64, stream int) (*BufferBinding, error) {
	return f.PostVS[eid][stream], nil
}

// SaveTexture writes a placeholder file at path so callers exercising the
// real write-then-stat contract (internal/daemon's *_export/_raw/rt_*
// handlers) see a real file on disk, the way a real FFI export would.
func (f *Fake) SaveTexture(ctx context.Context, spec TextureSpec, path string) error {
	return os.WriteFile(path, []byte("fake texture data"), 0o600)
}

func (f *Fake) DisassembleShader(ctx context.Context, stage Stage, target string) (string, error) {
	id := uint64(0)
	if f.hasCurrent {
		if p, ok := f.Pipelines[f.current]; ok {
			id = p.Shaders[stage]
		}
	}
	return fmt.Sprintf("; disasm for shader %d stage %s\nOpCapability Shader\n", id, stage), nil
}

func (f *Fake) DisassemblyTargets(ctx context.Context) ([]string, error) {
	if len(f.Targets) == 0 {
		return []string{"spirv", "glsl"}, nil
	}
	return f.Targets, nil
}

func (f *Fake) DebugPixel(ctx context.Context, eid uint64, x, y, sample int) (*Trace, error) {
	return &Trace{Stage: StagePS, Steps: []TraceStep{{Step: 0}, {Step: 1}}}, nil
}

func (f *Fake) DebugVertex(ctx context.Context, eid uint64, vtxID uint64, instance int) (*Trace, error) {
	return &Trace{Stage: StageVS, Steps: []TraceStep{{Step: 0}, {Step: 1}}}, nil
}

func (f *Fake) DebugThread(ctx context.Context, eid uint64, gx, gy, gz, tx, ty, tz int) (*Trace, error) {
	p, ok := f.Pipelines[eid]
	if !ok || p.Shaders[StageCS] == 0 {
		return nil, rpcerr.New(rpcerr.DebugNotAvailable, "eid %d is not a dispatch", eid)
	}
	return &Trace{Stage: StageCS, Steps: []TraceStep{{Step: 0}, {Step: 1}}}, nil
}

func (f *Fake) FreeTrace(t *Trace) {}

func (f *Fake) BuildShader(ctx context.Context, stage Stage, source, encoding, entry string) (uint64, error) {
	id := f.nextShaderID
	f.nextShaderID++
	f.BuiltShaders[id] = true
	return id, nil
}

func (f *Fake) ReplaceShader(ctx context.Context, eid uint64, stage Stage, shaderID uint64) error {
	p, ok := f.Pipelines[eid]
	if !ok {
		return rpcerr.New(rpcerr.NotFound, "no eid %d", eid)
	}
	p.Shaders[stage] = shaderID
	return nil
}

func (f *Fake) RestoreShader(ctx context.Context, eid uint64, stage Stage) error { return nil }

func (f *Fake) FreeShader(ctx context.Context, shaderID uint64) error {
	delete(f.BuiltShaders, shaderID)
	return nil
}

func (f *Fake) Shutdown(ctx context.Context) error { return nil }
