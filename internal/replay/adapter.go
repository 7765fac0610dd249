// Package replay encapsulates the opaque RenderDoc replay capability
// behind a narrow interface (spec.md §4.1), so that every other package
// depends on Adapter rather than on the FFI binding directly. This is
// the capability abstraction called for in spec.md's DESIGN NOTES in
// place of the original's duck-typed attribute access over FFI handles.
package replay

import (
	"context"

	"github.com/pkg/errors"

	"github.com/rdctools/rdcq/internal/rpcerr"
)

// Stage is one of the six graphics/compute shader stages (spec.md §3).
type Stage string

const (
	StageVS Stage = "vs"
	StageHS Stage = "hs"
	StageDS Stage = "ds"
	StageGS Stage = "gs"
	StagePS Stage = "ps"
	StageCS Stage = "cs"
)

var Stages = []Stage{StageVS, StageHS, StageDS, StageGS, StagePS, StageCS}

// ActionFlags is the bitfield classifying an action (spec.md §4.2).
type ActionFlags uint32

const (
	FlagDrawcall ActionFlags = 1 << iota
	FlagIndexed
	FlagDispatch
	FlagMeshDispatch
	FlagClear
	FlagCopy
	FlagPassBoundary
	FlagBeginPass
	FlagEndPass
	FlagMeshDraw
	FlagSetMarker
)

// Action is a node in the captured command-stream tree (spec.md §3).
type Action struct {
	EventID      uint64
	Flags        ActionFlags
	Name         string
	NumIndices   uint64
	NumInstances uint64
	Children     []*Action
	Parent       *Action
	APIEvents    []int // chunk indices into the structured file
}

// Resource is a GPU object referenced by opaque id (spec.md §3).
type Resource struct {
	ID          uint64
	TypeName    string
	DisplayName string
}

// ShaderReflection holds the subset of shader reflection metadata every
// handler needs; absent blocks are nil/zero, never a duck-typed getattr.
type ShaderReflection struct {
	EntryPoint      string
	Inputs          int
	Outputs         int
	ROBindCount     int
	RWBindCount     int
	CBufferCount    int
	ConstantBlocks  []ConstantBlock
	ResourceBinds   []ResourceBind
}

type ConstantBlock struct {
	Set       int
	Binding   int
	Name      string
	Variables []Variable
}

// Variable is a (possibly nested) reflected shader constant.
type Variable struct {
	Name     string
	Rows     int
	Cols     int
	Members  []Variable
	IsFloat  bool
	IsSigned bool
}

type ResourceBind struct {
	Kind string // "ro", "rw", "sampler", "cbuffer"
	Set  int
	Slot int
	Name string
}

// PipelineState is a per-EID snapshot handle (spec.md §3). Only the
// current cursor's state is coherent; callers must not cache it across a
// SetFrameEvent.
type PipelineState struct {
	EID     uint64
	Shaders map[Stage]uint64 // shader resource id per stage, 0 = unbound

	Topology      string
	Viewport      Viewport
	Scissor       Rect
	Blend         BlendState
	Stencil       StencilState
	Rasterizer    RasterizerState
	DepthStencil  DepthStencilState
	MSAA          MSAAState
	VertexInputs  []VertexAttribute
	VertexBuffers []BufferBinding
	IndexBuffer   *BufferBinding
	Samplers      []ResourceBind
	PushConstants []byte
	ColorTargets  []uint64 // resource ids, 0 = unbound
	DepthTarget   uint64
	RTWidth       uint32
	RTHeight      uint32
}

type Viewport struct{ X, Y, Width, Height, MinDepth, MaxDepth float64 }
type Rect struct{ X, Y, Width, Height int }
type BlendState struct {
	Enabled bool
	SrcRGB  string
	DstRGB  string
	OpRGB   string
}
type StencilState struct {
	Enabled  bool
	Ref      uint32
	ReadMask uint32
}
type RasterizerState struct {
	FillMode string
	CullMode string
}
type DepthStencilState struct {
	DepthEnable bool
	DepthFunc   string
}
type MSAAState struct {
	SampleCount uint32
}
type VertexAttribute struct {
	Name        string
	Components  int
	ByteWidth   int
	Format      string // "f32", "f16", "u8n"
	BufferIndex int
	Offset      uint64
}
type BufferBinding struct {
	ResourceID uint64
	Stride     uint64
	Offset     uint64
	ByteSize   uint64 // spec sentinel UINT64_MAX renders as "-"
}

// SizeUnknown is the UINT64_MAX sentinel of spec.md §4.4.
const SizeUnknown = ^uint64(0)

type DebugMessage struct {
	Severity string // HIGH, MEDIUM, LOW, INFO, or UNKNOWN
	EventID  uint64
	Message  string
}

type TextureSpec struct {
	ResourceID uint64
	Mip        int
	Slice      int
	Sample     int
	Overlay    string // "" for a plain export, else a debug overlay name (e.g. "wireframe", "depth")
}

// TraceStep is one step of a shader debug trace (spec.md §4.11).
type TraceStep struct {
	Step        int
	Instruction int
	File        string
	Line        int
	Changes     []VarChange
}

type VarChange struct {
	Name   string
	Type   string
	Rows   int
	Cols   int
	Before []float64
	After  []float64
}

// Trace is a live debug trace; its Stage must be read before Free is
// called, because Free invalidates the underlying FFI handle.
type Trace struct {
	Stage Stage
	Steps []TraceStep
}

// Adapter is the narrow capability surface over the replay controller
// (spec.md §4.1). Every method operates against the adapter's current
// cursor. SetFrameEvent must be a no-op when already at that eid.
type Adapter interface {
	GetRootActions(ctx context.Context) ([]*Action, error)
	GetResources(ctx context.Context) ([]Resource, error)
	SetFrameEvent(ctx context.Context, eid uint64) error
	GetPipelineState(ctx context.Context) (*PipelineState, error)
	GetShaderReflection(ctx context.Context, stage Stage) (*ShaderReflection, error)
	GetDebugMessages(ctx context.Context) ([]DebugMessage, error)
	GetBufferData(ctx context.Context, id uint64, offset, size uint64) ([]byte, error)
	// GetPostVSBuffer returns the tightly-packed post-transform buffer for
	// the given stream (1 = vs-out, 2 = gs-out), or nil if that stream was
	// never captured for eid (e.g. no geometry shader bound for stream 2).
	GetPostVSBuffer(ctx context.Context, eid uint64, stream int) (*BufferBinding, error)
	SaveTexture(ctx context.Context, spec TextureSpec, path string) error
	DisassembleShader(ctx context.Context, stage Stage, target string) (string, error)
	DisassemblyTargets(ctx context.Context) ([]string, error)

	DebugPixel(ctx context.Context, eid uint64, x, y, sample int) (*Trace, error)
	DebugVertex(ctx context.Context, eid uint64, vtxID uint64, instance int) (*Trace, error)
	DebugThread(ctx context.Context, eid uint64, gx, gy, gz, tx, ty, tz int) (*Trace, error)
	FreeTrace(t *Trace)

	BuildShader(ctx context.Context, stage Stage, source, encoding, entry string) (uint64, error)
	ReplaceShader(ctx context.Context, eid uint64, stage Stage, shaderID uint64) error
	RestoreShader(ctx context.Context, eid uint64, stage Stage) error
	FreeShader(ctx context.Context, shaderID uint64) error

	Shutdown(ctx context.Context) error
}

// outOfRange builds the OutOfRange error SetFrameEvent implementations
// return for an eid outside [0,max].
func outOfRange(eid uint64, max uint64) error {
	return rpcerr.New(rpcerr.OutOfRange, "frame event %d out of range [0,%d]", eid, max)
}

// WrapInternal preserves an FFI error's description as an Internal kind,
// per spec.md §4.1's failure contract.
func WrapInternal(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rpcerr.Wrap(rpcerr.Internal, errors.Cause(err), format, args...)
}
