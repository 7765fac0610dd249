// Package pipeline produces the structured pipeline-state views of
// spec.md §4.4: thirteen named sections plus bindings, constant-buffer,
// vertex/index-buffer, and post-VS decode.
package pipeline

import (
	"context"
	"fmt"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

// Section names, fixed per spec.md §4.7's VFS grammar and §6's method table.
const (
	SectionTopology      = "topology"
	SectionViewport      = "viewport"
	SectionScissor       = "scissor"
	SectionBlend         = "blend"
	SectionStencil       = "stencil"
	SectionVInputs       = "vinputs"
	SectionSamplers      = "samplers"
	SectionVBuffers      = "vbuffers"
	SectionIBuffer       = "ibuffer"
	SectionPushConstants = "push_constants"
	SectionRasterizer    = "rasterizer"
	SectionDepthStencil  = "depth_stencil"
	SectionMSAA          = "msaa"
)

var AllSections = []string{
	SectionTopology, SectionViewport, SectionScissor, SectionBlend, SectionStencil,
	SectionVInputs, SectionSamplers, SectionVBuffers, SectionIBuffer,
	SectionPushConstants, SectionRasterizer, SectionDepthStencil, SectionMSAA,
}

// Service seeks the cursor and extracts pipeline-state sections. Every
// method seeks first, per spec.md §4.4.
type Service struct {
	Adapter replay.Adapter
}

func New(a replay.Adapter) *Service { return &Service{Adapter: a} }

// Snapshot seeks to eid and returns the full pipeline-state handle.
func (s *Service) Snapshot(ctx context.Context, eid uint64) (*replay.PipelineState, error) {
	if err := s.Adapter.SetFrameEvent(ctx, eid); err != nil {
		return nil, err
	}
	p, err := s.Adapter.GetPipelineState(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// StageRow is the shader-identity row of spec.md §4.4.
type StageRow struct {
	Stage         replay.Stage
	ShaderID      uint64
	EntryPoint    string
	ROBindCount   int
	RWBindCount   int
	CBufferCount  int
}

// StageInfo produces the per-stage shader-identity row. Reflection counts
// are 0 when reflection is absent, never an error.
func (s *Service) StageInfo(ctx context.Context, eid uint64, stage replay.Stage) (*StageRow, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	row := &StageRow{Stage: stage, ShaderID: p.Shaders[stage]}
	if row.ShaderID == 0 {
		return row, nil
	}
	refl, err := s.Adapter.GetShaderReflection(ctx, stage)
	if err != nil {
		if e, ok := rpcerr.As(err); ok && e.Kind == rpcerr.ResourceMissing {
			return row, nil
		}
		return nil, err
	}
	row.EntryPoint = refl.EntryPoint
	row.ROBindCount = refl.ROBindCount
	row.RWBindCount = refl.RWBindCount
	row.CBufferCount = refl.CBufferCount
	return row, nil
}

// Reflection returns the full shader reflection for a stage at eid,
// erroring with ResourceMissing when no shader is bound or no reflection
// is available — unlike StageInfo, a direct reflection request has
// nothing useful to zero-fill.
func (s *Service) Reflection(ctx context.Context, eid uint64, stage replay.Stage) (*replay.ShaderReflection, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if p.Shaders[stage] == 0 {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no shader bound at stage %s for eid %d", stage, eid)
	}
	return s.Adapter.GetShaderReflection(ctx, stage)
}

// Section renders one named section as a generic map, ready for JSON.
// UINT64_MAX byte-size fields render as "-" per spec.md §4.4.
func (s *Service) Section(ctx context.Context, eid uint64, name string) (map[string]interface{}, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	switch name {
	case SectionTopology:
		return map[string]interface{}{"topology": p.Topology}, nil
	case SectionViewport:
		v := p.Viewport
		return map[string]interface{}{
			"x": v.X, "y": v.Y, "width": v.Width, "height": v.Height,
			"minDepth": v.MinDepth, "maxDepth": v.MaxDepth,
		}, nil
	case SectionScissor:
		return map[string]interface{}{"x": p.Scissor.X, "y": p.Scissor.Y, "width": p.Scissor.Width, "height": p.Scissor.Height}, nil
	case SectionBlend:
		return map[string]interface{}{
			"enabled": p.Blend.Enabled, "srcRGB": p.Blend.SrcRGB, "dstRGB": p.Blend.DstRGB, "opRGB": p.Blend.OpRGB,
		}, nil
	case SectionStencil:
		return map[string]interface{}{"enabled": p.Stencil.Enabled, "ref": p.Stencil.Ref, "readMask": p.Stencil.ReadMask}, nil
	case SectionRasterizer:
		return map[string]interface{}{"fillMode": p.Rasterizer.FillMode, "cullMode": p.Rasterizer.CullMode}, nil
	case SectionDepthStencil:
		return map[string]interface{}{"depthEnable": p.DepthStencil.DepthEnable, "depthFunc": p.DepthStencil.DepthFunc}, nil
	case SectionMSAA:
		return map[string]interface{}{"sampleCount": p.MSAA.SampleCount}, nil
	case SectionVInputs:
		attrs := make([]map[string]interface{}, 0, len(p.VertexInputs))
		for _, a := range p.VertexInputs {
			attrs = append(attrs, map[string]interface{}{
				"name": a.Name, "components": a.Components, "format": a.Format,
				"bufferIndex": a.BufferIndex, "offset": a.Offset,
			})
		}
		return map[string]interface{}{"attributes": attrs}, nil
	case SectionSamplers:
		rows := make([]map[string]interface{}, 0, len(p.Samplers))
		for _, b := range p.Samplers {
			rows = append(rows, map[string]interface{}{"set": b.Set, "slot": b.Slot, "name": b.Name})
		}
		return map[string]interface{}{"samplers": rows}, nil
	case SectionVBuffers:
		rows := make([]map[string]interface{}, 0, len(p.VertexBuffers))
		for _, b := range p.VertexBuffers {
			rows = append(rows, map[string]interface{}{
				"resource": b.ResourceID, "stride": b.Stride, "offset": b.Offset, "byteSize": renderSize(b.ByteSize),
			})
		}
		return map[string]interface{}{"buffers": rows}, nil
	case SectionIBuffer:
		if p.IndexBuffer == nil {
			return map[string]interface{}{"ibuffer": "none"}, nil
		}
		b := p.IndexBuffer
		return map[string]interface{}{
			"resource": b.ResourceID, "stride": b.Stride, "offset": b.Offset, "byteSize": renderSize(b.ByteSize),
		}, nil
	case SectionPushConstants:
		return map[string]interface{}{"bytes": len(p.PushConstants)}, nil
	default:
		return nil, rpcerr.New(rpcerr.InvalidArgs, "unknown pipeline section %q", name)
	}
}

// renderSize implements the UINT64_MAX -> "-" sentinel rendering rule.
func renderSize(v uint64) interface{} {
	if v == replay.SizeUnknown {
		return "-"
	}
	return v
}

// Summary produces the `pipeline eid?` result without a section filter.
func (s *Service) Summary(ctx context.Context, eid uint64) (map[string]interface{}, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"eid":               eid,
		"topology":          p.Topology,
		"graphics_pipeline": fmt.Sprintf("eid-%d", eid),
		"compute_pipeline":  p.Shaders[replay.StageCS] != 0,
	}, nil
}
