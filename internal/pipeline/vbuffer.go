package pipeline

import (
	"context"
	"encoding/binary"
	"math"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

// VertexTable is the decoded result of spec.md §4.4's vertex-buffer decode:
// one named column per expanded attribute component, and a row per vertex.
type VertexTable struct {
	Columns  []string
	Vertices [][]float64
}

// VBufferDecode expands each attribute's components into named columns
// (attr.x/.y/.z/.w) and decodes f32/f16/u8n per component byte width.
func (s *Service) VBufferDecode(ctx context.Context, eid uint64, vertexCount int) (*VertexTable, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if len(p.VertexInputs) == 0 {
		return &VertexTable{}, nil
	}
	var columns []string
	const axisNames = "xyzw"
	for _, a := range p.VertexInputs {
		for c := 0; c < a.Components; c++ {
			columns = append(columns, a.Name+"."+string(axisNames[c]))
		}
	}

	table := &VertexTable{Columns: columns}
	for v := 0; v < vertexCount; v++ {
		var row []float64
		for _, a := range p.VertexInputs {
			buf, ok := resourceBufferFor(p, a.BufferIndex)
			if !ok {
				row = append(row, make([]float64, a.Components)...)
				continue
			}
			data, err := s.Adapter.GetBufferData(ctx, buf.ResourceID, buf.Offset+a.Offset+buf.Stride*uint64(v), uint64(a.Components*a.ByteWidth))
			if err != nil {
				return nil, err
			}
			vals, err := decodeComponents(data, a.Components, a.ByteWidth, a.Format)
			if err != nil {
				return nil, err
			}
			row = append(row, vals...)
		}
		table.Vertices = append(table.Vertices, row)
	}
	return table, nil
}

func resourceBufferFor(p *replay.PipelineState, idx int) (replay.BufferBinding, bool) {
	if idx < 0 || idx >= len(p.VertexBuffers) {
		return replay.BufferBinding{}, false
	}
	return p.VertexBuffers[idx], true
}

// decodeComponents decodes float32 (<f), float16 (<e), or uint8-normalized
// values, little-endian, per component.
func decodeComponents(data []byte, n, byteWidth int, format string) ([]float64, error) {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		off := i * byteWidth
		if off+byteWidth > len(data) {
			break
		}
		switch format {
		case "f32":
			bits := binary.LittleEndian.Uint32(data[off : off+4])
			out[i] = float64(math.Float32frombits(bits))
		case "f16":
			out[i] = decodeFloat16(binary.LittleEndian.Uint16(data[off : off+2]))
		case "u8n":
			out[i] = float64(data[off]) / 255.0
		default:
			return nil, rpcerr.New(rpcerr.DecodeFailed, "unknown vertex format %q", format)
		}
	}
	return out, nil
}

func decodeFloat16(h uint16) float64 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff
	var bits uint32
	switch {
	case exp == 0:
		bits = sign << 31
	case exp == 0x1f:
		bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		bits = sign<<31 | (exp+112)<<23 | frac<<13
	}
	return float64(math.Float32frombits(bits))
}
