package pipeline

import (
	"context"
	"encoding/binary"
)

// IBufferDecode chooses u16 or u32 by stride; "none" when no index buffer
// is bound (spec.md §4.4).
func (s *Service) IBufferDecode(ctx context.Context, eid uint64, count int) (interface{}, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if p.IndexBuffer == nil {
		return "none", nil
	}
	ib := p.IndexBuffer
	width := 2
	if ib.Stride == 4 {
		width = 4
	}
	data, err := s.Adapter.GetBufferData(ctx, ib.ResourceID, ib.Offset, uint64(count*width))
	if err != nil {
		return nil, err
	}
	indices := make([]uint32, 0, count)
	for i := 0; i < count; i++ {
		off := i * width
		if off+width > len(data) {
			break
		}
		if width == 2 {
			indices = append(indices, uint32(binary.LittleEndian.Uint16(data[off:off+2])))
		} else {
			indices = append(indices, binary.LittleEndian.Uint32(data[off:off+4]))
		}
	}
	return indices, nil
}

// PostVSDecode decodes the post-vertex-shader / geometry-shader output
// stream (spec.md §4.4). stream is 1 for vs-out, 2 for gs-out. Unlike
// VBufferDecode, attributes are read from the single tightly-packed
// post-transform buffer rather than from the input vertex buffers: the
// output layout mirrors the input attribute list (same names, components,
// and formats) but is repacked with no gaps between attributes.
func (s *Service) PostVSDecode(ctx context.Context, eid uint64, stream int, vertexCount int) (*VertexTable, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	buf, err := s.Adapter.GetPostVSBuffer(ctx, eid, stream)
	if err != nil {
		return nil, err
	}
	if buf == nil || len(p.VertexInputs) == 0 {
		return &VertexTable{}, nil
	}

	var columns []string
	attrOffset := make([]uint64, len(p.VertexInputs))
	var stride uint64
	const axisNames = "xyzw"
	for i, a := range p.VertexInputs {
		attrOffset[i] = stride
		stride += uint64(a.Components * a.ByteWidth)
		for c := 0; c < a.Components; c++ {
			columns = append(columns, a.Name+"."+string(axisNames[c]))
		}
	}

	table := &VertexTable{Columns: columns}
	for v := 0; v < vertexCount; v++ {
		var row []float64
		for i, a := range p.VertexInputs {
			off := buf.Offset + attrOffset[i] + stride*uint64(v)
			data, err := s.Adapter.GetBufferData(ctx, buf.ResourceID, off, uint64(a.Components*a.ByteWidth))
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
