package pipeline

import (
	"context"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

// maxFlattenDepth caps recursive struct flattening to tolerate cyclic
// reflection structures (spec.md §4.4, §9).
const maxFlattenDepth = 8

// FlatVar is one flattened scalar/vector constant, dot-joined name.
type FlatVar struct {
	Name   string
	Floats []float64
	Uints  []uint32
	Ints   []int32
}

// CBufferDecode locates the constant block at (stage,set,binding) and
// recursively flattens nested structs into dot-joined names. The block's
// contents are not read: each entry's Floats, Ints or Uints slice is
// zero-filled and sized Rows*Cols from the reflection.
func (s *Service) CBufferDecode(ctx context.Context, eid uint64, stage replay.Stage, set, binding int) ([]FlatVar, error) {
	if err := s.Adapter.SetFrameEvent(ctx, eid); err != nil {
		return nil, err
	}
	refl, err := s.Adapter.GetShaderReflection(ctx, stage)
	if err != nil {
		return nil, err
	}
	var block *replay.ConstantBlock
	for i := range refl.ConstantBlocks {
		b := &refl.ConstantBlocks[i]
		if b.Set == set && b.Binding == binding {
			block = b
			break
		}
	}
	if block == nil {
		return nil, rpcerr.New(rpcerr.NotFound, "no constant block at set=%d binding=%d", set, binding)
	}
	var out []FlatVar
	for _, v := range block.Variables {
		flattenVar(v, "", 0, &out)
	}
	return out, nil
}

func flattenVar(v replay.Variable, prefix string, depth int, out *[]FlatVar) {
	if depth > maxFlattenDepth {
		return
	}
	name := v.Name
	if prefix != "" {
		name = prefix + "." + v.Name
	}
	if len(v.Members) > 0 {
		for _, m := range v.Members {
			flattenVar(m, name, depth+1, out)
		}
		return
	}
	fv := FlatVar{Name: name}
	switch {
	case v.IsFloat:
		fv.Floats = make([]float64, v.Rows*v.Cols)
	case v.IsSigned:
		fv.Ints = make([]int32, v.Rows*v.Cols)
	default:
		fv.Uints = make([]uint32, v.Rows*v.Cols)
	}
	*out = append(*out, fv)
}
