package daemon

import (
	"context"

	"github.com/rdctools/rdcq/internal/query"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/tables"
)

func handlePasses(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"tree": map[string]interface{}{"passes": d.sess.Passes()}}, nil
}

func handlePass(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	var pass *tables.Pass
	if name, ok := p["name"].(string); ok {
		for i := range s.Passes() {
			if s.Passes()[i].Name == name {
				pass = &s.Passes()[i]
				break
			}
		}
	} else if idx, ok := p["index"].(float64); ok {
		i := int(idx)
		if i < 0 || i >= len(s.Passes()) {
			return nil, rpcerr.New(rpcerr.OutOfRange, "pass index %d out of range", i)
		}
		pass = &s.Passes()[i]
	}
	if pass == nil {
		return nil, rpcerr.New(rpcerr.NotFound, "pass not found")
	}

	snap, err := s.Pipeline().Snapshot(ctx, pass.BeginEID)
	if err != nil {
		return nil, err
	}
	if err := s.SetFrameEvent(ctx, s.CurrentEID()); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"name": pass.Name, "begin_eid": pass.BeginEID, "end_eid": pass.EndEID,
		"draws": pass.Draws, "dispatches": pass.Dispatches, "triangles": pass.Triangles,
		"color_targets": snap.ColorTargets, "depth_target": snap.DepthTarget,
	}, nil
}

func handlePassDeps(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	usage := buildUsageByResource(s.Cache().PipeAt)
	edges := query.PassDeps(s.Passes(), usage)
	return map[string]interface{}{"edges": edges}, nil
}

// buildUsageByResource derives a per-resource usage history from the
// render-target and vertex/index buffer bindings recorded in the shader
// cache's per-EID pipeline snapshots: color/depth targets are writes,
// vertex/index buffers are reads (spec.md §4.6 classification), since the
// adapter does not expose a separate usage-event stream of its own.
func buildUsageByResource(pipeAt map[uint64]*replay.PipelineState) map[uint64][]query.Usage {
	out := map[uint64][]query.Usage{}
	add := func(id uint64, eid uint64, kind string) {
		if id == tables.NullResourceID {
			return
		}
		out[id] = append(out[id], query.Usage{EID: eid, Kind: kind})
	}
	for eid, snap := range pipeAt {
		for _, c := range snap.ColorTargets {
			add(c, eid, "ColorTarget")
		}
		add(snap.DepthTarget, eid, "DepthStencilTarget")
		for _, vb := range snap.VertexBuffers {
			add(vb.ResourceID, eid, "VertexBuffer")
		}
		if snap.IndexBuffer != nil {
			add(snap.IndexBuffer.ResourceID, eid, "IndexBuffer")
		}
	}
	return out
}
