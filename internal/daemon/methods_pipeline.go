package daemon

import (
	"context"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

func handlePipeline(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	section := stringParam(p, "section", "")
	if section == "" {
		row, err := s.Pipeline().Summary(ctx, eid)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"row": row}, nil
	}
	detail, err := s.Pipeline().Section(ctx, eid, section)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// pipeSection builds a pipe_<section> handler bound to one of
// pipeline.AllSections, matching spec.md §6's stable `pipe_*` method
// family rather than forcing every caller through `pipeline`'s
// optional `section` param.
func pipeSection(section string) handlerFunc {
	return func(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
		s := d.sess
		eid := uintParam(p, "eid", s.CurrentEID())
		return s.Pipeline().Section(ctx, eid, section)
	}
}

func handleBindings(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	set := intParam(p, "set", -1)
	slot := intParam(p, "binding", -1)
	rows, err := s.Pipeline().Bindings(ctx, eid, set, slot)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"rows": rows}, nil
}

func handleCBufferDecode(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	// The VFS path grammar for this leaf (/draws/<eid>/cbuffer/<set>/<binding>)
	// carries no stage component, so a direct vfs_cat dispatch defaults to
	// ps; a caller invoking cbuffer_decode directly may still pick any stage.
	stageStr := stringParam(p, "stage", string(replay.StagePS))
	set := intParam(p, "set", 0)
	binding := intParam(p, "binding", 0)
	vars, err := s.Pipeline().CBufferDecode(ctx, eid, replay.Stage(stageStr), set, binding)
	if err != nil {
		return nil, err
	}
	if err := s.SetFrameEvent(ctx, s.CurrentEID()); err != nil {
		return nil, err
	}
	return map[string]interface{}{"variables": vars}, nil
}

func handleVBufferDecode(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	count := intParam(p, "count", 0)
	table, err := s.Pipeline().VBufferDecode(ctx, eid, count)
	if err != nil {
		return nil, err
	}
	return table, nil
}

func handleIBufferDecode(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	count := intParam(p, "count", 0)
	v, err := s.Pipeline().IBufferDecode(ctx, eid, count)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"indices": v}, nil
}

// handleMeshData serves spec.md §6's mesh_data method. Mesh-shader draws
// have no separate input-assembler stage, so there is no distinct
// adapter capability for their output vertices beyond the post-VS
// stream: this reuses stream 1 (vs-out) against the mesh pipeline.
func handleMeshData(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	count := intParam(p, "count", 0)
	table, err := s.Pipeline().PostVSDecode(ctx, eid, 1, count)
	if err != nil {
		return nil, err
	}
	return table, nil
}

func handlePostVS(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	stream := intParam(p, "stream", 1)
	count := intParam(p, "count", 0)
	if stream != 1 && stream != 2 {
		return nil, rpcerr.New(rpcerr.InvalidArgs, "stream must be 1 or 2, got %d", stream)
	}
	table, err := s.Pipeline().PostVSDecode(ctx, eid, stream, count)
	if err != nil {
		return nil, err
	}
	return table, nil
}
