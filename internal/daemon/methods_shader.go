package daemon

import (
	"context"
	"sort"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/shaderedit"
)

func handleShader(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	row, err := s.Pipeline().StageInfo(ctx, eid, replay.Stage(stageStr))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"row": map[string]interface{}{
		"eid": eid, "stage": row.Stage, "shader": row.ShaderID, "entry": row.EntryPoint,
		"ro": row.ROBindCount, "rw": row.RWBindCount, "cbuffers": row.CBufferCount,
	}}, nil
}

func handleShaderReflect(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	refl, err := s.Pipeline().Reflection(ctx, eid, replay.Stage(stageStr))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"entry": refl.EntryPoint, "inputs": refl.Inputs, "outputs": refl.Outputs,
		"ro": refl.ROBindCount, "rw": refl.RWBindCount, "cbuffers": refl.CBufferCount,
		"constant_blocks": refl.ConstantBlocks, "resource_binds": refl.ResourceBinds,
	}, nil
}

func handleShaderConstants(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	refl, err := s.Pipeline().Reflection(ctx, eid, replay.Stage(stageStr))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"constant_blocks": refl.ConstantBlocks}, nil
}

// handleShaderSource reports spec.md §6's shader_source method. A
// RenderDoc capture retains compiled bytecode, never the original
// source text, so there is no adapter capability to satisfy this with
// real source — it always reports unavailable rather than fabricating
// text.
func handleShaderSource(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	return nil, rpcerr.New(rpcerr.DebugUnavailable, "original shader source is not retained by a capture")
}

func handleShaderDisasm(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	stage := replay.Stage(stageStr)
	if _, err := s.Pipeline().Reflection(ctx, eid, stage); err != nil {
		return nil, err
	}
	target := stringParam(p, "target", "")
	if target == "" {
		targets, err := s.Adapter().DisassemblyTargets(ctx)
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			return nil, rpcerr.New(rpcerr.DebugUnavailable, "no disassembly targets available")
		}
		target = targets[0]
	}
	text, err := s.Adapter().DisassembleShader(ctx, stage, target)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"target": target, "disasm": text}, nil
}

func handleShaderAll(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	refl, err := handleShaderReflect(ctx, d, p)
	if err != nil {
		return nil, err
	}
	disasm, err := handleShaderDisasm(ctx, d, p)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"reflect": refl, "disasm": disasm}, nil
}

func handleShaders(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	stageFilter := stringParam(p, "stage", "")
	sortKey := stringParam(p, "sort", "")

	type row struct {
		Shader uint64   `json:"shader"`
		Stages []string `json:"stages"`
		Uses   int      `json:"uses"`
	}
	var rows []row
	for id, e := range s.Cache().Disasm {
		if stageFilter != "" && !e.Stages[replay.Stage(stageFilter)] {
			continue
		}
		var stages []string
		for _, st := range replay.Stages {
			if e.Stages[st] {
				stages = append(stages, string(st))
			}
		}
		rows = append(rows, row{Shader: id, Stages: stages, Uses: e.UseCount})
	}
	switch sortKey {
	case "uses":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Uses > rows[j].Uses })
	case "shader", "":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Shader < rows[j].Shader })
	default:
		return nil, rpcerr.New(rpcerr.InvalidArgs, "unknown sort key %q", sortKey)
	}
	return map[string]interface{}{"rows": rows}, nil
}

func handleShadersPreload(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	count, err := d.sess.PreloadShaders(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"done": true, "shaders": count}, nil
}

func handleShaderTargets(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	targets, err := d.sess.Adapter().DisassemblyTargets(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"targets": targets}, nil
}

func handleShaderListInfo(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	e, ok := d.sess.Cache().Disasm[id]
	if !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no cached shader with id %d", id)
	}
	return map[string]interface{}{
		"shader": id, "entry": e.EntryPoint, "inputs": e.Inputs, "outputs": e.Outputs,
		"uses": e.UseCount, "first_eid": e.FirstEID,
	}, nil
}

func handleShaderListDisasm(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	e, ok := d.sess.Cache().Disasm[id]
	if !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no cached shader with id %d", id)
	}
	return map[string]interface{}{"disasm": e.DisasmText}, nil
}

func handleShaderEncodings(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"encodings": shaderedit.Encodings}, nil
}

func handleShaderBuild(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	source, err := requireString(p, "source")
	if err != nil {
		return nil, err
	}
	encoding := stringParam(p, "encoding", "glsl")
	entry := stringParam(p, "entry", "main")

	id, err := d.sess.ShaderEdit().Build(ctx, replay.Stage(stageStr), source, encoding, entry)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"shader": id}, nil
}

func handleShaderReplace(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	shaderID, err := requireUint(p, "shader_id")
	if err != nil {
		return nil, err
	}
	if err := d.sess.ShaderEdit().Replace(ctx, eid, replay.Stage(stageStr), shaderID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

func handleShaderRestore(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	stageStr, err := requireString(p, "stage")
	if err != nil {
		return nil, err
	}
	if err := d.sess.ShaderEdit().Restore(ctx, eid, replay.Stage(stageStr)); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

func handleShaderRestoreAll(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	if err := d.sess.ShaderEdit().RestoreAll(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}
