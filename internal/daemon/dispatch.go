package daemon

import (
	"context"
	"encoding/json"

	"github.com/rdctools/rdcq/internal/rpcerr"
)

// params decodes req.Params into a loosely-typed map for handlers that
// parse their own fields; every parse failure becomes InvalidArgs, never
// a panic (spec.md §7 "Handlers never panic on caller input").
func params(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return map[string]interface{}{}, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, rpcerr.Wrap(rpcerr.InvalidArgs, err, "invalid params")
	}
	return m, nil
}

func stringParam(m map[string]interface{}, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func boolParam(m map[string]interface{}, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func intParam(m map[string]interface{}, key string, def int) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return def
}

func uintParam(m map[string]interface{}, key string, def uint64) uint64 {
	if v, ok := m[key].(float64); ok {
		return uint64(v)
	}
	return def
}

func requireUint(m map[string]interface{}, key string) (uint64, error) {
	v, ok := m[key]
	if !ok {
		return 0, rpcerr.New(rpcerr.InvalidArgs, "missing required param %q", key)
	}
	f, ok := v.(float64)
	if !ok {
		return 0, rpcerr.New(rpcerr.InvalidArgs, "param %q must be a number", key)
	}
	return uint64(f), nil
}

func requireString(m map[string]interface{}, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", rpcerr.New(rpcerr.InvalidArgs, "missing required param %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", rpcerr.New(rpcerr.InvalidArgs, "param %q must be a string", key)
	}
	return s, nil
}

// handlerFunc is the signature every dispatch-table entry implements.
// Session may be nil only for open_capture, doctor, ping, and
// shutdown-when-missing.
type handlerFunc func(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error)

var table = map[string]handlerFunc{
	"ping":         handlePing,
	"open_capture": handleOpenCapture,
	"shutdown":     handleShutdown,
	"doctor":       handleDoctor,

	"info":  handleInfo,
	"stats": handleStats,
	"log":   handleLog,

	"events": handleEvents,
	"draws":  handleDraws,
	"event":  handleEvent,
	"draw":   handleDraw,

	"passes":    handlePasses,
	"pass":      handlePass,
	"pass_deps": handlePassDeps,

	"resources": handleResources,
	"resource":  handleResource,

	"pipeline": handlePipeline,
	"bindings": handleBindings,

	"pipe_topology":       pipeSection("topology"),
	"pipe_viewport":       pipeSection("viewport"),
	"pipe_scissor":        pipeSection("scissor"),
	"pipe_blend":          pipeSection("blend"),
	"pipe_stencil":        pipeSection("stencil"),
	"pipe_vinputs":        pipeSection("vinputs"),
	"pipe_samplers":       pipeSection("samplers"),
	"pipe_vbuffers":       pipeSection("vbuffers"),
	"pipe_ibuffer":        pipeSection("ibuffer"),
	"pipe_push_constants": pipeSection("push_constants"),
	"pipe_rasterizer":     pipeSection("rasterizer"),
	"pipe_depth_stencil":  pipeSection("depth_stencil"),
	"pipe_msaa":           pipeSection("msaa"),

	"shader":          handleShader,
	"shaders":         handleShaders,
	"shaders_preload": handleShadersPreload,
	"shader_targets":  handleShaderTargets,
	"shader_list_info":   handleShaderListInfo,
	"shader_list_disasm": handleShaderListDisasm,
	"shader_reflect":      handleShaderReflect,
	"shader_constants":    handleShaderConstants,
	"shader_source":       handleShaderSource,
	"shader_disasm":       handleShaderDisasm,
	"shader_all":          handleShaderAll,

	"search":     handleSearch,
	"count":      handleCount,
	"shader_map": handleShaderMap,

	"cbuffer_decode": handleCBufferDecode,
	"vbuffer_decode": handleVBufferDecode,
	"ibuffer_decode": handleIBufferDecode,
	"postvs":         handlePostVS,
	"mesh_data":      handleMeshData,

	"vfs_ls":   handleVFSLs,
	"vfs_tree": handleVFSTree,
	"vfs_cat":  handleVFSCat,

	"tex_info":   handleTexInfo,
	"tex_export": handleTexExport,
	"tex_raw":    handleTexRaw,
	"tex_stats":  handleTexStats,
	"buf_info":   handleBufInfo,
	"buf_raw":    handleBufRaw,
	"rt_export":  handleRTExport,
	"rt_depth":   handleRTDepth,
	"rt_overlay": handleRTOverlay,

	"debug_pixel":  handleDebugPixel,
	"debug_vertex": handleDebugVertex,
	"debug_thread": handleDebugThread,

	"shader_encodings":   handleShaderEncodings,
	"shader_build":       handleShaderBuild,
	"shader_replace":     handleShaderReplace,
	"shader_restore":     handleShaderRestore,
	"shader_restore_all": handleShaderRestoreAll,

	"assert": handleAssert,
}

// Dispatch enforces the token gate (spec.md §6, invariant 12: every
// method except ping, and shutdown when no session has been opened yet,
// rejects with Unauthorized if params._token doesn't match) then runs
// the method.
func (d *Daemon) Dispatch(ctx context.Context, req Request) (interface{}, error) {
	h, ok := table[req.Method]
	if !ok {
		return nil, rpcerr.New(rpcerr.MethodNotFound, "unknown method %q", req.Method)
	}

	p, err := params(req.Params)
	if err != nil {
		return nil, err
	}

	switch req.Method {
	case "ping":
		// No token, no session: always reachable.
	case "open_capture", "doctor":
		// No session exists yet to hold its own token, so these two check
		// directly against the daemon's token instead.
		if token, _ := p["_token"].(string); token != d.Token {
			return nil, rpcerr.New(rpcerr.Unauthorized, "bad or missing token")
		}
	case "shutdown":
		if d.sess != nil {
			if token, _ := p["_token"].(string); token != d.sess.Token {
				return nil, rpcerr.New(rpcerr.Unauthorized, "bad or missing token")
			}
		}
		// shutdown-when-missing: no session open, nothing to protect.
	default:
		if d.sess == nil {
			return nil, rpcerr.New(rpcerr.NoSession, "no open capture session")
		}
		if token, _ := p["_token"].(string); token != d.sess.Token {
			return nil, rpcerr.New(rpcerr.Unauthorized, "bad or missing token")
		}
	}

	if req.Method != "open_capture" && req.Method != "ping" && req.Method != "shutdown" && req.Method != "doctor" {
		d.sess.Lock()
		defer d.sess.Unlock()
	}

	return h(ctx, d, p)
}
