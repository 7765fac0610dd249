// Package shadercache builds, in a single walk of the action tree, a
// per-EID pipeline snapshot and a per-shader-id disassembly/metadata
// cache (spec.md §4.5).
package shadercache

import (
	"context"
	"sync"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
)

// Entry is a shader cache entry keyed by shader resource id (spec.md §3).
type Entry struct {
	Stages     map[replay.Stage]bool
	UseCount   int
	FirstEID   uint64
	EntryPoint string
	Inputs     int
	Outputs    int
	DisasmText string
}

// Cache is write-once after Build; thereafter it is read-only (spec.md §5).
type Cache struct {
	Adapter replay.Adapter

	mu     sync.Mutex
	built  bool
	Disasm map[uint64]*Entry
	PipeAt map[uint64]*replay.PipelineState // per-EID snapshot, populated during Build
}

func New(a replay.Adapter) *Cache {
	return &Cache{Adapter: a, Disasm: map[uint64]*Entry{}, PipeAt: map[uint64]*replay.PipelineState{}}
}

// Build walks roots once. The second call is a no-op guarded by the
// built sentinel (spec.md §4.5 invariant).
func (c *Cache) Build(ctx context.Context, roots []*replay.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.built {
		return nil
	}

	for _, f := range action.Flatten(roots) {
		switch f.Type {
		case action.TypeDraw, action.TypeDrawIndexed, action.TypeDispatch:
		default:
			continue
		}
		eid := f.Action.EventID
		if err := c.Adapter.SetFrameEvent(ctx, eid); err != nil {
			return err
		}
		p, err := c.Adapter.GetPipelineState(ctx)
		if err != nil {
			return err
		}
		c.PipeAt[eid] = p

		for _, stage := range replay.Stages {
			sid := p.Shaders[stage]
			if sid == 0 {
				continue
			}
			e, ok := c.Disasm[sid]
			if !ok {
				refl, err := c.Adapter.GetShaderReflection(ctx, stage)
				if err != nil {
					continue
				}
				targets, err := c.Adapter.DisassemblyTargets(ctx)
				if err != nil || len(targets) == 0 {
					continue
				}
				text, err := c.Adapter.DisassembleShader(ctx, stage, targets[0])
				if err != nil {
					continue
				}
				e = &Entry{
					Stages:     map[replay.Stage]bool{},
					FirstEID:   eid,
					EntryPoint: refl.EntryPoint,
					Inputs:     refl.Inputs,
					Outputs:    refl.Outputs,
					DisasmText: text,
				}
				c.Disasm[sid] = e
			}
			e.Stages[stage] = true
			e.UseCount++
		}
	}
	c.built = true
	return nil
}
