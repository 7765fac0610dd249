// Package debugtrace implements the shader debug-tracing surface of
// spec.md §4.11/§4.12: debug_pixel/debug_vertex/debug_thread, each
// obtaining a live trace, reading its stage before freeing it (freeing
// invalidates the FFI handle), and freeing it on every exit path.
package debugtrace

import (
	"context"

	"github.com/rdctools/rdcq/internal/replay"
)

// VarChange mirrors replay.VarChange for wire serialization clarity.
type VarChange struct {
	Name   string    `json:"name"`
	Type   string    `json:"type"`
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Before []float64 `json:"before"`
	After  []float64 `json:"after"`
}

// Step is one accumulated trace step.
type Step struct {
	Step        int         `json:"step"`
	Instruction int         `json:"instruction"`
	File        string      `json:"file"`
	Line        int         `json:"line"`
	Changes     []VarChange `json:"changes"`
}

// Result is the full rendered trace: every step plus the convenience
// inputs (step 0's changes) / outputs (the last step's changes) spec.md
// §4.11 calls out explicitly.
type Result struct {
	Stage   replay.Stage `json:"stage"`
	Steps   []Step       `json:"steps"`
	Inputs  []VarChange  `json:"inputs"`
	Outputs []VarChange  `json:"outputs"`
}

// Service runs debug traces against an adapter.
type Service struct {
	Adapter replay.Adapter
}

func New(a replay.Adapter) *Service { return &Service{Adapter: a} }

// Pixel debugs the pixel shader invocation covering (x,y[,sample]) at eid.
func (s *Service) Pixel(ctx context.Context, eid uint64, x, y, sample int) (*Result, error) {
	return s.run(func() (*replay.Trace, error) { return s.Adapter.DebugPixel(ctx, eid, x, y, sample) })
}

// Vertex debugs the vertex shader invocation for vtxID[,instance] at eid.
func (s *Service) Vertex(ctx context.Context, eid uint64, vtxID uint64, instance int) (*Result, error) {
	return s.run(func() (*replay.Trace, error) { return s.Adapter.DebugVertex(ctx, eid, vtxID, instance) })
}

// Thread debugs the compute-shader thread (gx,gy,gz)/(tx,ty,tz) at eid.
// Valid only when eid names a Dispatch action; the adapter enforces that.
func (s *Service) Thread(ctx context.Context, eid uint64, gx, gy, gz, tx, ty, tz int) (*Result, error) {
	return s.run(func() (*replay.Trace, error) { return s.Adapter.DebugThread(ctx, eid, gx, gy, gz, tx, ty, tz) })
}

// run obtains a trace via fn, extracts its stage before freeing it
// (Free invalidates the FFI handle), and frees it on every exit path
// including an error returned mid-accumulation.
func (s *Service) run(fn func() (*replay.Trace, error)) (res *Result, err error) {
	tr, err := fn()
	if err != nil {
		return nil, err
	}
	if tr == nil {
		return &Result{}, nil
	}
	stage := tr.Stage
	steps := tr.Steps
	defer s.Adapter.FreeTrace(tr)

	out := make([]Step, 0, len(steps))
	for _, st := range steps {
		changes := make([]VarChange, 0, len(st.Changes))
		for _, c := range st.Changes {
			changes = append(changes, VarChange{Name: c.Name, Type: c.Type, Rows: c.Rows, Cols: c.Cols, Before: c.Before, After: c.After})
		}
		out = append(out, Step{Step: st.Step, Instruction: st.Instruction, File: st.File, Line: st.Line, Changes: changes})
	}
	result := &Result{Stage: stage, Steps: out}
	if len(out) > 0 {
		result.Inputs = out[0].Changes
		result.Outputs = out[len(out)-1].Changes
	}
	return result, nil
}
