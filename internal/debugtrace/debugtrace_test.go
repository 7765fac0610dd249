package debugtrace

import (
	"context"
	"testing"

	"github.com/rdctools/rdcq/internal/replay"
)

// tracingFake wraps replay.Fake to count FreeTrace calls and return a
// trace with changes, exercising run()'s inputs/outputs extraction.
type tracingFake struct {
	*replay.Fake
	freed    int
	trace    *replay.Trace
	debugErr error
}

func (f *tracingFake) DebugPixel(ctx context.Context, eid uint64, x, y, sample int) (*replay.Trace, error) {
	return f.trace, f.debugErr
}

func (f *tracingFake) FreeTrace(tr *replay.Trace) { f.freed++ }

func newTracingFake() *tracingFake {
	return &tracingFake{
		Fake: replay.NewFake(),
		trace: &replay.Trace{
			Stage: replay.StagePS,
			Steps: []replay.TraceStep{
				{Step: 0, Changes: []replay.VarChange{{Name: "color", Rows: 1, Cols: 4, After: []float64{1, 0, 0, 1}}}},
				{Step: 1, Changes: []replay.VarChange{{Name: "color", Rows: 1, Cols: 4, Before: []float64{1, 0, 0, 1}, After: []float64{0, 1, 0, 1}}}},
			},
		},
	}
}

func TestPixelExtractsInputsAndOutputsFromFirstAndLastStep(t *testing.T) {
	f := newTracingFake()
	res, err := New(f).Pixel(context.Background(), 5, 10, 20, 0)
	if err != nil {
		t.Fatalf("Pixel error: %v", err)
	}
	if res.Stage != replay.StagePS {
		t.Errorf("Stage = %s, want ps", res.Stage)
	}
	if len(res.Steps) != 2 {
		t.Fatalf("len(Steps) = %d, want 2", len(res.Steps))
	}
	if len(res.Inputs) != 1 || res.Inputs[0].Name != "color" {
		t.Errorf("Inputs = %+v, want step 0's changes", res.Inputs)
	}
	if len(res.Outputs) != 1 || res.Outputs[0].After[1] != 1 {
		t.Errorf("Outputs = %+v, want step 1's changes", res.Outputs)
	}
}

func TestPixelFreesTraceOnSuccess(t *testing.T) {
	f := newTracingFake()
	if _, err := New(f).Pixel(context.Background(), 5, 10, 20, 0); err != nil {
		t.Fatalf("Pixel error: %v", err)
	}
	if f.freed != 1 {
		t.Errorf("FreeTrace called %d times, want 1", f.freed)
	}
}

func TestPixelPropagatesAdapterErrorWithoutFreeing(t *testing.T) {
	f := newTracingFake()
	f.debugErr = errBoom

	_, err := New(f).Pixel(context.Background(), 5, 10, 20, 0)
	if err != errBoom {
		t.Fatalf("err = %v, want errBoom", err)
	}
	if f.freed != 0 {
		t.Errorf("FreeTrace called %d times, want 0 (no trace was ever returned)", f.freed)
	}
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "boom" }
