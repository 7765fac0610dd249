package main

import (
	"testing"

	"github.com/rdctools/rdcq/internal/diff"
)

func uptr(v uint64) *uint64 { return &v }

func TestExitCodeOKWhenNothingDiffers(t *testing.T) {
	res := result{
		Draws:     []diff.DrawDiffRow{{Status: diff.StatusEqual}},
		Resources: []diff.ResourceDiffRow{{AID: uptr(1), BID: uptr(1)}},
		Stats:     []diff.StatsDiffRow{{DrawsDelta: "0", DispatchDelta: "0", TrianglesDelta: "0"}},
	}
	if got := exitCode(res); got != exitOK {
		t.Errorf("exitCode = %d, want exitOK", got)
	}
}

func TestExitCodeDifferencesOnModifiedDraw(t *testing.T) {
	res := result{Draws: []diff.DrawDiffRow{{Status: diff.StatusModified}}}
	if got := exitCode(res); got != exitDifferences {
		t.Errorf("exitCode = %d, want exitDifferences", got)
	}
}

func TestExitCodeDifferencesOnOneSidedResource(t *testing.T) {
	res := result{Resources: []diff.ResourceDiffRow{{AID: uptr(1), BID: nil}}}
	if got := exitCode(res); got != exitDifferences {
		t.Errorf("exitCode = %d, want exitDifferences", got)
	}
}

func TestExitCodeDifferencesOnNonZeroStatsDelta(t *testing.T) {
	res := result{Stats: []diff.StatsDiffRow{{DrawsDelta: "+3", DispatchDelta: "0", TrianglesDelta: "0"}}}
	if got := exitCode(res); got != exitDifferences {
		t.Errorf("exitCode = %d, want exitDifferences", got)
	}
}
