package query

import (
	"testing"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
)

func TestTopDrawsSortsDescendingAndTruncates(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagDrawcall, NumIndices: 30, NumInstances: 1},   // 10
		{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 300, NumInstances: 1},  // 100
		{EventID: 3, Flags: replay.FlagDrawcall, NumIndices: 90, NumInstances: 1},   // 30
		{EventID: 4, Flags: replay.FlagDispatch},
	}
	flat := action.Flatten(roots)

	top := TopDraws(flat, 2)
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].EID != 2 || top[1].EID != 3 {
		t.Errorf("order = [%d %d], want [2 3]", top[0].EID, top[1].EID)
	}
}

func TestTopDrawsIgnoresNonDrawEvents(t *testing.T) {
	roots := []*replay.Action{
		{EventID: 1, Flags: replay.FlagDispatch},
		{EventID: 2, Flags: replay.FlagClear},
	}
	flat := action.Flatten(roots)
	if top := TopDraws(flat, 3); len(top) != 0 {
		t.Errorf("top = %+v, want none", top)
	}
}

func TestTopDrawsCarriesParentMarker(t *testing.T) {
	parent := &replay.Action{
		EventID: 1, Flags: replay.FlagSetMarker, Name: "GBuffer/Floor",
		Children: []*replay.Action{
			{EventID: 2, Flags: replay.FlagDrawcall, NumIndices: 3, NumInstances: 1},
		},
	}
	flat := action.Flatten([]*replay.Action{parent})
	top := TopDraws(flat, 1)
	if len(top) != 1 || top[0].Marker != "GBuffer/Floor" {
		t.Errorf("top = %+v, want marker GBuffer/Floor", top)
	}
}
