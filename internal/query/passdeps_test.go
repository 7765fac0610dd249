package query

import (
	"testing"

	"github.com/rdctools/rdcq/internal/tables"
)

func TestPassDepsEdgeFromWriterToReader(t *testing.T) {
	passes := []tables.Pass{
		{Name: "GBuffer", BeginEID: 1, EndEID: 10},
		{Name: "Lighting", BeginEID: 11, EndEID: 20},
	}
	usage := map[uint64][]Usage{
		42: {
			{EID: 5, Kind: "ColorTarget"},
			{EID: 15, Kind: "PS_Resource"},
		},
	}

	edges := PassDeps(passes, usage)
	if len(edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(edges))
	}
	if edges[0].Src != "GBuffer" || edges[0].Dst != "Lighting" {
		t.Errorf("edge = %+v, want GBuffer -> Lighting", edges[0])
	}
	if len(edges[0].Resources) != 1 || edges[0].Resources[0] != 42 {
		t.Errorf("Resources = %v, want [42]", edges[0].Resources)
	}
}

func TestPassDepsSuppressesSelfLoops(t *testing.T) {
	passes := []tables.Pass{{Name: "GBuffer", BeginEID: 1, EndEID: 10}}
	usage := map[uint64][]Usage{
		42: {
			{EID: 2, Kind: "ColorTarget"},
			{EID: 5, Kind: "PS_Resource"}, // same pass as the writer: no edge
		},
	}

	if edges := PassDeps(passes, usage); len(edges) != 0 {
		t.Errorf("edges = %+v, want none (self-loop suppressed)", edges)
	}
}

func TestPassDepsExcludesNullResource(t *testing.T) {
	passes := []tables.Pass{
		{Name: "GBuffer", BeginEID: 1, EndEID: 10},
		{Name: "Lighting", BeginEID: 11, EndEID: 20},
	}
	usage := map[uint64][]Usage{
		tables.NullResourceID: {
			{EID: 5, Kind: "ColorTarget"},
			{EID: 15, Kind: "PS_Resource"},
		},
	}

	if edges := PassDeps(passes, usage); len(edges) != 0 {
		t.Errorf("edges = %+v, want none (resource id 0 excluded)", edges)
	}
}

func TestPassDepsIgnoresUsageOutsideAnyPassWindow(t *testing.T) {
	passes := []tables.Pass{{Name: "GBuffer", BeginEID: 1, EndEID: 10}}
	usage := map[uint64][]Usage{
		42: {
			{EID: 500, Kind: "ColorTarget"}, // outside any window
			{EID: 501, Kind: "PS_Resource"},
		},
	}

	if edges := PassDeps(passes, usage); len(edges) != 0 {
		t.Errorf("edges = %+v, want none", edges)
	}
}
