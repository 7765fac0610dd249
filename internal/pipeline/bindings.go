package pipeline

import (
	"context"

	"github.com/rdctools/rdcq/internal/replay"
)

// BindingRow is a merged binding row over all six stages (spec.md §4.4).
// set is mandatory and distinct from slot.
type BindingRow struct {
	EID   uint64
	Stage replay.Stage
	Kind  string // ro, rw, sampler, cbuffer
	Set   int
	Slot  int
	Name  string
}

// Bindings merges reflected resource binds over all stages bound at eid,
// then filters post-aggregation on set/slot if provided (>=0 to filter).
func (s *Service) Bindings(ctx context.Context, eid uint64, set, slot int) ([]BindingRow, error) {
	p, err := s.Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	var rows []BindingRow
	for _, stage := range replay.Stages {
		if p.Shaders[stage] == 0 {
			continue
		}
		refl, err := s.Adapter.GetShaderReflection(ctx, stage)
		if err != nil {
			continue
		}
		for _, b := range refl.ResourceBinds {
			if set >= 0 && b.Set != set {
				continue
			}
			if slot >= 0 && b.Slot != slot {
				continue
			}
			rows = append(rows, BindingRow{EID: eid, Stage: stage, Kind: b.Kind, Set: b.Set, Slot: b.Slot, Name: b.Name})
		}
	}
	return rows, nil
}
