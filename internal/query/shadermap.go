package query

import (
	"strconv"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/shadercache"
)

// ShaderMapRow is one draw-EID row with six stage columns (spec.md §4.6).
type ShaderMapRow struct {
	EID uint64
	VS, HS, DS, GS, PS, CS string // shader id formatted, or "-"
}

// ShaderMap builds one row per draw EID from the shader cache's per-EID
// pipeline snapshots collected during Build.
func ShaderMap(flat []action.Flat, cache *shadercache.Cache) []ShaderMapRow {
	var rows []ShaderMapRow
	for _, f := range flat {
		if f.Type != action.TypeDraw && f.Type != action.TypeDrawIndexed {
			continue
		}
		p, ok := cache.PipeAt[f.Action.EventID]
		if !ok {
			continue
		}
		rows = append(rows, ShaderMapRow{
			EID: f.Action.EventID,
			VS:  shaderCell(p, replay.StageVS),
			HS:  shaderCell(p, replay.StageHS),
			DS:  shaderCell(p, replay.StageDS),
			GS:  shaderCell(p, replay.StageGS),
			PS:  shaderCell(p, replay.StagePS),
			CS:  shaderCell(p, replay.StageCS),
		})
	}
	return rows
}

func shaderCell(p *replay.PipelineState, stage replay.Stage) string {
	id := p.Shaders[stage]
	if id == 0 {
		return "-"
	}
	return strconv.FormatUint(id, 10)
}
