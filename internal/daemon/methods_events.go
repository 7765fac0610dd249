package daemon

import (
	"context"
	"sort"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

func handleEvents(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	typeFilter := stringParam(p, "type", "")
	nameFilter := stringParam(p, "filter", "")
	limit := intParam(p, "limit", 0)

	out := make([]map[string]interface{}, 0, len(s.Flat()))
	for _, f := range s.Flat() {
		if typeFilter != "" && string(f.Type) != typeFilter {
			continue
		}
		if nameFilter != "" && !containsFold(f.Action.Name, nameFilter) {
			continue
		}
		out = append(out, map[string]interface{}{"eid": f.Action.EventID, "type": f.Type, "name": f.Action.Name})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return map[string]interface{}{"events": out}, nil
}

func containsFold(haystack, needle string) bool {
	return len(needle) == 0 || indexFold(haystack, needle) >= 0
}

func indexFold(haystack, needle string) int {
	hl, nl := []rune(haystack), []rune(needle)
	for i := range hl {
		h, n := hl[i], nl[0]
		if h >= 'A' && h <= 'Z' {
			h += 'a' - 'A'
		}
		if n >= 'A' && n <= 'Z' {
			n += 'a' - 'A'
		}
		if h == n && i+len(nl) <= len(hl) {
			match := true
			for j, nn := range nl {
				hc := hl[i+j]
				if hc >= 'A' && hc <= 'Z' {
					hc += 'a' - 'A'
				}
				if nn >= 'A' && nn <= 'Z' {
					nn += 'a' - 'A'
				}
				if hc != nn {
					match = false
					break
				}
			}
			if match {
				return i
			}
		}
	}
	return -1
}

func handleDraws(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	passFilter := stringParam(p, "pass", "")
	sortKey := stringParam(p, "sort", "")
	limit := intParam(p, "limit", 0)

	type row struct {
		EID       uint64 `json:"eid"`
		Type      string `json:"type"`
		Triangles uint64 `json:"triangles"`
		Instances uint64 `json:"instances"`
		Pass      string `json:"pass"`
		Marker    string `json:"marker"`
		Shader    uint64 `json:"shader"`
		Topology  string `json:"topology"`
	}
	var rows []row
	for _, f := range s.Flat() {
		if f.Type != action.TypeDraw && f.Type != action.TypeDrawIndexed {
			continue
		}
		if passFilter != "" && f.PassName != passFilter {
			continue
		}
		r := row{
			EID:       f.Action.EventID,
			Type:      string(f.Type),
			Triangles: action.Triangles(f.Action.NumIndices, f.Action.NumInstances),
			Instances: f.Action.NumInstances,
			Pass:      f.PassName,
			Marker:    f.ParentMarker,
		}
		// Populated only once the shader cache has been walked (shaders_preload);
		// the diff orchestrator preloads both sides before aligning draws so its
		// fallback key (type, shader, topology) has something to key on.
		if snap, ok := s.Cache().PipeAt[f.Action.EventID]; ok {
			r.Shader = snap.Shaders[replay.StagePS]
			r.Topology = snap.Topology
		}
		rows = append(rows, r)
	}
	switch sortKey {
	case "triangles":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Triangles > rows[j].Triangles })
	case "eid", "":
	default:
		return nil, rpcerr.New(rpcerr.InvalidArgs, "unknown sort key %q", sortKey)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return map[string]interface{}{"draws": rows, "summary": map[string]interface{}{"count": len(rows)}}, nil
}

func handleEvent(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	s := d.sess
	for _, f := range s.Flat() {
		if f.Action.EventID == eid {
			return map[string]interface{}{
				"EID":        eid,
				"API Call":   f.Action.Name,
				"Parameters": map[string]interface{}{},
				"Duration":   0,
			}, nil
		}
	}
	return nil, rpcerr.New(rpcerr.NotFound, "no event with eid %d", eid)
}

func handleDraw(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	eid := uintParam(p, "eid", s.CurrentEID())
	for _, f := range s.Flat() {
		if f.Action.EventID != eid {
			continue
		}
		return map[string]interface{}{
			"Event":     eid,
			"Type":      string(f.Type),
			"Marker":    f.ParentMarker,
			"Triangles": action.Triangles(f.Action.NumIndices, f.Action.NumInstances),
			"Instances": f.Action.NumInstances,
		}, nil
	}
	return nil, rpcerr.New(rpcerr.NotFound, "no draw with eid %d", eid)
}
