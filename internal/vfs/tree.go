package vfs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/pipeline"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/tables"
)

// Tree owns the static dictionary (path -> node) plus the bounded
// dynamic shader-subtree LRU (spec.md §3, §4.7).
type Tree struct {
	static map[string]*Node

	skeletonSize int
	shaderLRU    *SubtreeLRU // per-draw "/draws/<eid>/shader" subtrees

	passDrawsDone map[string]bool
	shadersDone   bool

	draws     map[uint64]bool // eids addressable under /draws
	passes    []tables.Pass
	resources []tables.ResourceRow
	currentEID uint64
}

// DefaultShaderSubtreeCapacity is the LRU capacity used when the daemon's
// configuration does not override it (spec.md §4.7 "default capacity
// enforced by configuration").
const DefaultShaderSubtreeCapacity = 64

// BuildSkeleton builds the static portion of the tree from the flattened
// actions, pass table, and resource table (spec.md §4.7).
func BuildSkeleton(flat []action.Flat, passes []tables.Pass, resources []tables.ResourceRow, lruCapacity int) *Tree {
	if lruCapacity <= 0 {
		lruCapacity = DefaultShaderSubtreeCapacity
	}
	t := &Tree{
		static:        map[string]*Node{},
		shaderLRU:     NewSubtreeLRU(lruCapacity),
		passDrawsDone: map[string]bool{},
		draws:         map[uint64]bool{},
		passes:        passes,
		resources:     resources,
	}

	rootChildren := []string{"info", "stats", "log", "capabilities", "events", "draws", "passes", "resources", "textures", "buffers", "shaders", "current"}
	t.put("/", dir("", rootChildren...))
	t.put("/info", leaf("info", "info", nil))
	t.put("/stats", leaf("stats", "stats", nil))
	t.put("/log", leaf("log", "log", nil))
	t.put("/capabilities", leaf("capabilities", "capabilities", nil))

	t.put("/events", dir("events"))
	var eventNames []string
	for _, f := range flat {
		n := strconv.FormatUint(f.Action.EventID, 10)
		eventNames = append(eventNames, n)
		t.put("/events/"+n, leaf(n, "event", map[string]string{"eid": n}))
	}
	t.static["/events"].Children = eventNames

	t.put("/draws", dir("draws"))
	var drawNames []string
	for _, f := range flat {
		if f.Type != action.TypeDraw && f.Type != action.TypeDrawIndexed && f.Type != action.TypeDispatch {
			continue
		}
		eid := f.Action.EventID
		t.draws[eid] = true
		n := strconv.FormatUint(eid, 10)
		drawNames = append(drawNames, n)
		t.buildDrawSkeleton(n, eid)
	}
	t.static["/draws"].Children = drawNames

	t.put("/passes", dir("passes"))
	var passNames []string
	for _, p := range passes {
		passNames = append(passNames, p.Name)
		base := "/passes/" + p.Name
		t.put(base, dir(p.Name, "info", "draws", "attachments"))
		t.put(base+"/info", leaf("info", "pass_info", map[string]string{"pass": p.Name}))
		t.put(base+"/draws", dir("draws")) // populated on demand
		t.put(base+"/attachments", leaf("attachments", "pass_attachments", map[string]string{"pass": p.Name}))
	}
	t.static["/passes"].Children = passNames

	t.put("/resources", dir("resources"))
	var resNames []string
	for _, r := range resources {
		n := strconv.FormatUint(r.ID, 10)
		resNames = append(resNames, n)
		base := "/resources/" + n
		t.put(base, dir(n, "info", "usage"))
		t.put(base+"/info", leaf("info", "resource_info", map[string]string{"id": n}))
		t.put(base+"/usage", leaf("usage", "resource_usage", map[string]string{"id": n}))
	}
	t.static["/resources"].Children = resNames

	t.put("/textures", dir("textures"))
	t.put("/buffers", dir("buffers"))
	t.put("/shaders", dir("shaders")) // populated on demand
	t.put("/current", &Node{Name: "current", Kind: KindAlias})

	t.skeletonSize = len(t.static)
	return t
}

func (t *Tree) buildDrawSkeleton(n string, eid uint64) {
	base := "/draws/" + n
	t.put(base, dir(n, "pipeline", "shader", "bindings", "vbuffer", "ibuffer", "postvs", "descriptors", "targets"))
	t.put(base+"/pipeline", dir("pipeline", append([]string{"summary"}, pipeline.AllSections...)...))
	t.put(base+"/pipeline/summary", leaf("summary", "pipeline_summary", map[string]string{"eid": n}))
	for _, sec := range pipeline.AllSections {
		t.put(base+"/pipeline/"+sec, leaf(sec, "pipe_"+sec, map[string]string{"eid": n}))
	}
	t.put(base+"/shader", dir("shader")) // populated on demand
	t.put(base+"/bindings", leaf("bindings", "bindings", map[string]string{"eid": n}))
	t.put(base+"/vbuffer", leaf("vbuffer", "vbuffer_decode", map[string]string{"eid": n}))
	t.put(base+"/ibuffer", leaf("ibuffer", "ibuffer_decode", map[string]string{"eid": n}))
	t.put(base+"/postvs", leaf("postvs", "postvs", map[string]string{"eid": n}))
	t.put(base+"/descriptors", leaf("descriptors", "descriptors", map[string]string{"eid": n}))
	t.put(base+"/targets", dir("targets")) // color<k>.png / depth.png resolved by pattern, not enumerated
}

func (t *Tree) put(path string, n *Node) { t.static[path] = n }

// SkeletonSize is the size of the static dictionary right after
// BuildSkeleton, before any dynamic population (used by invariant 4).
func (t *Tree) SkeletonSize() int { return t.skeletonSize }

// StaticSize is the current size of the static dictionary.
func (t *Tree) StaticSize() int { return len(t.static) }

// ReachableSubtrees is the number of resident dynamic shader subtrees.
func (t *Tree) ReachableSubtrees() int { return t.shaderLRU.Len() }

// SetCurrentEID updates the alias target for /current.
func (t *Tree) SetCurrentEID(eid uint64) { t.currentEID = eid }

// PopulateShaderSubtree inserts "/draws/<eid>/shader/<stage>" dirs and
// their four leaves for each non-zero-bound stage, evicting the
// least-recently-used subtree if the LRU is full (spec.md §4.7).
func (t *Tree) PopulateShaderSubtree(eid uint64, p *replay.PipelineState) {
	key := strconv.FormatUint(eid, 10)
	if t.shaderLRU.Has(key) {
		t.shaderLRU.Touch(key)
		return
	}
	base := "/draws/" + key + "/shader"
	var paths []string
	var stageNames []string
	for _, stage := range replay.Stages {
		if p.Shaders[stage] == 0 {
			continue
		}
		stageNames = append(stageNames, string(stage))
		sbase := base + "/" + string(stage)
		t.put(sbase, dir(string(stage), "disasm", "source", "reflect", "constants"))
		paths = append(paths, sbase)
		for _, leafName := range []string{"disasm", "source", "reflect", "constants"} {
			lp := sbase + "/" + leafName
			t.put(lp, leaf(leafName, "shader_"+leafName, map[string]string{"eid": key, "stage": string(stage)}))
			paths = append(paths, lp)
		}
	}
	t.static[base].Children = stageNames

	evKey, evPaths, evicted := t.shaderLRU.Insert(key, paths)
	if evicted {
		t.evict(evKey, evPaths)
	}
}

// evict removes every path of a subtree from the static dictionary in
// lockstep (spec.md §3 "all paths under that subtree are removed... in
// lockstep").
func (t *Tree) evict(key string, paths []string) {
	base := "/draws/" + key + "/shader"
	for _, p := range paths {
		delete(t.static, p)
	}
	if n, ok := t.static[base]; ok {
		n.Children = nil
	}
}

// PopulatePassDraws scans actions once, on first use for a pass, to list
// the draw eids within its window; BuildSkeleton leaves each
// /passes/<name>/draws directory empty until then.
func (t *Tree) PopulatePassDraws(passName string, flat []action.Flat) {
	if t.passDrawsDone[passName] {
		return
	}
	var pass *tables.Pass
	for i := range t.passes {
		if t.passes[i].Name == passName {
			pass = &t.passes[i]
			break
		}
	}
	if pass == nil {
		return
	}
	base := "/passes/" + passName + "/draws"
	var names []string
	for _, f := range flat {
		if f.Action.EventID < pass.BeginEID || f.Action.EventID > pass.EndEID {
			continue
		}
		if f.Type != action.TypeDraw && f.Type != action.TypeDrawIndexed {
			continue
		}
		n := strconv.FormatUint(f.Action.EventID, 10)
		names = append(names, n)
		t.put(base+"/"+n, leaf(n, "draw", map[string]string{"eid": n}))
	}
	t.static[base].Children = names
	t.passDrawsDone[passName] = true
}

// PopulateShaders inserts "/shaders/<sid>/{info,disasm}" for every shader
// in the cache, once (spec.md §4.5 side effect).
func (t *Tree) PopulateShaders(shaderIDs []uint64) {
	if t.shadersDone {
		return
	}
	var names []string
	for _, sid := range shaderIDs {
		n := strconv.FormatUint(sid, 10)
		names = append(names, n)
		base := "/shaders/" + n
		t.put(base, dir(n, "info", "disasm"))
		t.put(base+"/info", leaf("info", "shader_list_info", map[string]string{"id": n}))
		t.put(base+"/disasm", leaf("disasm", "shader_list_disasm", map[string]string{"id": n}))
	}
	t.static["/shaders"].Children = names
	t.shadersDone = true
}

// resolveAlias turns /current into /draws/<current_eid>.
func (t *Tree) resolveAlias(path string) string {
	if path == "/current" || strings.HasPrefix(path, "/current/") {
		rest := strings.TrimPrefix(path, "/current")
		return fmt.Sprintf("/draws/%d%s", t.currentEID, rest)
	}
	return path
}
