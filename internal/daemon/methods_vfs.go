package daemon

import (
	"context"
	"strconv"
	"strings"

	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/vfs"
)

const maxTreeDepth = 8

// populateOnDemand mirrors spec.md §4.7's "dynamic population" rule:
// touching /draws/<eid>/shader, /shaders, or /passes/<name>/draws
// triggers on-demand population before the path is resolved/listed.
func populateOnDemand(ctx context.Context, d *Daemon, path string) error {
	s := d.sess
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	switch {
	case len(segs) >= 3 && segs[0] == "draws" && segs[2] == "shader":
		eid, ok := parseUintSeg(segs[1])
		if !ok {
			return nil
		}
		snap, err := s.Pipeline().Snapshot(ctx, eid)
		if err != nil {
			return err
		}
		s.Tree().PopulateShaderSubtree(eid, snap)
		return s.SetFrameEvent(ctx, s.CurrentEID())
	case len(segs) >= 1 && segs[0] == "shaders":
		_, err := s.PreloadShaders(ctx)
		return err
	case len(segs) >= 3 && segs[0] == "passes" && segs[2] == "draws":
		s.Tree().PopulatePassDraws(segs[1], s.Flat())
		return nil
	}
	return nil
}

func parseUintSeg(seg string) (uint64, bool) {
	var v uint64
	if seg == "" {
		return 0, false
	}
	for _, c := range seg {
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	return v, true
}

func handleVFSLs(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	path, err := requireString(p, "path")
	if err != nil {
		return nil, err
	}
	if err := populateOnDemand(ctx, d, path); err != nil {
		return nil, err
	}
	names, rows, err := d.sess.Tree().Ls(path, boolParam(p, "long", false))
	if err != nil {
		return nil, err
	}
	if rows != nil {
		return map[string]interface{}{"names": names, "rows": rows}, nil
	}
	return map[string]interface{}{"names": names}, nil
}

// handleVFSCat resolves path to a leaf or leaf_bin handler and invokes it,
// merging the path's own numeric arguments (eid, id, set, binding, …)
// over any caller-supplied params of the same name (spec.md §4.7:
// path resolution feeds a handler dispatch rather than being an endpoint
// in its own right).
func handleVFSCat(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	path, err := requireString(p, "path")
	if err != nil {
		return nil, err
	}
	if err := populateOnDemand(ctx, d, path); err != nil {
		return nil, err
	}
	r, err := d.sess.Tree().Resolve(path)
	if err != nil {
		return nil, err
	}
	if r.Kind == vfs.KindDir {
		return nil, rpcerr.New(rpcerr.InvalidArgs, "%q is a directory", path)
	}
	h, ok := table[r.Handler]
	if !ok {
		return nil, rpcerr.New(rpcerr.InvalidArgs, "no handler registered for %q", r.Handler)
	}
	merged := make(map[string]interface{}, len(p)+len(r.Args))
	for k, v := range p {
		merged[k] = v
	}
	for k, v := range r.Args {
		// Route args are captured as strings (regex submatches / node args);
		// the handlers' param helpers expect JSON-number params (float64).
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			merged[k] = f
		} else {
			merged[k] = v
		}
	}
	return h(ctx, d, merged)
}

func handleVFSTree(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	path, err := requireString(p, "path")
	if err != nil {
		return nil, err
	}
	depth := intParam(p, "depth", 1)
	if depth < 1 || depth > maxTreeDepth {
		return nil, rpcerr.New(rpcerr.InvalidArgs, "depth must be in [1,%d]", maxTreeDepth)
	}
	node, err := walkTree(ctx, d, path, depth)
	if err != nil {
		return nil, err
	}
	return node, nil
}

type treeNode struct {
	Name     string      `json:"name"`
	Kind     string      `json:"kind"`
	Children []*treeNode `json:"children,omitempty"`
}

func walkTree(ctx context.Context, d *Daemon, path string, depth int) (*treeNode, error) {
	if err := populateOnDemand(ctx, d, path); err != nil {
		return nil, err
	}
	r, err := d.sess.Tree().Resolve(path)
	if err != nil {
		return nil, err
	}
	name := path
	if idx := strings.LastIndex(path, "/"); idx >= 0 && idx+1 < len(path) {
		name = path[idx+1:]
	}
	n := &treeNode{Name: name, Kind: kindName(r.Kind)}
	if r.Kind != vfs.KindDir || depth == 0 {
		return n, nil
	}
	names, _, err := d.sess.Tree().Ls(path, false)
	if err != nil {
		return nil, err
	}
	for _, child := range names {
		childPath := strings.TrimSuffix(path, "/") + "/" + child
		cn, err := walkTree(ctx, d, childPath, depth-1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, cn)
	}
	return n, nil
}

func kindName(k vfs.Kind) string {
	switch k {
	case vfs.KindDir:
		return "dir"
	case vfs.KindLeaf:
		return "leaf"
	case vfs.KindLeafBin:
		return "leaf_bin"
	case vfs.KindAlias:
		return "alias"
	default:
		return "unknown"
	}
}
