package vfs

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/tables"
)

// Resolved is the result of resolving a path: either a directory listing
// or a leaf handler dispatch (spec.md §4.7).
type Resolved struct {
	Kind    Kind
	Node    *Node
	Handler string
	Args    map[string]string
}

// These patterns match the dynamic leaf families that are not enumerated
// in the static dictionary: cbuffer/<set>/<binding>, targets/color<k>.png
// and depth.png, mips/<k>.png, and the per-id texture and buffer leaves.
var (
	reCBuffer  = regexp.MustCompile(`^/draws/(\d+)/cbuffer/(\d+)/(\d+)$`)
	reColorRT  = regexp.MustCompile(`^/draws/(\d+)/targets/color(\d+)\.png$`)
	reDepthRT  = regexp.MustCompile(`^/draws/(\d+)/targets/depth\.png$`)
	reTexMip   = regexp.MustCompile(`^/textures/(\d+)/mips/(\d+)\.png$`)
	reTexImg   = regexp.MustCompile(`^/textures/(\d+)/(info|image\.png|data)$`)
	reBufField = regexp.MustCompile(`^/buffers/(\d+)/(info|data)$`)
)

// Normalize trims a trailing "/" and rejects path traversal / empty
// segments (invariant 11).
func Normalize(path string) (string, error) {
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "", rpcerr.New(rpcerr.NotFound, "path must be absolute: %q", path)
	}
	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		trimmed = "/"
	}
	segs := strings.Split(strings.TrimPrefix(trimmed, "/"), "/")
	for _, s := range segs {
		if s == "" && trimmed != "/" {
			return "", rpcerr.New(rpcerr.NotFound, "empty path segment in %q", path)
		}
		if s == ".." {
			return "", rpcerr.New(rpcerr.NotFound, "path traversal rejected: %q", path)
		}
	}
	return trimmed, nil
}

// Resolve resolves path against the static dictionary, the /current
// alias, and the numeric dynamic-leaf patterns, longest match wins. A
// path with an unparseable numeric component is NotFound.
func (t *Tree) Resolve(rawPath string) (*Resolved, error) {
	path, err := Normalize(rawPath)
	if err != nil {
		return nil, err
	}
	path = t.resolveAlias(path)

	if n, ok := t.static[path]; ok {
		switch n.Kind {
		case KindDir:
			return &Resolved{Kind: KindDir, Node: n}, nil
		case KindLeaf, KindLeafBin:
			return &Resolved{Kind: n.Kind, Node: n, Handler: n.Handler, Args: n.Args}, nil
		}
	}

	if m := reCBuffer.FindStringSubmatch(path); m != nil {
		return &Resolved{Kind: KindLeaf, Handler: "cbuffer_decode", Args: map[string]string{"eid": m[1], "set": m[2], "binding": m[3]}}, nil
	}
	if m := reColorRT.FindStringSubmatch(path); m != nil {
		return &Resolved{Kind: KindLeafBin, Handler: "rt_export", Args: map[string]string{"eid": m[1], "target": m[2]}}, nil
	}
	if m := reDepthRT.FindStringSubmatch(path); m != nil {
		return &Resolved{Kind: KindLeafBin, Handler: "rt_depth", Args: map[string]string{"eid": m[1]}}, nil
	}
	if m := reTexMip.FindStringSubmatch(path); m != nil {
		return &Resolved{Kind: KindLeafBin, Handler: "tex_export", Args: map[string]string{"id": m[1], "mip": m[2]}}, nil
	}
	if m := reTexImg.FindStringSubmatch(path); m != nil {
		handler := map[string]string{"info": "tex_info", "image.png": "tex_export", "data": "tex_raw"}[m[2]]
		return &Resolved{Kind: kindFor(handler), Handler: handler, Args: map[string]string{"id": m[1]}}, nil
	}
	if m := reBufField.FindStringSubmatch(path); m != nil {
		handler := map[string]string{"info": "buf_info", "data": "buf_raw"}[m[2]]
		return &Resolved{Kind: kindFor(handler), Handler: handler, Args: map[string]string{"id": m[1]}}, nil
	}

	return nil, rpcerr.New(rpcerr.NotFound, "no such path: %q", rawPath)
}

func kindFor(handler string) Kind {
	if handler == "tex_export" || handler == "tex_raw" || handler == "buf_raw" {
		return KindLeafBin
	}
	return KindLeaf
}

// LsRow is one row of a long-format directory listing (spec.md §4.7).
type LsRow struct {
	Columns []string
	Values  []string
}

// Ls lists the children of a directory path. In long mode it returns a
// schema keyed by directory kind (e.g. passes -> NAME/DRAWS/DISPATCHES/
// TRIANGLES); missing values render as "-".
func (t *Tree) Ls(path string, long bool) ([]string, []LsRow, error) {
	r, err := t.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	if r.Kind != KindDir {
		return nil, nil, rpcerr.New(rpcerr.InvalidArgs, "%q is not a directory", path)
	}
	names := append([]string(nil), r.Node.Children...)
	if !long {
		return names, nil, nil
	}
	return names, t.longRows(path, names), nil
}

func (t *Tree) longRows(dirPath string, names []string) []LsRow {
	if dirPath == "/passes" {
		rows := make([]LsRow, 0, len(names))
		for _, name := range names {
			p := findPass(t.passes, name)
			if p == nil {
				rows = append(rows, LsRow{Columns: passColumns, Values: []string{name, "-", "-", "-"}})
				continue
			}
			rows = append(rows, LsRow{Columns: passColumns, Values: []string{
				p.Name, strconv.Itoa(p.Draws), strconv.Itoa(p.Dispatches), strconv.FormatUint(p.Triangles, 10),
			}})
		}
		return rows
	}
	rows := make([]LsRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, LsRow{Columns: []string{"NAME"}, Values: []string{name}})
	}
	return rows
}

var passColumns = []string{"NAME", "DRAWS", "DISPATCHES", "TRIANGLES"}

func findPass(passes []tables.Pass, name string) *tables.Pass {
	for i := range passes {
		if passes[i].Name == name {
			return &passes[i]
		}
	}
	return nil
}
