// Package vfs implements the virtual filesystem of spec.md §4.7: a
// static path dictionary with dynamic populate-on-demand subtrees and a
// bounded LRU with lockstep eviction.
package vfs

// Kind is a VFS node kind (spec.md §3).
type Kind int

const (
	KindDir Kind = iota
	KindLeaf
	KindLeafBin
	KindAlias
)

// Node is one VFS tree node.
type Node struct {
	Name     string
	Kind     Kind
	Children []string // ordered child names (leaf segment only)
	Handler  string   // handler name for leaf/leaf_bin nodes
	Args     map[string]string
	AliasTo  string // only /current uses this today
}

func dir(name string, children ...string) *Node {
	return &Node{Name: name, Kind: KindDir, Children: children}
}

func leaf(name, handler string, args map[string]string) *Node {
	return &Node{Name: name, Kind: KindLeaf, Handler: handler, Args: args}
}

func leafBin(name, handler string, args map[string]string) *Node {
	return &Node{Name: name, Kind: KindLeafBin, Handler: handler, Args: args}
}
