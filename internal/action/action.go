// Package action flattens the replay's hierarchical action tree into a
// linear event sequence and classifies each action (spec.md §4.2).
package action

import (
	"github.com/rdctools/rdcq/internal/replay"
)

// Type is the fixed classification vocabulary of spec.md §4.2.
type Type string

const (
	TypeDraw        Type = "Draw"
	TypeDrawIndexed Type = "DrawIndexed"
	TypeDispatch    Type = "Dispatch"
	TypeClear       Type = "Clear"
	TypeCopy        Type = "Copy"
	TypeBeginPass   Type = "BeginPass"
	TypeEndPass     Type = "EndPass"
	TypeOther       Type = "Other"
)

// TypeOf classifies a flag word per spec.md §4.2. Mesh-shader dispatch
// must classify as a draw, never a dispatch (invariant 6).
func TypeOf(flags replay.ActionFlags) Type {
	isDrawish := flags&(replay.FlagDrawcall|replay.FlagMeshDraw|replay.FlagMeshDispatch) != 0
	switch {
	case isDrawish && flags&replay.FlagIndexed != 0:
		return TypeDrawIndexed
	case isDrawish:
		return TypeDraw
	case flags&replay.FlagDispatch != 0:
		return TypeDispatch
	case flags&replay.FlagClear != 0:
		return TypeClear
	case flags&replay.FlagCopy != 0:
		return TypeCopy
	case flags&replay.FlagBeginPass != 0:
		return TypeBeginPass
	case flags&replay.FlagEndPass != 0:
		return TypeEndPass
	default:
		return TypeOther
	}
}

// Triangles implements the spec.md §4.2 formula.
func Triangles(numIndices, numInstances uint64) uint64 {
	inst := numInstances
	if inst < 1 {
		inst = 1
	}
	return (numIndices / 3) * inst
}

// Flat is one flattened, depth-first record (spec.md §4.2).
type Flat struct {
	Action       *replay.Action
	Type         Type
	Depth        int
	ParentMarker string
	PassName     string
}

// Flatten walks roots depth-first, preserving order, and attaching the
// nearest ancestor marker name and enclosing pass name to each record.
func Flatten(roots []*replay.Action) []Flat {
	var out []Flat
	var walk func(a *replay.Action, depth int, marker, pass string)
	walk = func(a *replay.Action, depth int, marker, pass string) {
		t := TypeOf(a.Flags)
		rec := Flat{Action: a, Type: t, Depth: depth, ParentMarker: marker, PassName: pass}
		out = append(out, rec)

		childMarker := marker
		childPass := pass
		if a.Flags&replay.FlagSetMarker != 0 || (t == TypeOther && a.Name != "") {
			childMarker = a.Name
		}
		if t == TypeBeginPass {
			childPass = a.Name
		}
		if t == TypeEndPass {
			childPass = ""
		}
		for _, c := range a.Children {
			walk(c, depth+1, childMarker, childPass)
		}
	}
	for _, r := range roots {
		walk(r, 0, "", "")
	}
	return out
}
