package replay

import "context"

// Connect opens capturePath against the real RenderDoc replay capability
// and returns an Adapter bound to it. The capability itself — the FFI
// binding into the renderdoc replay core — is an opaque external
// collaborator (spec.md §1 lists "the underlying RenderDoc replay
// library" among the out-of-scope collaborators this daemon is built
// against, not built into); Connect is the seam a real build wires a
// concrete binding into. cmd/rdcd calls this, never NewFake, so the
// daemon binary's only non-test path into a replay session runs through
// a documented boundary instead of a duck-typed FFI handle.
//
// This build has no FFI binding to wire in, so Connect reports that
// plainly rather than silently handing back a fake session.
func Connect(ctx context.Context, capturePath string) (Adapter, error) {
	return nil, WrapInternal(
		errNoBinding,
		"opening %q: no RenderDoc replay binding compiled into this build", capturePath,
	)
}

var errNoBinding = &bindingError{}

type bindingError struct{}

func (*bindingError) Error() string {
	return "replay.Connect: no backing implementation registered"
}
