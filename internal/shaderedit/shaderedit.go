// Package shaderedit implements the optional shader edit/replace/restore
// capability of spec.md §4.10: build replacement shaders from source,
// bind them in place of the original at a given EID, revert, and track
// everything so it can be freed on shutdown.
package shaderedit

import (
	"context"
	"fmt"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

// Encodings lists the source encodings the adapter accepts for a build.
// Fixed today; becomes adapter-reported if a backend ever needs to vary it.
var Encodings = []string{"glsl", "hlsl", "spirv"}

// Tracker holds the two maps spec.md §4.10 requires: shader ids built by
// this session, and the original->replacement binding per (eid, stage),
// so RestoreAll and Shutdown can undo everything without caller bookkeeping.
type Tracker struct {
	built      map[uint64]bool
	replacedBy map[string]uint64 // "eid/stage" -> shader id
}

func NewTracker() *Tracker {
	return &Tracker{built: map[uint64]bool{}, replacedBy: map[string]uint64{}}
}

// Service binds a Tracker to an adapter.
type Service struct {
	Adapter replay.Adapter
	Tracker *Tracker
}

func New(a replay.Adapter, t *Tracker) *Service { return &Service{Adapter: a, Tracker: t} }

// Build compiles source for stage/entry using encoding, returning the new
// shader resource id. The id is tracked as built (spec.md §4.10).
func (s *Service) Build(ctx context.Context, stage replay.Stage, source, encoding, entry string) (uint64, error) {
	valid := false
	for _, e := range Encodings {
		if e == encoding {
			valid = true
			break
		}
	}
	if !valid {
		return 0, rpcerr.New(rpcerr.InvalidArgs, "unsupported shader encoding %q", encoding)
	}
	id, err := s.Adapter.BuildShader(ctx, stage, source, encoding, entry)
	if err != nil {
		return 0, err
	}
	s.Tracker.built[id] = true
	return id, nil
}

// Replace binds shaderID at (eid, stage) in place of the original.
func (s *Service) Replace(ctx context.Context, eid uint64, stage replay.Stage, shaderID uint64) error {
	if err := s.Adapter.ReplaceShader(ctx, eid, stage, shaderID); err != nil {
		return err
	}
	s.Tracker.replacedBy[key(eid, stage)] = shaderID
	return nil
}

// Restore reverts (eid, stage) to the original shader.
func (s *Service) Restore(ctx context.Context, eid uint64, stage replay.Stage) error {
	if err := s.Adapter.RestoreShader(ctx, eid, stage); err != nil {
		return err
	}
	delete(s.Tracker.replacedBy, key(eid, stage))
	return nil
}

// RestoreAll reverts every tracked replacement and frees every built
// shader resource; succeeds on empty state (spec.md §7 idempotence).
func (s *Service) RestoreAll(ctx context.Context) error {
	for k := range s.Tracker.replacedBy {
		eid, stage, ok := splitKey(k)
		if !ok {
			continue
		}
		if err := s.Adapter.RestoreShader(ctx, eid, stage); err != nil {
			return err
		}
	}
	for k := range s.Tracker.replacedBy {
		delete(s.Tracker.replacedBy, k)
	}
	return s.FreeBuilt(ctx)
}

// FreeBuilt frees every shader id this session built, used both by
// RestoreAll and by Shutdown's cleanup path (spec.md §4.10).
func (s *Service) FreeBuilt(ctx context.Context) error {
	for id := range s.Tracker.built {
		if err := s.Adapter.FreeShader(ctx, id); err != nil {
			return err
		}
		delete(s.Tracker.built, id)
	}
	return nil
}

func key(eid uint64, stage replay.Stage) string { return fmt.Sprintf("%d/%s", eid, stage) }

func splitKey(k string) (uint64, replay.Stage, bool) {
	for i := 0; i < len(k); i++ {
		if k[i] == '/' {
			var eid uint64
			for _, c := range k[:i] {
				if c < '0' || c > '9' {
					return 0, "", false
				}
				eid = eid*10 + uint64(c-'0')
			}
			return eid, replay.Stage(k[i+1:]), true
		}
	}
	return 0, "", false
}
