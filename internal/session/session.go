// Package session owns the per-capture session state: the replay cursor,
// derived tables, VFS tree, and shader cache, all behind one lock
// (spec.md §5). No handler is reentrant.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rdctools/rdcq/internal/action"
	"github.com/rdctools/rdcq/internal/debugtrace"
	"github.com/rdctools/rdcq/internal/pipeline"
	"github.com/rdctools/rdcq/internal/query"
	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/shadercache"
	"github.com/rdctools/rdcq/internal/shaderedit"
	"github.com/rdctools/rdcq/internal/tables"
	"github.com/rdctools/rdcq/internal/vfs"
)

// Session is an in-memory binding of one .rdc file to a replay controller
// plus derived tables (spec.md §3). One session owns exactly one replay.
type Session struct {
	Token   string
	Capture string
	TempDir string

	mu         sync.Mutex
	adapter    replay.Adapter
	roots      []*replay.Action
	flat       []action.Flat
	passes     []tables.Pass
	resources  []tables.ResourceRow
	tree       *vfs.Tree
	cache      *shadercache.Cache
	pipeline   *pipeline.Service
	derived    *query.Service
	currentEID uint64

	debugCache     []replay.DebugMessage
	debugCacheDone bool

	edit  *shaderedit.Service
	trace *debugtrace.Service

	idleTimeout time.Duration
	lastActive  time.Time
	closed      bool
}

// GenToken returns a 16-hex-char random token (spec.md §3, §6), grounded
// on the teacher's auth.GenToken (core/app/auth/auth.go) but sized to the
// spec's 16-hex-char contract instead of gapid's 8-char base64 token.
func GenToken() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("rand.Read: %v", err))
	}
	return hex.EncodeToString(buf)
}

// Open loads a replay via adapter (already bound to capturePath by the
// caller), builds the action/resource tables and VFS skeleton, and
// returns a ready Session (spec.md §4.8 open_capture). token, when
// non-empty, is used verbatim instead of a freshly generated one — the
// diff orchestrator pins each launched daemon's token up front so it can
// hand it to callers before the daemon has even opened a capture.
func Open(ctx context.Context, capturePath string, adapter replay.Adapter, lruCapacity int, idleTimeout time.Duration, token string) (*Session, error) {
	roots, err := adapter.GetRootActions(ctx)
	if err != nil {
		return nil, replay.WrapInternal(err, "loading root actions")
	}
	resources, err := adapter.GetResources(ctx)
	if err != nil {
		return nil, replay.WrapInternal(err, "loading resources")
	}

	flat := action.Flatten(roots)
	passes := tables.BuildPasses(flat)
	resourceRows := tables.BuildResources(resources)
	tree := vfs.BuildSkeleton(flat, passes, resourceRows, lruCapacity)

	tempDir, err := os.MkdirTemp("", "rdcq-session-*")
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Internal, err, "creating temp dir")
	}

	cache := shadercache.New(adapter)

	if token == "" {
		token = GenToken()
	}
	s := &Session{
		Token:       token,
		Capture:     capturePath,
		TempDir:     tempDir,
		adapter:     adapter,
		roots:       roots,
		flat:        flat,
		passes:      passes,
		resources:   resourceRows,
		tree:        tree,
		cache:       cache,
		pipeline:    pipeline.New(adapter),
		derived:     query.New(adapter),
		edit:        shaderedit.New(adapter, shaderedit.NewTracker()),
		trace:       debugtrace.New(adapter),
		idleTimeout: idleTimeout,
		lastActive:  time.Now(),
	}
	return s, nil
}

func cacheShaderIDs(c *shadercache.Cache) []uint64 {
	ids := make([]uint64, 0, len(c.Disasm))
	for id := range c.Disasm {
		ids = append(ids, id)
	}
	return ids
}

// PreloadShaders triggers the shader cache's single-walk build and
// populates the static "/shaders" directory from it. Safe to call more
// than once: the cache's own built sentinel makes every call after the
// first a no-op that issues zero additional SetFrameEvent calls (spec.md
// §4.5 invariant, exercised by the "shaders_preload" RPC). Callers
// already hold the session lock; the adapter cursor is sought back to the
// session's current EID before returning.
func (s *Session) PreloadShaders(ctx context.Context) (int, error) {
	savedEID := s.currentEID
	if err := s.cache.Build(ctx, s.roots); err != nil {
		return 0, replay.WrapInternal(err, "preloading shaders")
	}
	if err := s.adapter.SetFrameEvent(ctx, savedEID); err != nil {
		return 0, err
	}
	s.tree.PopulateShaders(cacheShaderIDs(s.cache))
	return len(s.cache.Disasm), nil
}

// Lock must be held by every handler (spec.md §5). Lock also records
// activity for the idle timer.
func (s *Session) Lock() {
	s.mu.Lock()
	s.lastActive = time.Now()
}

func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) Adapter() replay.Adapter        { return s.adapter }
func (s *Session) Flat() []action.Flat            { return s.flat }
func (s *Session) Passes() []tables.Pass          { return s.passes }
func (s *Session) Resources() []tables.ResourceRow { return s.resources }
func (s *Session) Tree() *vfs.Tree                { return s.tree }
func (s *Session) Cache() *shadercache.Cache      { return s.cache }
func (s *Session) Pipeline() *pipeline.Service    { return s.pipeline }
func (s *Session) Derived() *query.Service        { return s.derived }
func (s *Session) CurrentEID() uint64             { return s.currentEID }
func (s *Session) ShaderEdit() *shaderedit.Service { return s.edit }
func (s *Session) DebugTrace() *debugtrace.Service { return s.trace }

// SetFrameEvent seeks the cursor and updates the /current alias target.
// Callers already hold the session lock.
func (s *Session) SetFrameEvent(ctx context.Context, eid uint64) error {
	if err := s.adapter.SetFrameEvent(ctx, eid); err != nil {
		return err
	}
	s.currentEID = eid
	s.tree.SetCurrentEID(eid)
	return nil
}

// IdleFor reports how long the session has been inactive.
func (s *Session) IdleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

// IdleTimeout is the configured self-termination duration, 0 = disabled.
func (s *Session) IdleTimeout() time.Duration { return s.idleTimeout }

// DebugMessages returns the debug-message cache, populating it lazily on
// first call and never refreshing it thereafter (spec.md §5, and the
// open question in spec.md §9 about staleness after later invalidation —
// preserved deliberately, not treated as a bug).
func (s *Session) DebugMessages(ctx context.Context) ([]replay.DebugMessage, error) {
	if s.debugCacheDone {
		return s.debugCache, nil
	}
	msgs, err := s.adapter.GetDebugMessages(ctx)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		if !isKnownSeverity(msgs[i].Severity) {
			msgs[i].Severity = "UNKNOWN"
		}
	}
	s.debugCache = msgs
	s.debugCacheDone = true
	return s.debugCache, nil
}

func isKnownSeverity(s string) bool {
	switch s {
	case "HIGH", "MEDIUM", "LOW", "INFO":
		return true
	default:
		return false
	}
}

// Shutdown frees outstanding shader replacements before closing the
// adapter, then removes the temp directory on all exit paths (spec.md
// §4.8, §4.10, §7 idempotence). Safe to call on empty state.
func (s *Session) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	_ = s.edit.FreeBuilt(ctx)

	adapterErr := s.adapter.Shutdown(ctx)
	rmErr := os.RemoveAll(s.TempDir)
	if adapterErr != nil {
		return replay.WrapInternal(adapterErr, "adapter shutdown")
	}
	if rmErr != nil {
		return rpcerr.Wrap(rpcerr.Internal, rmErr, "removing temp dir")
	}
	return nil
}

// TempArtifactPath returns a unique path under the session's temp
// directory for a binary artifact, named "<kind>_<id>_<suffix>.ext"
// (spec.md §4.8; the random suffix avoids collisions between concurrent
// calls instead of relying on a single counter).
func (s *Session) TempArtifactPath(kind string, id uint64, suffix, ext string) string {
	name := fmt.Sprintf("%s_%d_%s%s", kind, id, suffix, ext)
	return filepath.Join(s.TempDir, name)
}
