// Package diff implements the diff orchestrator of spec.md §4.9: launch
// two daemon subprocesses on distinct loopback ports with independent
// tokens, fan queries out to both and join the results tolerating
// independent failures, then align and classify their draw sequences and
// diff their resource tables and per-pass stats.
//
// Grounded on the teacher's gapis/client/process.go (spawn a server
// binary, dial it, carry a per-connection auth token) adapted from a
// persistent grpc connection to the short-lived JSON-RPC-per-request
// style of internal/daemon, and on golang.org/x/sync/errgroup (already an
// ecosystem sibling of the teacher's golang.org/x/* dependencies) to fan
// the two daemons' RPCs out and join them.
package diff

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/rdctools/rdcq/internal/daemon"
	"github.com/rdctools/rdcq/internal/rlog"
	"github.com/rdctools/rdcq/internal/session"
)

// IdleTimeout is the fixed self-termination bound every diff-mode daemon
// is launched with, so an orphaned pair cannot outlive a crashed parent
// indefinitely (spec.md §4.9 "Launch").
const IdleTimeout = 120 * time.Second

// daemonProc is one launched rdcd subprocess: its listening address and
// the token every RPC to it must carry.
type daemonProc struct {
	cmd   *exec.Cmd
	addr  string
	token string
}

// Orchestrator owns the pair of daemon subprocesses being compared and
// the 12-hex session id that distinguishes the pair in logs (spec.md
// §4.9 "Session identity").
type Orchestrator struct {
	SessionID string

	a, b *daemonProc
}

// readyLine is the first line a launched daemon prints to stdout once its
// listener is up, mirroring the minimal handshake the teacher's
// process.StartOnDevice expects from a spawned server (gapis/client/process.go).
type readyLine struct {
	Addr string `json:"addr"`
}

// Launch starts two rdcd subprocesses, one per capture path, each on its
// own ephemeral loopback port with its own random token, and waits for
// both to report ready (spec.md §4.9 "Launch").
func Launch(ctx context.Context, rdcdPath, captureA, captureB string) (*Orchestrator, error) {
	o := &Orchestrator{SessionID: shortID()}

	// A plain errgroup.Group, not errgroup.WithContext: that context is
	// cancelled when Wait returns, and spawn ties each daemon's lifetime to
	// the context it is given.
	var g errgroup.Group
	procs := make([]*daemonProc, 2)
	captures := []string{captureA, captureB}
	for i := range captures {
		i := i
		g.Go(func() error {
			p, err := spawn(ctx, rdcdPath, captures[i])
			if err != nil {
				return errors.Wrapf(err, "launching daemon %d", i)
			}
			procs[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.a, o.b = procs[0], procs[1]
		o.Close()
		return nil, err
	}
	o.a, o.b = procs[0], procs[1]
	rlog.I(ctx, "diff session %s: daemon A %s, daemon B %s", o.SessionID, o.a.addr, o.b.addr)
	return o, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// spawn starts one rdcd subprocess bound to capturePath and blocks until
// it prints its listening address on stdout's first line. The token is
// generated here and handed to the child over a temp file rather than
// argv, so it never shows up in a process listing.
func spawn(ctx context.Context, rdcdPath, capturePath string) (*daemonProc, error) {
	token := session.GenToken()
	tokenFile, err := os.CreateTemp("", "rdcq-token-*")
	if err != nil {
		return nil, err
	}
	tokenPath := tokenFile.Name()
	if _, err := tokenFile.WriteString(token); err != nil {
		tokenFile.Close()
		os.Remove(tokenPath)
		return nil, err
	}
	tokenFile.Close()

	cmd := exec.CommandContext(ctx, rdcdPath,
		"--capture", capturePath,
		"--token-file", tokenPath,
		"--idle-timeout", IdleTimeout.String(),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		os.Remove(tokenPath)
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		os.Remove(tokenPath)
		return nil, err
	}

	line, err := bufio.NewReader(stdout).ReadString('\n')
	if err != nil {
		cmd.Process.Kill()
		os.Remove(tokenPath)
		return nil, errors.Wrap(err, "reading daemon ready line")
	}
	var ready readyLine
	if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &ready); err != nil {
		cmd.Process.Kill()
		os.Remove(tokenPath)
		return nil, errors.Wrap(err, "parsing daemon ready line")
	}
	os.Remove(tokenPath)
	return &daemonProc{cmd: cmd, addr: ready.Addr, token: token}, nil
}

// Close terminates both subprocesses. Safe to call on a partially
// launched Orchestrator and more than once.
func (o *Orchestrator) Close() {
	for _, p := range []*daemonProc{o.a, o.b} {
		if p == nil || p.cmd == nil || p.cmd.Process == nil {
			continue
		}
		p.cmd.Process.Kill()
	}
}

// call issues one JSON-RPC request to a single daemon, injecting the
// daemon's token into a copy of params so the caller's map is never
// mutated (spec.md §4.9 "Query").
func call(ctx context.Context, p *daemonProc, method string, params map[string]interface{}) (interface{}, error) {
	withToken := make(map[string]interface{}, len(params)+1)
	for k, v := range params {
		withToken[k] = v
	}
	withToken["_token"] = p.token

	paramsJSON, err := json.Marshal(withToken)
	if err != nil {
		return nil, err
	}
	req := daemon.Request{JSONRPC: "2.0", Method: method, Params: paramsJSON}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", p.addr)
	}
	defer conn.Close()

	if _, err := conn.Write(append(reqJSON, '\n')); err != nil {
		return nil, err
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	var resp daemon.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// QueryBoth fans method/params out to both daemons and joins the two
// results, tolerating either side failing independently (spec.md §4.9
// "Query"): a non-nil error on one side never suppresses the other's
// result.
func (o *Orchestrator) QueryBoth(ctx context.Context, method string, params map[string]interface{}) (a, b interface{}, errA, errB error) {
	// A plain errgroup.Group, not errgroup.WithContext: one side's error
	// must never cancel the other's in-flight call (independent failures).
	var g errgroup.Group
	g.Go(func() error {
		a, errA = call(ctx, o.a, method, params)
		return nil
	})
	g.Go(func() error {
		b, errB = call(ctx, o.b, method, params)
		return nil
	})
	g.Wait()
	return a, b, errA, errB
}

// Call is one (method, params) pair for QueryBothSync.
type Call struct {
	Method string
	Params map[string]interface{}
}

// PairResult is the joined outcome of one Call against both daemons.
type PairResult struct {
	A, B         interface{}
	ErrA, ErrB   error
}

// QueryBothSync runs a sequence of calls, preserving per-call pairing:
// call N's A-side and B-side results are paired together regardless of
// which daemon answers first (spec.md §4.9 "Query").
func (o *Orchestrator) QueryBothSync(ctx context.Context, calls []Call) []PairResult {
	out := make([]PairResult, len(calls))
	for i, c := range calls {
		a, b, errA, errB := o.QueryBoth(ctx, c.Method, c.Params)
		out[i] = PairResult{A: a, B: b, ErrA: errA, ErrB: errB}
	}
	return out
}
