// Package daemon implements the JSON-RPC 2.0 server loop of spec.md §4.8:
// newline-delimited framing over a loopback TCP listener, a token gate,
// and a method dispatch table wired to the session and its services.
// Grounded on the teacher's gapis/client request/response shapes and
// core/app/auth token-check pattern, adapted from a grpc client surface
// to a plain net.Listener JSON-RPC server.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"time"

	"github.com/rdctools/rdcq/internal/rlog"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/session"
)

// Request is one JSON-RPC 2.0 request object (spec.md §6). Params carries
// the method's named arguments plus the reserved "_token" key.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is one JSON-RPC 2.0 response object.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
}

type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Daemon serves one capture session over loopback TCP (spec.md §5). A
// fresh Daemon has no session until open_capture succeeds.
type Daemon struct {
	Addr        string
	IdleTimeout time.Duration

	// Token gates open_capture and doctor, the two methods reachable
	// before a session exists to hold its own token (spec.md §6
	// invariant 12: every method but ping checks params._token).
	Token string

	sess *session.Session

	// Open binds a capture path to a freshly constructed adapter and
	// returns an opened session; injected so daemon.go stays independent
	// of any one replay backend.
	Open func(ctx context.Context, capturePath string) (*session.Session, error)

	done chan struct{}
}

// New constructs a Daemon bound to the given capture opener.
func New(opener func(ctx context.Context, capturePath string) (*session.Session, error), idleTimeout time.Duration) *Daemon {
	return &Daemon{Open: opener, IdleTimeout: idleTimeout, done: make(chan struct{})}
}

// Serve listens on a loopback ephemeral port (or addr, if non-empty) and
// accepts connections until ctx is cancelled or shutdown is requested.
// One connection handles exactly one request/response pair, matching the
// teacher's short-lived RPC connection style in gapis/client.
func (d *Daemon) Serve(ctx context.Context, addr string) (string, error) {
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", rpcerr.Wrap(rpcerr.Internal, err, "listening on %s", addr)
	}
	d.Addr = ln.Addr().String()

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go d.acceptLoop(ctx, ln)
	if d.IdleTimeout > 0 {
		go d.idleWatch(ctx)
	}
	return d.Addr, nil
}

func (d *Daemon) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-d.done:
				return
			default:
				rlog.E(ctx, "accept failed: %v", err)
				return
			}
		}
		go d.handleConn(ctx, conn)
	}
}

func (d *Daemon) idleWatch(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.done:
			return
		case <-ticker.C:
			if d.sess != nil && d.sess.IdleFor() > d.IdleTimeout {
				rlog.I(ctx, "idle timeout exceeded, shutting down")
				d.Shutdown(ctx)
				return
			}
		}
	}
}

func (d *Daemon) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return
	}
	if len(line) == 0 {
		return
	}

	var req Request
	resp := Response{JSONRPC: "2.0"}
	if err := json.Unmarshal(line, &req); err != nil {
		resp.Error = &wireError{Code: rpcerr.InvalidArgs.Code(), Message: "malformed request: " + err.Error()}
		d.writeResponse(conn, resp)
		return
	}
	resp.ID = req.ID

	result, rpcErr := d.Dispatch(ctx, req)
	if rpcErr != nil {
		if e, ok := rpcerr.As(rpcErr); ok {
			resp.Error = &wireError{Code: e.Code(), Message: e.Error()}
		} else {
			resp.Error = &wireError{Code: rpcerr.Internal.Code(), Message: rpcErr.Error()}
		}
	} else {
		resp.Result = result
	}
	d.writeResponse(conn, resp)
}

func (d *Daemon) writeResponse(conn net.Conn, resp Response) {
	buf, err := json.Marshal(resp)
	if err != nil {
		return
	}
	buf = append(buf, '\n')
	conn.Write(buf)
}

// Done reports when the server loop has stopped, whether from an
// explicit shutdown RPC, an idle timeout, or the caller cancelling its
// context — the one signal a launcher needs to know it's safe to exit.
func (d *Daemon) Done() <-chan struct{} { return d.done }

// OpenCapture binds path to a freshly opened session via the daemon's
// configured opener. Used by handleOpenCapture for the RPC path and by
// cmd/rdcd to open eagerly at startup when a capture path is already
// known (spec.md §4.8 open_capture; §2.3 launcher configuration).
func (d *Daemon) OpenCapture(ctx context.Context, path string) error {
	if d.sess != nil {
		return rpcerr.New(rpcerr.InvalidArgs, "a capture is already open on this daemon")
	}
	sess, err := d.Open(ctx, path)
	if err != nil {
		return err
	}
	d.sess = sess
	return nil
}

// Shutdown frees shader replacements, closes the adapter, removes the
// temp directory, and stops the server loop (spec.md §4.8). Idempotent.
func (d *Daemon) Shutdown(ctx context.Context) error {
	select {
	case <-d.done:
		return nil
	default:
		close(d.done)
	}
	if d.sess == nil {
		return nil
	}
	return d.sess.Shutdown(ctx)
}
