package daemon

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
	"github.com/rdctools/rdcq/internal/session"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	opener := func(ctx context.Context, path string) (*session.Session, error) {
		return session.Open(ctx, path, replay.NewFake(), 8, 0, "test-token")
	}
	d := New(opener, 0)
	d.Token = "test-token"
	t.Cleanup(func() { d.Shutdown(context.Background()) })
	return d
}

func dispatch(t *testing.T, d *Daemon, method string, params map[string]interface{}) (interface{}, error) {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	return d.Dispatch(context.Background(), Request{JSONRPC: "2.0", Method: method, Params: raw})
}

func TestDispatchUnknownMethodIsMethodNotFound(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "nope", nil)
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.MethodNotFound {
		t.Fatalf("err = %v, want MethodNotFound", err)
	}
}

func TestDispatchRequiresSessionBeforeOpenCapture(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "stats", nil)
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.NoSession {
		t.Fatalf("err = %v, want NoSession", err)
	}
}

func TestDispatchPingNeverNeedsASession(t *testing.T) {
	d := newTestDaemon(t)
	if _, err := dispatch(t, d, "ping", nil); err != nil {
		t.Fatalf("ping returned error: %v", err)
	}
}

func TestDispatchRejectsBadToken(t *testing.T) {
	d := newTestDaemon(t)
	if _, err := dispatch(t, d, "open_capture", map[string]interface{}{"path": "test.rdc", "_token": "test-token"}); err != nil {
		t.Fatalf("open_capture returned error: %v", err)
	}

	_, err := dispatch(t, d, "stats", map[string]interface{}{"_token": "wrong"})
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.Unauthorized {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestDispatchAcceptsCorrectToken(t *testing.T) {
	d := newTestDaemon(t)
	if _, err := dispatch(t, d, "open_capture", map[string]interface{}{"path": "test.rdc", "_token": "test-token"}); err != nil {
		t.Fatalf("open_capture returned error: %v", err)
	}

	_, err := dispatch(t, d, "stats", map[string]interface{}{"_token": "test-token"})
	if err != nil {
		t.Fatalf("stats returned error: %v", err)
	}
}

func TestDispatchRejectsOpenCaptureWithoutToken(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "open_capture", map[string]interface{}{"path": "test.rdc"})
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.Unauthorized {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestDispatchRejectsOpenCaptureWithWrongToken(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "open_capture", map[string]interface{}{"path": "test.rdc", "_token": "wrong"})
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.Unauthorized {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestDispatchRejectsDoctorWithoutToken(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "doctor", nil)
	e, ok := rpcerr.As(err)
	if !ok || e.Kind != rpcerr.Unauthorized {
		t.Fatalf("err = %v, want Unauthorized", err)
	}
}

func TestDispatchAcceptsDoctorWithCorrectToken(t *testing.T) {
	d := newTestDaemon(t)
	_, err := dispatch(t, d, "doctor", map[string]interface{}{"_token": "test-token"})
	if err != nil {
		t.Fatalf("doctor returned error: %v", err)
	}
}
