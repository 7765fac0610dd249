package daemon

import (
	"context"
	"os"

	"github.com/rdctools/rdcq/internal/query"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

const defaultTopDrawsN = 3

func handlePing(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	return map[string]interface{}{"pong": true}, nil
}

func handleOpenCapture(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	path, err := requireString(p, "path")
	if err != nil {
		return nil, err
	}
	if err := d.OpenCapture(ctx, path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true, "capture": d.sess.Capture, "api": "unknown"}, nil
}

func handleShutdown(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	if err := d.Shutdown(ctx); err != nil {
		return nil, err
	}
	return map[string]interface{}{"ok": true}, nil
}

// handleDoctor is the supplemented environment self-check RPC. It needs
// no open session (there may not be one yet), but like every method
// except ping it still requires the correct daemon token, since it
// reports the capture path and temp directory once a session exists.
func handleDoctor(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	result := map[string]interface{}{"addr": d.Addr, "has_session": d.sess != nil}
	if d.sess == nil {
		return result, nil
	}
	result["capture"] = d.sess.Capture
	result["temp_dir"] = d.sess.TempDir
	result["temp_dir_writable"] = tempDirWritable(d.sess.TempDir)
	if d.IdleTimeout > 0 {
		remaining := d.IdleTimeout - d.sess.IdleFor()
		if remaining < 0 {
			remaining = 0
		}
		result["idle_timeout_remaining_s"] = remaining.Seconds()
	}
	return result, nil
}

func tempDirWritable(dir string) bool {
	f, err := os.CreateTemp(dir, "doctor-probe-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func handleInfo(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	totals, _, err := s.Derived().Stats(ctx, s.Flat(), s.Passes(), s.CurrentEID())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"Capture":    s.Capture,
		"API":        "unknown",
		"Events":     len(s.Flat()),
		"Draw Calls": totals.TotalDraws,
		"Clears":     totals.Clears,
		"Copies":     totals.Copies,
	}, nil
}

func handleStats(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	_, perPass, err := s.Derived().Stats(ctx, s.Flat(), s.Passes(), s.CurrentEID())
	if err != nil {
		return nil, err
	}
	topDraws := query.TopDraws(s.Flat(), defaultTopDrawsN)
	return map[string]interface{}{"per_pass": perPass, "top_draws": topDraws}, nil
}

func handleLog(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	msgs, err := s.DebugMessages(ctx)
	if err != nil {
		return nil, err
	}
	level := stringParam(p, "level", "")
	hasEID := false
	var eid uint64
	if v, ok := p["eid"]; ok {
		if f, ok := v.(float64); ok {
			eid, hasEID = uint64(f), true
		}
	}
	out := make([]map[string]interface{}, 0, len(msgs))
	for _, m := range msgs {
		if level != "" && m.Severity != level {
			continue
		}
		if hasEID && m.EventID != eid {
			continue
		}
		out = append(out, map[string]interface{}{"level": m.Severity, "eid": m.EventID, "message": m.Message})
	}
	return map[string]interface{}{"messages": out}, nil
}
