package daemon

import (
	"context"

	"github.com/rdctools/rdcq/internal/query"
)

func handleSearch(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	pattern, err := requireString(p, "pattern")
	if err != nil {
		return nil, err
	}
	opts := query.SearchOptions{
		Pattern:       pattern,
		Stage:         stringParam(p, "stage", ""),
		CaseSensitive: boolParam(p, "case_sensitive", false),
		Limit:         intParam(p, "limit", 0),
		Context:       intParam(p, "context", 0),
	}
	matches, truncated, err := query.Search(d.sess.Cache(), opts)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"matches": matches, "truncated": truncated}, nil
}

func handleCount(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	what, err := requireString(p, "what")
	if err != nil {
		return nil, err
	}
	pass := stringParam(p, "pass", "")
	s := d.sess
	value, err := query.Count(what, pass, s.Flat(), s.Passes(), s.Resources(), s.Cache())
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"value": value}, nil
}

func handleShaderMap(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	rows := query.ShaderMap(s.Flat(), s.Cache())
	return map[string]interface{}{"rows": rows}, nil
}
