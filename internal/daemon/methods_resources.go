package daemon

import (
	"context"
	"sort"

	"github.com/rdctools/rdcq/internal/rpcerr"
)

func handleResources(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	s := d.sess
	typeFilter := stringParam(p, "type", "")
	nameFilter := stringParam(p, "name", "")
	sortKey := stringParam(p, "sort", "")

	type row struct {
		ID   uint64 `json:"id"`
		Type string `json:"type"`
		Name string `json:"name"`
	}
	var rows []row
	for _, r := range s.Resources() {
		if typeFilter != "" && r.TypeName != typeFilter {
			continue
		}
		if nameFilter != "" && !containsFold(r.DisplayName, nameFilter) {
			continue
		}
		rows = append(rows, row{ID: r.ID, Type: r.TypeName, Name: r.DisplayName})
	}
	switch sortKey {
	case "name":
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	case "id", "":
	default:
		return nil, rpcerr.New(rpcerr.InvalidArgs, "unknown sort key %q", sortKey)
	}
	return map[string]interface{}{"rows": rows}, nil
}

func handleResource(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	for _, r := range d.sess.Resources() {
		if r.ID == id {
			return map[string]interface{}{"resource": map[string]interface{}{"id": r.ID, "type": r.TypeName, "name": r.DisplayName}}, nil
		}
	}
	return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
}
