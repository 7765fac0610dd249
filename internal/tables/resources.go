package tables

import "github.com/rdctools/rdcq/internal/replay"

// ResourceRow is the base resource table row (spec.md §4.3): no
// width/height/depth/format here, those live in tex_info/buf_info.
type ResourceRow struct {
	ID          uint64
	TypeName    string
	DisplayName string
}

// NullResourceID is the sentinel that must never appear as src/dst of a
// pass-dependency edge (spec.md §3).
const NullResourceID = 0

// BuildResources enumerates the adapter's resources into table rows.
func BuildResources(resources []replay.Resource) []ResourceRow {
	rows := make([]ResourceRow, 0, len(resources))
	for _, r := range resources {
		rows = append(rows, ResourceRow{ID: r.ID, TypeName: r.TypeName, DisplayName: r.DisplayName})
	}
	return rows
}
