package daemon

import (
	"context"
	"os"

	"github.com/rdctools/rdcq/internal/replay"
	"github.com/rdctools/rdcq/internal/rpcerr"
)

// Binary-artifact handlers back the VFS's leaf_bin paths (spec.md §4.7:
// /draws/<n>/targets/*.png, /textures/<id>/*, /buffers/<id>/data). Every
// one writes into the session's temp directory and returns {path, size}
// for the client to fetch out of band (spec.md §4.8).

func findResourceRow(d *Daemon, id uint64) (name, typeName string, ok bool) {
	for _, r := range d.sess.Resources() {
		if r.ID == id {
			return r.DisplayName, r.TypeName, true
		}
	}
	return "", "", false
}

func writeArtifactResult(path string) (interface{}, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, rpcerr.Wrap(rpcerr.Internal, err, "stat-ing exported artifact")
	}
	return map[string]interface{}{"path": path, "size": info.Size()}, nil
}

func handleTexInfo(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	name, typeName, ok := findResourceRow(d, id)
	if !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
	}
	return map[string]interface{}{"id": id, "type": typeName, "name": name}, nil
}

func handleTexExport(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	if _, _, ok := findResourceRow(d, id); !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
	}
	spec := replay.TextureSpec{
		ResourceID: id,
		Mip:        intParam(p, "mip", 0),
		Slice:      intParam(p, "slice", 0),
		Sample:     intParam(p, "sample", 0),
	}
	path := d.sess.TempArtifactPath("tex", id, uniqueSuffix(), ".png")
	if err := d.sess.Adapter().SaveTexture(ctx, spec, path); err != nil {
		return nil, err
	}
	return writeArtifactResult(path)
}

// handleTexRaw serves /textures/<id>/data. The adapter's only texture
// export capability produces an encoded image, so "raw" here means "the
// same export, named for the data leaf" rather than an unencoded dump —
// there is no separate raw-texture-bytes primitive on the adapter.
func handleTexRaw(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	if _, _, ok := findResourceRow(d, id); !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
	}
	spec := replay.TextureSpec{ResourceID: id}
	path := d.sess.TempArtifactPath("tex", id, uniqueSuffix(), ".bin")
	if err := d.sess.Adapter().SaveTexture(ctx, spec, path); err != nil {
		return nil, err
	}
	return writeArtifactResult(path)
}

// handleTexStats reports what this adapter can say about a texture
// without decoding pixels: there is no min/max/mean-reading capability
// on Adapter (spec.md's replay library stays an opaque capability, §1),
// so this is the same identifying info as tex_info rather than invented
// pixel statistics.
func handleTexStats(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	return handleTexInfo(ctx, d, p)
}

func handleRTOverlay(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	overlay, err := requireString(p, "overlay")
	if err != nil {
		return nil, err
	}
	target := intParam(p, "target", 0)
	snap, err := d.sess.Pipeline().Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if err := d.sess.SetFrameEvent(ctx, d.sess.CurrentEID()); err != nil {
		return nil, err
	}
	if target < 0 || target >= len(snap.ColorTargets) || snap.ColorTargets[target] == 0 {
		return nil, rpcerr.New(rpcerr.NotFound, "no color target %d bound at eid %d", target, eid)
	}
	path := d.sess.TempArtifactPath("rt", eid, uniqueSuffix(), "_"+overlay+".png")
	spec := replay.TextureSpec{ResourceID: snap.ColorTargets[target], Overlay: overlay}
	if err := d.sess.Adapter().SaveTexture(ctx, spec, path); err != nil {
		return nil, err
	}
	return writeArtifactResult(path)
}

func handleBufInfo(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	name, typeName, ok := findResourceRow(d, id)
	if !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
	}
	return map[string]interface{}{"id": id, "type": typeName, "name": name}, nil
}

func handleBufRaw(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	id, err := requireUint(p, "id")
	if err != nil {
		return nil, err
	}
	if _, _, ok := findResourceRow(d, id); !ok {
		return nil, rpcerr.New(rpcerr.ResourceMissing, "no resource with id %d", id)
	}
	offset := uintParam(p, "offset", 0)
	size, err := requireUint(p, "size")
	if err != nil {
		return nil, err
	}
	data, err := d.sess.Adapter().GetBufferData(ctx, id, offset, size)
	if err != nil {
		return nil, err
	}
	path := d.sess.TempArtifactPath("buf", id, uniqueSuffix(), ".bin")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, rpcerr.Wrap(rpcerr.Internal, err, "writing buffer dump")
	}
	return writeArtifactResult(path)
}

func handleRTExport(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	target := intParam(p, "target", 0)
	snap, err := d.sess.Pipeline().Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if err := d.sess.SetFrameEvent(ctx, d.sess.CurrentEID()); err != nil {
		return nil, err
	}
	if target < 0 || target >= len(snap.ColorTargets) || snap.ColorTargets[target] == 0 {
		return nil, rpcerr.New(rpcerr.NotFound, "no color target %d bound at eid %d", target, eid)
	}
	path := d.sess.TempArtifactPath("rt", eid, uniqueSuffix(), ".png")
	spec := replay.TextureSpec{ResourceID: snap.ColorTargets[target]}
	if err := d.sess.Adapter().SaveTexture(ctx, spec, path); err != nil {
		return nil, err
	}
	return writeArtifactResult(path)
}

func handleRTDepth(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	snap, err := d.sess.Pipeline().Snapshot(ctx, eid)
	if err != nil {
		return nil, err
	}
	if err := d.sess.SetFrameEvent(ctx, d.sess.CurrentEID()); err != nil {
		return nil, err
	}
	if snap.DepthTarget == 0 {
		return nil, rpcerr.New(rpcerr.NotFound, "no depth target bound at eid %d", eid)
	}
	path := d.sess.TempArtifactPath("rt", eid, uniqueSuffix(), "_depth.png")
	spec := replay.TextureSpec{ResourceID: snap.DepthTarget}
	if err := d.sess.Adapter().SaveTexture(ctx, spec, path); err != nil {
		return nil, err
	}
	return writeArtifactResult(path)
}
