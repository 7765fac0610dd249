package daemon

import "context"

func handleDebugPixel(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	x := intParam(p, "x", 0)
	y := intParam(p, "y", 0)
	sample := intParam(p, "sample", 0)
	return d.sess.DebugTrace().Pixel(ctx, eid, x, y, sample)
}

func handleDebugVertex(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	vtxID, err := requireUint(p, "vtx_id")
	if err != nil {
		return nil, err
	}
	instance := intParam(p, "instance", 0)
	return d.sess.DebugTrace().Vertex(ctx, eid, vtxID, instance)
}

func handleDebugThread(ctx context.Context, d *Daemon, p map[string]interface{}) (interface{}, error) {
	eid, err := requireUint(p, "eid")
	if err != nil {
		return nil, err
	}
	gx, gy, gz := intParam(p, "gx", 0), intParam(p, "gy", 0), intParam(p, "gz", 0)
	tx, ty, tz := intParam(p, "tx", 0), intParam(p, "ty", 0), intParam(p, "tz", 0)
	return d.sess.DebugTrace().Thread(ctx, eid, gx, gy, gz, tx, ty, tz)
}
