package daemon

import "github.com/google/uuid"

// uniqueSuffix gives each binary artifact a collision-free name so two
// exports of the same (kind, id) pair in one session never overwrite
// each other's file (spec.md §4.8 temp directory).
func uniqueSuffix() string {
	return uuid.NewString()[:8]
}
