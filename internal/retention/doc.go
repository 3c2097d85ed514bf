// Package retention reclaims stale job artifacts from the shared output
// directory and prunes per-job log files.
//
// Only entries whose names begin with a job identifier followed by "_" are
// considered, so unrelated files in the output directory are never touched.
// A sweep holds an exclusive gofrs/flock lock on a file inside the output
// directory; when another process is already sweeping, Sweep returns
// ErrSweepInProgress without removing anything.
package retention
