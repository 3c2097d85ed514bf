// Package job defines the per-request job context and the artifact types
// handed between pipeline stages.
//
// A Context pairs an unguessable identifier with the shared output directory.
// Every artifact a job produces lives in that directory under a name derived
// from the identifier and a stage suffix, so concurrent jobs never touch each
// other's files and a stale job can be reclaimed by prefix alone.
package job
