// Package pipeline sequences the dubbing stages for one job.
//
// A run walks created → downloading → extracting_audio → transcribing →
// translating → synthesizing → remuxing → done. The first stage that fails
// (returns an error, panics, exceeds its deadline, or hands back an artifact
// that is missing or empty on disk) moves the job to the absorbing failed
// state and no later stage is invoked. The orchestrator never retries; retry
// policy lives in the individual clients.
//
// Stage collaborators are narrow interfaces so tests can substitute fakes
// that return fixed artifacts. The Orchestrator keeps no per-job state and is
// safe for concurrent use; jobs are isolated by their identifier prefix
// inside the shared output directory.
package pipeline
