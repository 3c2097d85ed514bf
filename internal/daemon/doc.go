// Package daemon coordinates the long-running shortsdub process.
//
// It serves the HTTP surface (gorilla/mux routes behind rs/cors, request id
// stamping, and panic recovery), runs the retention sweeper on an interval,
// and holds a flock-based lock so only one daemon runs per log directory.
// Each POST /api/translate runs one pipeline synchronously on the request
// goroutine; there is no background queue.
//
// Keep orchestration logic out of here: stage behavior lives in the adapters
// under internal/services and sequencing lives in internal/pipeline.
package daemon
