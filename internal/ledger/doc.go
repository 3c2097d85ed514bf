// Package ledger keeps an operator-facing SQLite history of dubbing jobs.
//
// Every pipeline state transition is appended to job_events and folded into
// the jobs row, so `shortsdub jobs` and GET /api/jobs can show what happened
// to a job after the fact. The ledger is history only: artifact downloads are
// resolved from the output directory and never consult it.
package ledger
