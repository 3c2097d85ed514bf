// Package api defines wire-format types and the request services behind the
// HTTP surface. It translates pipeline outcomes and ledger records into
// transport-friendly DTOs so handlers never touch internal types directly.
//
// # Key Types
//
// TranslateRequest/TranslateResponse: the dubbing request and its success
// payload.
//
// ErrorResponse: the single failure shape, {"error": message}.
//
// Job/JobEvent: ledger history views.
//
// HealthStatus: dependency availability and per-stage readiness.
//
// # Services
//
// TranslateService runs one pipeline per request, records the outcome in the
// ledger, publishes a notification, and maps failures to HTTP statuses via
// RequestError.
//
// DownloadPath resolves a job id to its finished artifact; unknown, invalid,
// or unfinished ids are reported as ErrNotFound.
//
// JobService and VoiceService are thin read-only adapters over the ledger and
// the speech provider.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Timestamps use RFC3339 with milliseconds.
package api
