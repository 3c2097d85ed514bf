// Package preflight provides readiness checks for the external tools,
// providers, and filesystem paths the dubbing pipeline depends on.
//
// These checks run in two contexts:
//   - The daemon's /api/health endpoint reports CheckSystemDeps and
//     StageReadiness without touching the network.
//   - The CLI "shortsdub doctor" command runs RunAll, which adds provider
//     reachability probes and disk space checks.
//
// Optional features (notifications) are skipped when not configured.
package preflight
