// Package services defines shared utilities consumed by the pipeline stage
// adapters and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that let the orchestrator
//     classify a collaborator failure (empty result, timeout, probe failure,
//     provider status) without parsing error strings.
//
// Subpackages wrap exactly one external tool or API each (yt-dlp, ffmpeg,
// WhisperX, the LLM translator, ElevenLabs) so the pipeline never depends on a
// literal command line or wire format.
package services
