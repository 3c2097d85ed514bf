// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Inspect executes ffprobe and returns a parsed Result; Parse decodes a
// captured payload so adapters can substitute canned probes in tests.
// Helper methods on Result answer the questions the dubbing stages ask:
// is there audio, what is its shape, and how long is the media.
package ffprobe
