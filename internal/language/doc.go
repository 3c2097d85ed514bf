// Package language normalizes language identifiers used by the dubbing
// pipeline.
//
// Configuration and API requests accept ISO 639-1 codes, ISO 639-2 codes,
// BCP 47 tags ("ja-JP"), and English word forms ("korean"). Everything is
// reduced to the ISO 639-1 base so transcription, translation, and voice
// selection agree on a single spelling. Parsing and display names come from
// golang.org/x/text.
package language
