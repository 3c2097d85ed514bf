// Package ffmpeg wraps the ffmpeg/ffprobe invocations of the dubbing
// pipeline: extracting the 16 kHz mono PCM waveform that transcription is
// tuned for, and remuxing the source video stream with the synthesized audio.
//
// Every output is rendered into a temporary sibling and renamed into place
// only after ffmpeg exits cleanly, so a failed or interrupted run never
// leaves a file that looks valid.
package ffmpeg
