// Package whisperx runs WhisperX through uvx to turn the extracted waveform
// into source-language text.
//
// The service writes WhisperX output into the job's transcript scratch
// directory, joins the JSON segments into plain text, and refuses to report an
// empty transcript as success. Length limits are left to WhisperX; callers
// bound the run with a context deadline.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
