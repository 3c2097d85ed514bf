// Package elevenlabs synthesizes dubbed speech through the ElevenLabs
// text-to-speech API.
//
// Long translations are split into chunks no larger than Config.MaxChars
// (sentence boundaries first, then whitespace, then a hard rune cut). Each
// chunk is requested in order and the MP3 bodies are concatenated into a
// temporary file that is renamed over the job's target audio path once every
// chunk succeeds. Provider statuses 408/429/5xx are retried with the shared
// backoff policy; any other non-2xx status fails immediately with
// "http <code>: <body>".
//
// ListVoices backs the voice picker and filters the account's voices down to
// multilingual voices and voices labelled with the target language.
package elevenlabs
