package daemonrun

import (
	"shortsdub/internal/config"
	"shortsdub/internal/deps"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/services/elevenlabs"
	"shortsdub/internal/services/ffmpeg"
	"shortsdub/internal/services/llm"
	"shortsdub/internal/services/whisperx"
	"shortsdub/internal/services/ytdlp"
)

// BuildStages wires the production stage adapters from cfg. The returned
// speech client doubles as the voice catalogue for the HTTP surface.
func BuildStages(cfg *config.Config) (pipeline.Stages, *elevenlabs.Client) {
	ffprobe := deps.ResolveFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	media := ffmpeg.NewService(cfg.FFmpegBinary(), ffprobe.Command)
	speech := NewSpeechClient(cfg)

	stages := pipeline.Stages{
		Acquirer: ytdlp.NewService(ytdlp.Config{
			Command:        cfg.Downloader.Command,
			Format:         cfg.Downloader.Format,
			PlaylistPolicy: cfg.Downloader.PlaylistPolicy,
		}),
		Extractor: media,
		Transcriber: whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
		}),
		Translator: llm.NewClient(llm.Config{
			APIKey:         cfg.LLM.APIKey,
			BaseURL:        cfg.LLM.BaseURL,
			Model:          cfg.LLM.Model,
			Referer:        cfg.LLM.Referer,
			Title:          cfg.LLM.Title,
			TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		}),
		Synthesizer: speech,
		Remuxer:     media,
	}
	return stages, speech
}

// NewSpeechClient builds the ElevenLabs client from cfg.
func NewSpeechClient(cfg *config.Config) *elevenlabs.Client {
	return elevenlabs.NewClient(elevenlabs.Config{
		APIKey:          cfg.ElevenLabs.APIKey,
		BaseURL:         cfg.ElevenLabs.BaseURL,
		VoiceID:         cfg.ElevenLabs.VoiceID,
		ModelID:         cfg.ElevenLabs.ModelID,
		Stability:       cfg.ElevenLabs.Stability,
		SimilarityBoost: cfg.ElevenLabs.SimilarityBoost,
		MaxChars:        cfg.ElevenLabs.MaxChars,
		TimeoutSeconds:  cfg.ElevenLabs.TimeoutSeconds,
		FFmpegBinary:    cfg.FFmpegBinary(),
	})
}
