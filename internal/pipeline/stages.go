package pipeline

import (
	"context"

	"shortsdub/internal/job"
)

// Acquirer downloads the source video.
type Acquirer interface {
	Acquire(ctx context.Context, jc job.Context, url string) (job.Artifact, error)
}

// Extractor produces the 16 kHz mono waveform from the source video.
type Extractor interface {
	Extract(ctx context.Context, jc job.Context, video job.Artifact) (job.Artifact, error)
}

// Transcriber recognizes speech in the waveform.
type Transcriber interface {
	Transcribe(ctx context.Context, jc job.Context, audio job.Artifact, language string) (job.Transcript, error)
}

// Translator renders a transcript in the target language.
type Translator interface {
	Translate(ctx context.Context, transcript job.Transcript, target string) (job.Translation, error)
}

// Synthesizer voices the translation.
type Synthesizer interface {
	Synthesize(ctx context.Context, jc job.Context, translation job.Translation) (job.Artifact, error)
}

// Remuxer replaces the video's audio track with the dubbed audio.
type Remuxer interface {
	Remux(ctx context.Context, jc job.Context, video, audio job.Artifact) (job.Artifact, error)
}

// Stages bundles the collaborators a run needs.
type Stages struct {
	Acquirer    Acquirer
	Extractor   Extractor
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
	Remuxer     Remuxer
}

func (s Stages) missing() []string {
	var names []string
	if s.Acquirer == nil {
		names = append(names, string(StageAcquire))
	}
	if s.Extractor == nil {
		names = append(names, string(StageExtract))
	}
	if s.Transcriber == nil {
		names = append(names, string(StageTranscribe))
	}
	if s.Translator == nil {
		names = append(names, string(StageTranslate))
	}
	if s.Synthesizer == nil {
		names = append(names, string(StageSynthesize))
	}
	if s.Remuxer == nil {
		names = append(names, string(StageRemux))
	}
	return names
}
