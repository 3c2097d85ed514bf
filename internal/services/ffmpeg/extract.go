package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"strings"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
)

const extractStage = "extract_audio"

// Extract demuxes the first audio stream of video into the job waveform.
// The output is re-probed and rejected unless it is exactly mono 16 kHz PCM.
func (s *Service) Extract(ctx context.Context, jc job.Context, video job.Artifact) (job.Artifact, error) {
	source, err := s.inspect(ctx, s.ffprobeBinary, video.Path)
	if err != nil {
		return job.Artifact{}, services.Wrap(services.CommandMarker(err), extractStage, "probe source", "source container unreadable", err)
	}
	if source.AudioStreamCount() == 0 {
		return job.Artifact{}, services.Wrap(services.ErrValidation, extractStage, "probe source", "no audio stream", nil)
	}

	dest := jc.AudioPath()
	args := []string{
		"-i", video.Path,
		"-map", "0:a:0",
		"-vn",
		"-sn",
		"-dn",
		"-ac", fmt.Sprint(WaveformChannels),
		"-ar", fmt.Sprint(WaveformSampleRate),
		"-c:a", WaveformCodec,
	}
	if err := s.render(ctx, dest, args); err != nil {
		return job.Artifact{}, services.Wrap(services.CommandMarker(err), extractStage, "run ffmpeg", "audio extraction failed", err)
	}

	result, err := s.inspect(ctx, s.ffprobeBinary, dest)
	if err != nil {
		_ = os.Remove(dest)
		return job.Artifact{}, services.Wrap(services.ErrProbeFailed, extractStage, "verify waveform", "probe failed", err)
	}
	stream, ok := result.FirstAudioStream()
	if !ok || !strings.EqualFold(stream.CodecName, WaveformCodec) || stream.SampleRateHz() != WaveformSampleRate || stream.Channels != WaveformChannels {
		_ = os.Remove(dest)
		detail := fmt.Sprintf("unexpected waveform format codec=%s rate=%s channels=%d", stream.CodecName, stream.SampleRate, stream.Channels)
		return job.Artifact{}, services.Wrap(services.ErrValidation, extractStage, "verify waveform", detail, nil)
	}
	return job.Artifact{Path: dest, Kind: job.KindAudio, Duration: result.Duration()}, nil
}
