package ffmpeg

import (
	"context"
	"fmt"
	"os"

	"shortsdub/internal/job"
	"shortsdub/internal/media/ffprobe"
	"shortsdub/internal/services"
)

// Waveform format required by the transcriber.
const (
	WaveformSampleRate = 16000
	WaveformChannels   = 1
	WaveformCodec      = "pcm_s16le"
)

// Service runs ffmpeg and ffprobe for the extract and remux stages.
type Service struct {
	ffmpegBinary  string
	ffprobeBinary string
	run           services.CommandRunner
	inspect       ffprobe.Inspector
}

// NewService creates a Service. Empty binary names fall back to the PATH defaults.
func NewService(ffmpegBinary, ffprobeBinary string) *Service {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	if ffprobeBinary == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Service{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		run:           services.RunCommand,
		inspect:       ffprobe.Inspect,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		s.run = runner
	}
}

// WithInspector sets a custom ffprobe implementation (for testing).
func (s *Service) WithInspector(inspect ffprobe.Inspector) {
	if inspect != nil {
		s.inspect = inspect
	}
}

// render runs ffmpeg with output written to the temp sibling of dest, then
// renames it into place. The temp file is removed on any failure.
func (s *Service) render(ctx context.Context, dest string, args []string) error {
	tmp := job.TempPath(dest)
	_ = os.Remove(tmp)
	full := append(append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...), tmp)
	if _, err := s.run(ctx, s.ffmpegBinary, full...); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := (job.Artifact{Path: tmp}).Verify(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
