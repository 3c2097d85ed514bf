package ffmpeg

import (
	"context"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
)

const remuxStage = "remux"

// Remux combines the first video stream of video with the first audio stream
// of audio. Video is stream-copied, the original audio is dropped, and the
// output stops at the shorter of the two inputs.
func (s *Service) Remux(ctx context.Context, jc job.Context, video, audio job.Artifact) (job.Artifact, error) {
	videoProbe, err := s.inspect(ctx, s.ffprobeBinary, video.Path)
	if err != nil {
		return job.Artifact{}, services.Wrap(services.ErrProbeFailed, remuxStage, "probe video", "probe failed", err)
	}
	videoDuration := videoProbe.Duration()
	if videoDuration <= 0 {
		return job.Artifact{}, services.Wrap(services.ErrProbeFailed, remuxStage, "probe video", "probe failed", nil)
	}

	duration := videoDuration
	if audioProbe, err := s.inspect(ctx, s.ffprobeBinary, audio.Path); err == nil {
		if audioDuration := audioProbe.Duration(); audioDuration > 0 {
			duration = min(duration, audioDuration)
		}
	}

	dest := jc.FinalPath()
	args := []string{
		"-i", video.Path,
		"-i", audio.Path,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
	}
	if err := s.render(ctx, dest, args); err != nil {
		return job.Artifact{}, services.Wrap(services.CommandMarker(err), remuxStage, "run ffmpeg", "remux failed", err)
	}
	return job.Artifact{Path: dest, Kind: job.KindVideo, Duration: duration}, nil
}
