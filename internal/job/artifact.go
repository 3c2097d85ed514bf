package job

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// Kind classifies a media artifact.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Artifact is a media file produced by a stage.
type Artifact struct {
	Path string
	Kind Kind
	// Duration is zero when the producing stage did not probe it.
	Duration time.Duration
}

// ErrMissingArtifact reports an artifact that is absent or empty on disk.
var ErrMissingArtifact = errors.New("artifact missing or empty")

// Verify confirms the artifact exists as a regular file with non-zero size.
func (a Artifact) Verify() error {
	if a.Path == "" {
		return fmt.Errorf("%w: no path", ErrMissingArtifact)
	}
	info, err := os.Stat(a.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMissingArtifact, a.Path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrMissingArtifact, a.Path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrMissingArtifact, a.Path)
	}
	return nil
}

// Transcript is recognized speech in the source language.
type Transcript struct {
	Text     string
	Language string
}

// Translation is transcript text rendered in the target language.
type Translation struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
}
