package job

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// IDLength is the number of lowercase hex characters in a job identifier.
const IDLength = 12

const maxIDAttempts = 8

// Stage suffixes appended to the job identifier when naming artifacts.
const (
	SuffixOriginal    = "_original.mp4"
	SuffixAudio       = "_audio.wav"
	SuffixTargetAudio = "_target_audio.mp3"
	SuffixFinal       = "_final.mp4"
	SuffixTranscript  = "_transcript"
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{12}$`)

// ErrInvalidID reports an identifier that is not a well-formed job id.
var ErrInvalidID = errors.New("invalid job id")

// Context scopes all artifacts of one pipeline run.
type Context struct {
	ID  string
	Dir string
}

// New creates a job context with a fresh identifier and ensures dir exists.
// The identifier is regenerated if any file already carries its prefix.
func New(dir string) (Context, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Context{}, errors.New("job directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Context{}, fmt.Errorf("create job directory: %w", err)
	}
	for range maxIDAttempts {
		id := newID()
		taken, err := prefixTaken(dir, id)
		if err != nil {
			return Context{}, err
		}
		if !taken {
			return Context{ID: id, Dir: dir}, nil
		}
	}
	return Context{}, fmt.Errorf("allocate job id in %s: exhausted %d attempts", dir, maxIDAttempts)
}

// Open rebuilds a context for an identifier received from a caller.
func Open(dir, id string) (Context, error) {
	if !ValidID(id) {
		return Context{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return Context{ID: id, Dir: dir}, nil
}

// ValidID reports whether id has the exact shape New produces. It must be
// checked before an untrusted id is used to build a path.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// newID takes the leading 48 bits of a random UUID; the version nibble sits
// after them, so every character is random.
func newID() string {
	raw := uuid.New()
	return fmt.Sprintf("%x", raw[:IDLength/2])
}

func prefixTaken(dir, id string) (bool, error) {
	matches, err := filepath.Glob(filepath.Join(dir, id+"*"))
	if err != nil {
		return false, fmt.Errorf("scan job directory: %w", err)
	}
	return len(matches) > 0, nil
}

func (c Context) path(suffix string) string {
	return filepath.Join(c.Dir, c.ID+suffix)
}

// OriginalPath is where the downloaded source video is stored.
func (c Context) OriginalPath() string { return c.path(SuffixOriginal) }

// AudioPath is where the extracted 16 kHz mono waveform is stored.
func (c Context) AudioPath() string { return c.path(SuffixAudio) }

// TargetAudioPath is where the synthesized speech is stored.
func (c Context) TargetAudioPath() string { return c.path(SuffixTargetAudio) }

// FinalPath is where the remuxed deliverable is stored.
func (c Context) FinalPath() string { return c.path(SuffixFinal) }

// TranscriptDir is the scratch directory used by the transcriber.
func (c Context) TranscriptDir() string { return c.path(SuffixTranscript) }

// Prefix is the file name prefix shared by every artifact of the job.
func (c Context) Prefix() string { return c.ID }

// TempPath returns the in-progress name for an artifact path. The stage
// writes here and renames onto path only after the write succeeded.
func TempPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tmp" + ext
}
