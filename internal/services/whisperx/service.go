package whisperx

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shortsdub/internal/job"
	langpkg "shortsdub/internal/language"
	"shortsdub/internal/services"
)

const stageName = "transcribe"

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner services.CommandRunner
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg, commandRunner: runWithTorchEnv}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		s.commandRunner = runner
	}
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// CUDAEnabled returns whether CUDA is enabled.
func (s *Service) CUDAEnabled() bool {
	return s.cfg.CUDAEnabled
}

// Transcribe converts the job waveform into source-language text. Output
// files land in the job's transcript directory.
func (s *Service) Transcribe(ctx context.Context, jc job.Context, audio job.Artifact, language string) (job.Transcript, error) {
	if audio.Path == "" {
		return job.Transcript{}, services.Wrap(services.ErrValidation, stageName, "validate input", "audio path required", nil)
	}
	outputDir := jc.TranscriptDir()
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return job.Transcript{}, services.Wrap(services.ErrConfiguration, stageName, "prepare output", "create transcript directory", err)
	}

	args := s.buildArgs(audio.Path, outputDir, language)
	if _, err := s.commandRunner(ctx, UVXCommand, args...); err != nil {
		return job.Transcript{}, services.Wrap(services.CommandMarker(err), stageName, "run whisperx", "whisperx invocation failed", err)
	}

	jsonPath := filepath.Join(outputDir, strings.TrimSuffix(filepath.Base(audio.Path), filepath.Ext(audio.Path))+".json")
	text, err := loadTranscriptText(jsonPath)
	if err != nil {
		return job.Transcript{}, services.Wrap(services.ErrExternalTool, stageName, "read output", "whisperx output unreadable", err)
	}
	if strings.TrimSpace(text) == "" {
		return job.Transcript{}, services.Wrap(services.ErrEmptyResult, stageName, "read output", "empty result", nil)
	}
	return job.Transcript{Text: text, Language: langpkg.ToISO2(language)}, nil
}

// runWithTorchEnv forces legacy torch.load behavior. Torch 2.6 defaults to
// weights_only loading, which breaks the pyannote checkpoints WhisperX ships.
func runWithTorchEnv(ctx context.Context, name string, args ...string) ([]byte, error) {
	var env []string
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return services.RunCommandEnv(ctx, env, name, args...)
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, language string) []string {
	args := make([]string, 0, 32)

	if s.cfg.CUDAEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.Model(),
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--beam_size", BeamSize,
		"--temperature", Temperature,
	)

	vadMethod := s.cfg.VADMethod
	if vadMethod == "" {
		vadMethod = VADMethodSilero
	}
	args = append(args, "--vad_method", vadMethod)
	if vadMethod == VADMethodPyannote && s.cfg.HFToken != "" {
		args = append(args, "--hf_token", s.cfg.HFToken)
	}

	if lang := langpkg.ToISO2(language); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

func loadTranscriptText(jsonPath string) (string, error) {
	segments, err := LoadSegments(jsonPath)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}
