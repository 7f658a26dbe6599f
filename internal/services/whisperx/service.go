package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"reelsmith/internal/content"
	langpkg "reelsmith/internal/language"
	"reelsmith/internal/services"
)

// Service provides WhisperX transcription capabilities.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a WhisperX service with the given configuration.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = UVXCommand
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Transcribe runs WhisperX on audioPath and returns the parsed transcript.
// Output files land in a "transcript" directory beside the audio.
func (s *Service) Transcribe(ctx context.Context, audioPath string, opts content.TranscribeOptions) (content.Transcript, error) {
	if strings.TrimSpace(audioPath) == "" {
		return content.Transcript{}, services.Wrap(services.ErrMissingInput, "whisperx", "transcribe", "audio path required", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return content.Transcript{}, services.Wrap(services.ErrMissingInput, "whisperx", "transcribe", "audio file not found", err)
	}
	outputDir := filepath.Join(filepath.Dir(audioPath), "transcript")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return content.Transcript{}, fmt.Errorf("transcribe: ensure output dir: %w", err)
	}

	model := firstNonEmpty(opts.Model, s.cfg.Model, DefaultModel)
	language := firstNonEmpty(opts.Language, s.cfg.Language)
	if err := s.run(ctx, s.cfg.Command, s.buildArgs(audioPath, outputDir, model, language)...); err != nil {
		if ctx.Err() != nil {
			return content.Transcript{}, services.Wrap(services.ErrTimeout, "whisperx", "transcribe", "", ctx.Err())
		}
		return content.Transcript{}, services.Wrap(services.ErrExternalTool, "whisperx", "transcribe", "", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	payload, err := loadPayload(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return content.Transcript{}, services.Wrap(services.ErrUnparseable, "whisperx", "parse output", "", err)
	}
	return payload.transcript(language), nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}

	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// buildArgs constructs the launcher arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir, model, language string) []string {
	args := make([]string, 0, 40)

	if s.cfg.Command == UVXCommand {
		if s.cfg.CUDAEnabled {
			args = append(args,
				"--index-url", CUDAIndexURL,
				"--extra-index-url", PypiIndexURL,
			)
		} else {
			args = append(args, "--index-url", PypiIndexURL)
		}
	}

	args = append(args,
		"whisperx",
		source,
		"--model", model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
		"--chunk_size", ChunkSize,
		"--vad_onset", VADOnset,
		"--vad_offset", VADOffset,
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

type payload struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

func loadPayload(path string) (payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return payload{}, err
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return payload{}, fmt.Errorf("parse whisperx json: %w", err)
	}
	if p.Segments == nil {
		return payload{}, errors.New("whisperx json has no segments field")
	}
	return p, nil
}

func (p payload) transcript(requested string) content.Transcript {
	t := content.Transcript{Segments: make([]content.Segment, 0, len(p.Segments))}
	texts := make([]string, 0, len(p.Segments))
	for _, seg := range p.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		t.Segments = append(t.Segments, content.Segment{Start: seg.Start, End: seg.End, Text: text})
		texts = append(texts, text)
	}
	t.FullText = strings.Join(texts, " ")
	t.Language = langpkg.ToISO2(firstNonEmpty(p.Language, requested))
	if t.Language == "" {
		t.Language = "en"
	}
	return t
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
