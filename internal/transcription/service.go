package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"hebrewtutor/internal/fileutil"
	langpkg "hebrewtutor/internal/language"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
	"hebrewtutor/internal/toolexec"
)

// allowedExtensions lists the upload types WhisperX (via ffmpeg) accepts.
var allowedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".ogg": true,
	".flac": true, ".webm": true, ".aac": true, ".opus": true,
}

// Service provides WhisperX transcription.
type Service struct {
	cfg    Config
	uvx    string
	run    toolexec.Runner
	logger *slog.Logger
}

// NewService creates a transcription service. A nil runner uses toolexec.New.
func NewService(cfg Config, uvx string, run toolexec.Runner, logger *slog.Logger) *Service {
	if strings.TrimSpace(uvx) == "" {
		uvx = UVXCommand
	}
	if run == nil {
		run = toolexec.New(toolexec.Options{Logger: logger, Stage: "transcription", Env: []string{TorchWeightsEnv}})
	}
	return &Service{
		cfg:    cfg,
		uvx:    uvx,
		run:    run,
		logger: logging.NewComponentLogger(logger, "transcription"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(run toolexec.Runner) {
	s.run = run
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return DefaultModel
}

// Result contains the outcome of a transcription.
type Result struct {
	Text     string        `json:"text"`
	Segments []Segment     `json:"segments"`
	Language string        `json:"language"`
	Model    string        `json:"model"`
	Elapsed  time.Duration `json:"-"`
}

// TranscribeUpload stores r under a fresh name in the upload directory,
// transcribes it, and removes the upload and WhisperX output afterwards.
// filename is only consulted for its extension.
func (s *Service) TranscribeUpload(ctx context.Context, r io.Reader, filename string) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return Result{}, services.Wrap(services.ErrValidation, "transcription", "upload",
			fmt.Sprintf("unsupported audio type %q", ext), nil)
	}
	if strings.TrimSpace(s.cfg.UploadDir) == "" {
		return Result{}, services.Wrap(services.ErrConfiguration, "transcription", "upload", "upload_dir is not configured", nil)
	}

	id := uuid.NewString()
	source := filepath.Join(s.cfg.UploadDir, id+ext)
	if err := fileutil.SaveReader(source, r, 0o644); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "transcription", "upload", "Failed to store upload", err)
	}
	outputDir := filepath.Join(s.cfg.UploadDir, id)
	defer s.cleanup(source, outputDir)

	return s.TranscribeFile(ctx, source, outputDir)
}

// TranscribeFile runs WhisperX on source and reads the JSON transcript it
// writes into outputDir.
func (s *Service) TranscribeFile(ctx context.Context, source, outputDir string) (Result, error) {
	if source == "" {
		return Result{}, services.Wrap(services.ErrValidation, "transcription", "transcribe", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "transcription", "transcribe", "Failed to create output directory", err)
	}

	started := time.Now()
	lang := langpkg.ToISO2(s.language())
	s.logger.Info("whisperx transcription started",
		logging.String(logging.FieldEventType, "transcription_started"),
		logging.String("model", s.Model()),
		logging.String("language", lang),
		logging.Bool("cuda", s.cfg.CUDAEnabled),
	)
	if err := s.run(ctx, s.uvx, s.buildArgs(source, outputDir)...); err != nil {
		return Result{}, err
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalTool, "transcription", "whisperx output", "WhisperX produced no readable transcript", err)
	}
	result := Result{
		Text:     joinSegments(segments),
		Segments: segments,
		Language: lang,
		Model:    s.Model(),
		Elapsed:  time.Since(started),
	}
	s.logger.Info("whisperx transcription finished",
		logging.String(logging.FieldEventType, "transcription_finished"),
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (s *Service) language() string {
	if s.cfg.Language != "" {
		return s.cfg.Language
	}
	return DefaultLanguage
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (s *Service) buildArgs(source, outputDir string) []string {
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
		"--beam_size", BeamSize,
		"--vad_method", VADMethod,
	)

	if lang := langpkg.ToISO2(s.language()); lang != "" {
		args = append(args, "--language", lang)
	}

	if s.cfg.CUDAEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}
	return args
}

func (s *Service) cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.RemoveAll(path); err != nil {
			logging.WarnWithContext(s.logger, "upload cleanup failed", "upload_cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file from upload_dir manually"),
			)
		}
	}
}

// Word represents a single word with timing from WhisperX output.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words,omitempty"`
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

func joinSegments(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
