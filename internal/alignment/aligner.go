package alignment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"hebrewtutor/internal/language"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
	"hebrewtutor/internal/toolexec"
)

// Request is the input to a forced alignment.
type Request struct {
	Language  string
	TextPath  string
	AudioPath string
	// OutputPath is where the engine writes its sync map. It must not be the
	// cache artifact path.
	OutputPath string
}

// Aligner turns a transcript and a recording into time-stamped fragments in
// chronological order.
type Aligner interface {
	Align(ctx context.Context, req Request) ([]Fragment, error)
}

// AeneasAligner runs the aeneas forced aligner through a Python interpreter.
type AeneasAligner struct {
	python string
	logger *slog.Logger
	run    toolexec.Runner
}

// NewAeneasAligner returns an aligner that executes python with the bundled
// driver script. A nil runner uses toolexec.New with default options.
func NewAeneasAligner(python string, run toolexec.Runner, logger *slog.Logger) *AeneasAligner {
	if strings.TrimSpace(python) == "" {
		python = "python3"
	}
	if run == nil {
		run = toolexec.New(toolexec.Options{Logger: logger, Stage: "alignment"})
	}
	return &AeneasAligner{
		python: python,
		logger: logging.NewComponentLogger(logger, "aeneas"),
		run:    run,
	}
}

// WithCommandRunner swaps the process runner (for testing).
func (a *AeneasAligner) WithCommandRunner(run toolexec.Runner) {
	a.run = run
}

// Check verifies the interpreter can import aeneas.
func (a *AeneasAligner) Check(ctx context.Context) error {
	return a.run(ctx, a.python, "-c", aeneasProbeScript)
}

// Align invokes aeneas and parses its JSON sync map.
func (a *AeneasAligner) Align(ctx context.Context, req Request) ([]Fragment, error) {
	if req.TextPath == "" || req.AudioPath == "" || req.OutputPath == "" {
		return nil, services.Wrap(services.ErrValidation, "alignment", "aeneas", "text, audio, and output paths are required", nil)
	}
	lang := language.ToISO3(req.Language)
	if lang == "und" {
		lang = "heb"
	}

	a.logger.Debug("aeneas invocation",
		logging.String("audio", req.AudioPath),
		logging.String("language", lang),
	)
	args := []string{"-c", aeneasScript, req.AudioPath, req.TextPath, req.OutputPath, lang}
	if err := a.run(ctx, a.python, args...); err != nil {
		return nil, err
	}

	fragments, err := LoadSyncMap(req.OutputPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "alignment", "aeneas output", "Aligner produced an unreadable sync map", err)
	}
	return fragments, nil
}

// seconds accepts both quoted ("1.234") and bare numeric offsets.
type seconds float64

func (s *seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(raw))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid time offset %s: %w", data, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid time offset %s: not finite", data)
	}
	*s = seconds(v)
	return nil
}

type syncMap struct {
	Fragments []struct {
		Begin seconds  `json:"begin"`
		End   seconds  `json:"end"`
		Lines []string `json:"lines"`
	} `json:"fragments"`
}

// LoadSyncMap parses an aeneas JSON sync map.
func LoadSyncMap(path string) ([]Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty sync map")
	}
	var payload syncMap
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse sync map: %w", err)
	}
	out := make([]Fragment, 0, len(payload.Fragments))
	for _, f := range payload.Fragments {
		out = append(out, Fragment{
			Text:  strings.TrimSpace(strings.Join(f.Lines, " ")),
			Begin: float64(f.Begin),
			End:   float64(f.End),
		})
	}
	return out, nil
}
