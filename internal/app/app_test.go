package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"hebrewtutor/internal/history"
	"hebrewtutor/internal/logging"
	"hebrewtutor/internal/services"
	"hebrewtutor/internal/testsupport"
)

// fakeAeneas writes a sync map with one fragment per transcript word.
func fakeAeneas(calls *int) func(context.Context, string, ...string) error {
	return func(_ context.Context, _ string, args ...string) error {
		*calls++
		text, err := os.ReadFile(args[3])
		if err != nil {
			return err
		}
		words := strings.Fields(string(text))
		var frags []string
		for i, w := range words {
			frags = append(frags, fmt.Sprintf(`{"begin":"%.3f","end":"%.3f","lines":[%q]}`, float64(i)*0.5, float64(i+1)*0.5, w))
		}
		return os.WriteFile(args[4], []byte(`{"fragments":[`+strings.Join(frags, ",")+`]}`), 0o644)
	}
}

func TestAppAlignsChapterEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteBook(t, cfg, "Amos", [][][]string{
		{{"דִּבְרֵי", "עָמוֹס"}, {"וַיֹּאמַר"}},
	})
	testsupport.WriteAudio(t, cfg, "Amos", 1)

	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	calls := 0
	a.Aligner.WithCommandRunner(fakeAeneas(&calls))

	ctx := context.Background()
	words, err := a.Alignment.Timestamps(ctx, "Amos", 1)
	if err != nil {
		t.Fatalf("Timestamps: %v", err)
	}
	if len(words) != 3 {
		t.Fatalf("expected 3 timed words, got %d", len(words))
	}
	if words[2].Word != "וַיֹּאמַר" || words[2].VerseIndex != 1 || words[2].Start != 1.0 {
		t.Fatalf("unexpected third word %+v", words[2])
	}

	if _, err := a.Alignment.Timestamps(ctx, "Amos", 1); err != nil {
		t.Fatalf("second Timestamps: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one aligner run, got %d", calls)
	}

	runs, err := a.History.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != history.StatusSucceeded || runs[0].Words != 3 {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if a.Transcriber != nil {
		t.Fatal("transcriber should be nil when transcription is disabled")
	}
}

func TestAppMissingAudioLeavesNoArtifact(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteBook(t, cfg, "Amos", [][][]string{{{"דִּבְרֵי"}}})

	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	calls := 0
	a.Aligner.WithCommandRunner(fakeAeneas(&calls))

	_, err = a.Alignment.Timestamps(context.Background(), "Amos", 1)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, statErr := os.Stat(a.Cache.Path("Amos", 1)); !os.IsNotExist(statErr) {
		t.Fatalf("expected no artifact, stat err=%v", statErr)
	}
	if calls != 0 {
		t.Fatalf("aligner should not run without audio")
	}
}

func TestAppWiresTranscriptionWhenEnabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTranscription())
	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	if a.Transcriber == nil {
		t.Fatal("expected transcriber")
	}
	if _, err := os.Stat(cfg.Paths.UploadDir); err != nil {
		t.Fatalf("expected upload dir created: %v", err)
	}
}

func TestAppVerifyTextFlagsWrongRecording(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithVerifyText(0.8))
	testsupport.WriteBook(t, cfg, "Amos", [][][]string{{{"דִּבְרֵי", "עָמוֹס"}}})
	testsupport.WriteAudio(t, cfg, "Amos", 1)

	a, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()
	a.Aligner.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		return os.WriteFile(args[4], []byte(`{"fragments":[`+
			`{"begin":"0.0","end":"0.5","lines":["בְּרֵאשִׁית"]},`+
			`{"begin":"0.5","end":"1.0","lines":["בָּרָא"]}]}`), 0o644)
	})

	result, err := a.Alignment.Generate(context.Background(), "Amos", 1, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Report.Mismatched != 2 || !result.Report.Suspect() {
		t.Fatalf("expected both bindings flagged, got %+v", result.Report)
	}
	if len(result.Words) != 2 || result.Words[1].End != 1.0 {
		t.Fatalf("mismatched bindings should keep their timing: %+v", result.Words)
	}
}
